package ir

// Version constants for output records and the generator.
const (
	// RecordVersion is the output record schema version.
	RecordVersion = "1"

	// GeneratorVersion is the pubsubgen generator version.
	GeneratorVersion = "0.1.0"
)
