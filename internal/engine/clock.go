package engine

import "time"

// TimestampLayout is the text form of generated Date values,
// e.g. "2024-03-01 12:30:45.123456".
const TimestampLayout = "2006-01-02 15:04:05.000000"

// Clock supplies the instants stamped on Date fields.
// Implementations must be safe for concurrent use: every publication worker
// shares the generator's clock.
type Clock interface {
	Now() time.Time
}

// WallClock reads the system time.
type WallClock struct{}

// Now returns the current local time.
func (WallClock) Now() time.Time {
	return time.Now()
}

// FormatTimestamp renders t with TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
