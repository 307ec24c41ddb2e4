package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one deterministic generation run and the properties its
// output must satisfy.
type Scenario struct {
	// Name uniquely identifies this scenario. Golden files are named after it.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the path of the rule file, relative to the scenario file.
	Rules string `yaml:"rules,omitempty"`

	// RulesInline is an inline rule file in JSON or CUE syntax.
	// Exactly one of Rules and RulesInline must be set.
	RulesInline string `yaml:"rules_inline,omitempty"`

	// Cities is the inline city list.
	Cities []string `yaml:"cities,omitempty"`

	// CitiesFile is the path of a city file, relative to the scenario file.
	// Exactly one of Cities and CitiesFile must be set.
	CitiesFile string `yaml:"cities_file,omitempty"`

	Seed          uint64 `yaml:"seed"`
	Publications  int    `yaml:"publications"`
	Subscriptions int    `yaml:"subscriptions"`

	// Workers overrides the rule file's parallel settings when positive.
	Workers int `yaml:"workers,omitempty"`

	// Clock fixes the instants stamped on Date fields.
	Clock ClockSpec `yaml:"clock,omitempty"`

	// Assertions validate the generated records.
	Assertions []Assertion `yaml:"assertions"`
}

// ClockSpec configures the step clock of a scenario.
type ClockSpec struct {
	Start string `yaml:"start,omitempty"` // RFC 3339; empty means 2024-01-01T00:00:00Z
	Step  string `yaml:"step,omitempty"`  // Go duration; empty means 1us
}

// Assertion is one property check.
type Assertion struct {
	// Type selects the check: field_coverage, predicate_bounds, city_cap,
	// value_range or total_pubs.
	Type string `yaml:"type"`

	// Field restricts field_coverage and value_range to one field.
	Field string `yaml:"field,omitempty"`

	// Min and Max bound the predicate count (predicate_bounds).
	// Defaults: 1 and the number of declared fields.
	Min *int `yaml:"min,omitempty"`
	Max *int `yaml:"max,omitempty"`

	// Count is the expected total_pubs; zero means the scenario's publication count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertFieldCoverage   = "field_coverage"
	AssertPredicateBounds = "predicate_bounds"
	AssertCityCap         = "city_cap"
	AssertValueRange      = "value_range"
	AssertTotalPubs       = "total_pubs"
)

// LoadScenario reads and parses a scenario YAML file.
// Relative rule and city paths are resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed, contains unknown
// fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	if scenario.Rules != "" && !filepath.IsAbs(scenario.Rules) {
		scenario.Rules = filepath.Join(base, scenario.Rules)
	}
	if scenario.CitiesFile != "" && !filepath.IsAbs(scenario.CitiesFile) {
		scenario.CitiesFile = filepath.Join(base, scenario.CitiesFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Rules == "") == (s.RulesInline == "") {
		return fmt.Errorf("exactly one of rules and rules_inline is required")
	}

	if (len(s.Cities) == 0) == (s.CitiesFile == "") {
		return fmt.Errorf("exactly one of cities and cities_file is required")
	}

	if s.Rules != "" {
		if _, err := os.Stat(s.Rules); os.IsNotExist(err) {
			return fmt.Errorf("rule file not found: %s", s.Rules)
		}
	}
	if s.CitiesFile != "" {
		if _, err := os.Stat(s.CitiesFile); os.IsNotExist(err) {
			return fmt.Errorf("city file not found: %s", s.CitiesFile)
		}
	}

	if s.Publications <= 0 {
		return fmt.Errorf("publications must be positive")
	}
	if s.Subscriptions <= 0 {
		return fmt.Errorf("subscriptions must be positive")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}

	if _, _, err := s.Clock.parse(); err != nil {
		return err
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFieldCoverage, AssertCityCap, AssertValueRange:
	case AssertPredicateBounds:
		if a.Min != nil && *a.Min < 0 {
			return fmt.Errorf("assertions[%d]: min must be non-negative for predicate_bounds", index)
		}
		if a.Min != nil && a.Max != nil && *a.Min > *a.Max {
			return fmt.Errorf("assertions[%d]: min exceeds max for predicate_bounds", index)
		}
	case AssertTotalPubs:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for total_pubs", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

func (c ClockSpec) parse() (time.Time, time.Duration, error) {
	var start time.Time
	var step time.Duration
	if c.Start != "" {
		t, err := time.Parse(time.RFC3339Nano, c.Start)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("clock.start: %w", err)
		}
		start = t
	}
	if c.Step != "" {
		d, err := time.ParseDuration(c.Step)
		if err != nil {
			return time.Time{}, 0, fmt.Errorf("clock.step: %w", err)
		}
		if d <= 0 {
			return time.Time{}, 0, fmt.Errorf("clock.step must be positive")
		}
		step = d
	}
	return start, step, nil
}
