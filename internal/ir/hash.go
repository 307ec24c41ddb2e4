package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainRuleSet = "pubsubgen/ruleset/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// RuleSetHash fingerprints a compiled configuration.
// Two runs with the same hash, cities, counts, workers and seed produce the same output.
func RuleSetHash(cfg *Config) (string, error) {
	obj := map[string]any{
		"rules":     cfg.Rules.Canonical(),
		"operators": cfg.Operators,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RuleSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRuleSet, canonical), nil
}

// MustRuleSetHash is like RuleSetHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustRuleSetHash(cfg *Config) string {
	h, err := RuleSetHash(cfg)
	if err != nil {
		panic(err)
	}
	return h
}
