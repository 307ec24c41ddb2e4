package store

import (
	"fmt"
	"strconv"
	"time"

	"github.com/roach88/pubsubgen/internal/ir"
)

const (
	kindInt    = "int"
	kindString = "string"
)

// encodeScalar splits a scalar into its kind tag and text form.
func encodeScalar(v ir.Scalar) (kind, text string) {
	return ir.ScalarKind(v), ir.ScalarString(v)
}

// decodeScalar reverses encodeScalar.
func decodeScalar(kind, text string) (ir.Scalar, error) {
	switch kind {
	case kindInt:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("decode int value %q: %w", text, err)
		}
		return ir.Int(n), nil
	case kindString:
		return ir.String(text), nil
	default:
		return nil, fmt.Errorf("unknown value kind %q", kind)
	}
}

// SQLite INTEGER is signed; seeds are stored bit for bit.
func encodeSeed(seed uint64) int64 { return int64(seed) }
func decodeSeed(v int64) uint64    { return uint64(v) }

const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode created_at %q: %w", s, err)
	}
	return t, nil
}
