package ir

import (
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is a sealed interface over the values that appear in generated records.
// Only Int, String, List and Object implement it.
// There is no float variant: every numeric domain is an integer interval.
type Value interface {
	irValue() // Sealed - only these types implement it
}

// Scalar is a Value usable as a frequency index key.
// Int and String are both comparable, so a Scalar is safe as a map key.
type Scalar interface {
	Value
	scalar()
}

// Int is an integer value. Always int64.
type Int int64

func (Int) irValue() {}
func (Int) scalar()  {}

// String is a string value (city names, timestamps, field names).
type String string

func (String) irValue() {}
func (String) scalar()  {}

// List is an ordered sequence of values.
// A subscription serializes as a List of 3-element Lists.
type List []Value

func (List) irValue() {}

// Object is a map of field names to values.
// A publication serializes as an Object. Use SortedKeys() for deterministic iteration.
type Object map[string]Value

func (Object) irValue() {}

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
// Go's sort.Strings orders by UTF-8 bytes, which differs for astral characters.
func (obj Object) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysUTF16)
	return keys
}

// compareKeysUTF16 compares strings by UTF-16 code units.
func compareKeysUTF16(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// ScalarString renders a scalar the way it is stored as text (store rows, logs).
func ScalarString(s Scalar) string {
	switch v := s.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(v))
	case String:
		return string(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ScalarKind names the variant of a scalar: "int" or "string".
func ScalarKind(s Scalar) string {
	if _, ok := s.(Int); ok {
		return "int"
	}
	return "string"
}
