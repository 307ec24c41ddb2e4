package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v int64) *int64 { return &v }

func TestParseDataType(t *testing.T) {
	assert.Equal(t, TypeInteger, ParseDataType("Integer"))
	assert.Equal(t, TypeString, ParseDataType("String"))
	assert.Equal(t, TypeDate, ParseDataType("Date"))
	assert.Equal(t, TypeNone, ParseDataType("Float"))
	assert.Equal(t, TypeNone, ParseDataType("integer"))
}

func TestRuleKind(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
		want Kind
	}{
		{"integer with limits", Rule{Field: "age", Type: TypeInteger, Limits: &Limits{0, 9}}, KindInteger},
		{"integer without limits", Rule{Field: "age", Type: TypeInteger}, KindUnsupported},
		{"city", Rule{Field: "city", Type: TypeString}, KindCity},
		{"other string", Rule{Field: "station", Type: TypeString}, KindUnsupported},
		{"date", Rule{Field: "date", Type: TypeDate}, KindDate},
		{"untyped", Rule{Field: "x"}, KindUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rule.Kind())
		})
	}
}

func TestLimitsContains(t *testing.T) {
	l := Limits{Lo: 1, Hi: 3}
	assert.False(t, l.Contains(0))
	assert.True(t, l.Contains(1))
	assert.True(t, l.Contains(3))
	assert.False(t, l.Contains(4))
}

func TestRuleSetLookupAndFields(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{
		{Field: "temp", Type: TypeInteger, Limits: &Limits{-10, 40}},
		{Field: "city", Type: TypeString},
	}}

	assert.Equal(t, []string{"temp", "city"}, rs.Fields())
	assert.Equal(t, 2, rs.Len())

	r, ok := rs.Lookup("city")
	require.True(t, ok)
	assert.Equal(t, KindCity, r.Kind())

	_, ok = rs.Lookup("wind")
	assert.False(t, ok)
}

func TestRuleSetCanonical(t *testing.T) {
	rs := &RuleSet{Rules: []Rule{
		{Field: "age", Type: TypeInteger, Limits: &Limits{0, 99}, FreqField: ptr(50), FreqOp: ptr(20)},
		{Field: "note", Type: TypeNone},
	}}

	data, err := MarshalCanonical(rs.Canonical())
	require.NoError(t, err)
	assert.Equal(t,
		`[{"field":"age","freq_field":50,"freq_op":20,"kind":"integer","limits":[0,99],"type":"Integer"},`+
			`{"field":"note","kind":"unsupported","type":""}]`,
		string(data))
}

func TestRuleSetHashStable(t *testing.T) {
	cfg := &Config{
		Rules:     &RuleSet{Rules: []Rule{{Field: "city", Type: TypeString, FreqField: ptr(30)}}},
		Operators: []string{"=", "!="},
	}

	h1 := MustRuleSetHash(cfg)
	h2 := MustRuleSetHash(cfg)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)

	cfg.Operators = []string{"="}
	assert.NotEqual(t, h1, MustRuleSetHash(cfg))
}

func TestScalarHelpers(t *testing.T) {
	assert.Equal(t, "17", ScalarString(Int(17)))
	assert.Equal(t, "Cluj", ScalarString(String("Cluj")))
	assert.Equal(t, "int", ScalarKind(Int(1)))
	assert.Equal(t, "string", ScalarKind(String("x")))
}

func TestSubscriptionFields(t *testing.T) {
	sub := Subscription{
		{Field: "city", Operator: "=", Value: String("Iasi")},
		{Field: "age", Operator: "<", Value: Int(3)},
	}
	assert.Equal(t, map[string]bool{"city": true, "age": true}, sub.Fields())
}
