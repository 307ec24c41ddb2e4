package ir

// CityField is the only String field with a generator: its values come from the city list.
const CityField = "city"

// EqualityOperator is the operator emitted for city predicates.
const EqualityOperator = "="

// DataType is the declared type of a field.
type DataType string

const (
	// TypeNone marks an unrecognized type name. Fields with TypeNone are never generated.
	TypeNone    DataType = ""
	TypeInteger DataType = "Integer"
	TypeString  DataType = "String"
	TypeDate    DataType = "Date"
)

// ParseDataType maps a declared type name to a DataType.
// Unknown names map to TypeNone without error.
func ParseDataType(name string) DataType {
	switch DataType(name) {
	case TypeInteger, TypeString, TypeDate:
		return DataType(name)
	default:
		return TypeNone
	}
}

// Kind is the closed set of generation variants.
// Every generator switches over all four values.
type Kind int

const (
	KindUnsupported Kind = iota
	KindInteger
	KindCity
	KindDate
)

// String returns the lowercase variant name used in compiled output.
func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindCity:
		return "city"
	case KindDate:
		return "date"
	default:
		return "unsupported"
	}
}

// FieldSpec is one declared field as read from the rule file.
type FieldSpec struct {
	Name      string
	Type      string
	FreqField *int64 // percent of subscriptions that must carry this field
	FreqOp    *int64 // percent of subscriptions that must use equality on this field
}

// Limits is a closed integer interval [Lo, Hi].
type Limits struct {
	Lo int64 `json:"lo"`
	Hi int64 `json:"hi"`
}

// Contains reports whether v lies within the interval.
func (l Limits) Contains(v int64) bool {
	return v >= l.Lo && v <= l.Hi
}

// Rule is the compiled generation constraint for one field.
// Rules are immutable after compilation and shared read-only by all workers.
type Rule struct {
	Field     string
	Type      DataType
	Limits    *Limits
	FreqField *int64
	FreqOp    *int64
}

// Kind derives the generation variant of the rule.
func (r Rule) Kind() Kind {
	switch r.Type {
	case TypeInteger:
		if r.Limits != nil {
			return KindInteger
		}
	case TypeString:
		if r.Field == CityField {
			return KindCity
		}
	case TypeDate:
		return KindDate
	}
	return KindUnsupported
}

// RuleSet holds the compiled rules in declaration order.
type RuleSet struct {
	Rules []Rule

	// UnusedLimits names limit entries for fields that were never declared,
	// sorted. They are parsed and then ignored.
	UnusedLimits []string
}

// Fields returns the declared field names in declaration order.
func (rs *RuleSet) Fields() []string {
	fields := make([]string, len(rs.Rules))
	for i, r := range rs.Rules {
		fields[i] = r.Field
	}
	return fields
}

// Lookup returns the rule for a field.
func (rs *RuleSet) Lookup(field string) (Rule, bool) {
	for _, r := range rs.Rules {
		if r.Field == field {
			return r, true
		}
	}
	return Rule{}, false
}

// Len returns the number of declared fields.
func (rs *RuleSet) Len() int {
	return len(rs.Rules)
}

// Canonical converts the rule set to an Object-friendly form for canonical JSON.
// Optional attributes are omitted when unset.
func (rs *RuleSet) Canonical() []any {
	out := make([]any, len(rs.Rules))
	for i, r := range rs.Rules {
		m := map[string]any{
			"field": r.Field,
			"kind":  r.Kind().String(),
			"type":  string(r.Type),
		}
		if r.Limits != nil {
			m["limits"] = []any{r.Limits.Lo, r.Limits.Hi}
		}
		if r.FreqField != nil {
			m["freq_field"] = *r.FreqField
		}
		if r.FreqOp != nil {
			m["freq_op"] = *r.FreqOp
		}
		out[i] = m
	}
	return out
}

// Parallelism configures the worker pool.
type Parallelism struct {
	Enabled bool
	Workers int
}

// Config is a fully compiled rule file.
type Config struct {
	Rules       *RuleSet
	Operators   []string
	Parallelism Parallelism
}

// Publication is one generated record.
type Publication Object

// Predicate is one (field, operator, value) triple.
type Predicate struct {
	Field    string
	Operator string
	Value    Scalar
}

// List renders the predicate as a 3-element array.
func (p Predicate) List() List {
	return List{String(p.Field), String(p.Operator), p.Value}
}

// Subscription is an ordered predicate list.
type Subscription []Predicate

// List renders the subscription as an array of 3-element arrays.
func (s Subscription) List() List {
	out := make(List, len(s))
	for i, p := range s {
		out[i] = p.List()
	}
	return out
}

// Fields returns the set of fields referenced by the subscription.
func (s Subscription) Fields() map[string]bool {
	out := make(map[string]bool, len(s))
	for _, p := range s {
		out[p.Field] = true
	}
	return out
}

// Canonical converts the config to a form accepted by MarshalCanonical.
func (c *Config) Canonical() map[string]any {
	return map[string]any{
		"rules":     c.Rules.Canonical(),
		"operators": c.Operators,
		"parallel": map[string]any{
			"enabled": c.Parallelism.Enabled,
			"workers": c.Parallelism.Workers,
		},
	}
}
