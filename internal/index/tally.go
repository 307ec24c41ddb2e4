package index

import "github.com/roach88/pubsubgen/internal/ir"

// Tally counts occurrences of scalar values for one field.
type Tally struct {
	order  []ir.Scalar
	counts map[ir.Scalar]int
}

// NewTally creates an empty tally.
func NewTally() *Tally {
	return &Tally{counts: make(map[ir.Scalar]int)}
}

// Add increments the count of v by n, registering v on first sight.
func (t *Tally) Add(v ir.Scalar, n int) {
	if _, ok := t.counts[v]; !ok {
		t.order = append(t.order, v)
	}
	t.counts[v] += n
}

// Count returns the current count of v.
func (t *Tally) Count(v ir.Scalar) int {
	return t.counts[v]
}

// Values returns the values in first-seen order.
func (t *Tally) Values() []ir.Scalar {
	out := make([]ir.Scalar, len(t.order))
	copy(out, t.order)
	return out
}

// Len returns the number of distinct values.
func (t *Tally) Len() int {
	return len(t.order)
}

// Total returns the sum of all counts.
func (t *Tally) Total() int {
	sum := 0
	for _, c := range t.counts {
		sum += c
	}
	return sum
}

// Max returns the value with the highest positive count.
// Ties go to the value seen first. ok is false when every count is zero.
func (t *Tally) Max() (v ir.Scalar, count int, ok bool) {
	for _, candidate := range t.order {
		if c := t.counts[candidate]; c > count {
			v, count, ok = candidate, c, true
		}
	}
	return v, count, ok
}

// Take selects the most frequent value and decrements its count by one.
func (t *Tally) Take() (ir.Scalar, bool) {
	v, _, ok := t.Max()
	if !ok {
		return nil, false
	}
	t.counts[v]--
	return v, true
}

// Clone returns an independent copy.
func (t *Tally) Clone() *Tally {
	c := &Tally{
		order:  make([]ir.Scalar, len(t.order)),
		counts: make(map[ir.Scalar]int, len(t.counts)),
	}
	copy(c.order, t.order)
	for k, v := range t.counts {
		c.counts[k] = v
	}
	return c
}
