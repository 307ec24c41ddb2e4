package index

import (
	"slices"

	"github.com/roach88/pubsubgen/internal/ir"
)

// FrequencyIndex tallies observed publication values per field and keeps the
// generated timestamps in generation order.
type FrequencyIndex struct {
	TotalPubs int
	fields    []string
	tallies   map[string]*Tally
	Datetimes []string
}

// New creates an empty index.
func New() *FrequencyIndex {
	return &FrequencyIndex{tallies: make(map[string]*Tally)}
}

// Observe records one occurrence of v for field.
func (idx *FrequencyIndex) Observe(field string, v ir.Scalar) {
	idx.tally(field).Add(v, 1)
}

// AddCount adds n occurrences of v for field. Used when restoring a stored index.
func (idx *FrequencyIndex) AddCount(field string, v ir.Scalar, n int) {
	idx.tally(field).Add(v, n)
}

// ObserveDatetime appends a generated timestamp. Timestamps are not counted by value.
func (idx *FrequencyIndex) ObserveDatetime(ts string) {
	idx.Datetimes = append(idx.Datetimes, ts)
}

func (idx *FrequencyIndex) tally(field string) *Tally {
	t, ok := idx.tallies[field]
	if !ok {
		t = NewTally()
		idx.tallies[field] = t
		idx.fields = append(idx.fields, field)
	}
	return t
}

// Tally returns the tally for a field, or nil when nothing was observed.
func (idx *FrequencyIndex) Tally(field string) *Tally {
	return idx.tallies[field]
}

// Fields returns the counted fields in first-seen order.
func (idx *FrequencyIndex) Fields() []string {
	out := make([]string, len(idx.fields))
	copy(out, idx.fields)
	return out
}

// Count returns the current count of v for field.
func (idx *FrequencyIndex) Count(field string, v ir.Scalar) int {
	t := idx.tallies[field]
	if t == nil {
		return 0
	}
	return t.Count(v)
}

// Take selects the most frequent remaining value of field and decrements it.
// ok is false when the field has no remaining occurrences.
func (idx *FrequencyIndex) Take(field string) (ir.Scalar, bool) {
	t := idx.tallies[field]
	if t == nil {
		return nil, false
	}
	return t.Take()
}

// Available reports whether field has any remaining occurrences.
func (idx *FrequencyIndex) Available(field string) bool {
	t := idx.tallies[field]
	if t == nil {
		return false
	}
	_, _, ok := t.Max()
	return ok
}

// Clone returns a deep copy. Subscription workers each decrement their own clone.
func (idx *FrequencyIndex) Clone() *FrequencyIndex {
	c := &FrequencyIndex{
		TotalPubs: idx.TotalPubs,
		fields:    make([]string, len(idx.fields)),
		tallies:   make(map[string]*Tally, len(idx.tallies)),
		Datetimes: make([]string, len(idx.Datetimes)),
	}
	copy(c.fields, idx.fields)
	copy(c.Datetimes, idx.Datetimes)
	for f, t := range idx.tallies {
		c.tallies[f] = t.Clone()
	}
	return c
}

// Merge combines partial indices into a new one.
//
// TotalPubs and every per-value count are summed; timestamps are concatenated in
// argument order, each input's own order preserved. Inputs are not modified.
// Field and value order follow first appearance across the inputs in argument order.
func Merge(parts ...*FrequencyIndex) *FrequencyIndex {
	merged := New()
	for _, p := range parts {
		if p == nil {
			continue
		}
		merged.TotalPubs += p.TotalPubs
		for _, f := range p.fields {
			src := p.tallies[f]
			dst := merged.tally(f)
			for _, v := range src.order {
				dst.Add(v, src.counts[v])
			}
		}
		merged.Datetimes = append(merged.Datetimes, p.Datetimes...)
	}
	return merged
}

// Counts returns a plain snapshot of the per-field counts, for comparisons and reports.
func (idx *FrequencyIndex) Counts() map[string]map[ir.Scalar]int {
	out := make(map[string]map[ir.Scalar]int, len(idx.tallies))
	for f, t := range idx.tallies {
		m := make(map[ir.Scalar]int, len(t.counts))
		for k, v := range t.counts {
			m[k] = v
		}
		out[f] = m
	}
	return out
}

// Top returns up to n values of field ordered by count descending, ties by first-seen order.
func (idx *FrequencyIndex) Top(field string, n int) []Entry {
	t := idx.tallies[field]
	if t == nil || n <= 0 {
		return nil
	}
	entries := make([]Entry, 0, len(t.order))
	for _, v := range t.order {
		entries = append(entries, Entry{Value: v, Count: t.counts[v]})
	}
	// Stable: equal counts keep first-seen order.
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Count - a.Count
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}

// Entry is one (value, count) pair.
type Entry struct {
	Value ir.Scalar
	Count int
}
