// Package harness runs YAML generation scenarios and checks statistical
// properties of the output.
//
// A scenario names a rule file (or carries one inline), a city list, a seed,
// the record counts and a fixed clock, so every run of the same scenario
// produces the same records. Assertions then check the properties the
// generator promises:
//
//   - field_coverage: the first field_nr_gen subscriptions of every chunk carry the field
//   - predicate_bounds: every subscription has between min and max predicates
//   - city_cap: no chunk uses a city more often than it was published
//   - value_range: generated integers stay inside their limits, cities come from the list
//   - total_pubs: the index counted exactly the requested publications
//
// Tests can also compare the full output with a golden file via RunWithGolden.
package harness
