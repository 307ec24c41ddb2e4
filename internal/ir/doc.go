// Package ir provides the shared record and rule types for pubsubgen.
//
// This package contains type definitions and canonical serialization only.
// All other internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - numeric domains are closed integer intervals
//   - Value is sealed; Scalar values are comparable and usable as map keys
//   - Rule sets keep declaration order, which is the iteration order everywhere
//   - Output records are serialized with MarshalCanonical only
package ir
