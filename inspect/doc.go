// Package inspect defines the typed results of schema reflection and the
// Reflector contract that dialects implement to produce them.
//
// Reflection queries a live database for its existing schema metadata:
// tables, columns, constraints, indexes, views and sequences. Each call
// returns a fresh immutable snapshot; the structures carry no connection
// state and can be retained freely.
//
// # Optional Fields
//
// Backends differ in what they can report. Optional fields are pointers
// and are nil when the backend does not provide them, most notably
// constraint names, which many backends leave unnamed. Column-name lists
// are always present and ordered left to right as defined in the backend
// schema.
//
// # Feature Absence
//
// A dialect that cannot reflect a particular object kind (comments,
// sequences, check constraints, ...) returns seam.ErrUnsupported from the
// corresponding Reflector method. Callers treat this as "feature absent",
// not as a failure; the [Inspector] does exactly that when aggregating
// per-table metadata.
package inspect
