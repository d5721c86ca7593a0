// Package seam is the contract layer of a pluggable relational-database
// abstraction framework. It defines the seams between a backend-agnostic
// runtime and per-backend dialect implementations: the dialect contract,
// the driver-level connection and cursor protocol, typed schema-reflection
// results, per-statement execution state, engine-construction plugins, and
// an adapter for asynchronous drivers.
//
// The root package holds the shared error taxonomy. Behavior lives in the
// subpackages:
//
//   - [github.com/seamdb/seam/driver]: driver-level Conn/Cursor protocol
//   - [github.com/seamdb/seam/dburl]: connection URL parsing and rewriting
//   - [github.com/seamdb/seam/dialect]: the Dialect contract and registry
//   - [github.com/seamdb/seam/inspect]: schema reflection results and Inspector
//   - [github.com/seamdb/seam/engine]: engine construction, plugins, execution
//   - [github.com/seamdb/seam/async]: sync facade over asynchronous drivers
//   - [github.com/seamdb/seam/dialecttest]: conformance suite for dialect authors
//
// # Error Conventions
//
// Optional dialect capabilities signal absence with [ErrUnsupported];
// callers check it with [IsUnsupported] and treat it as "feature absent",
// not as a failure. Driver-level errors are always wrapped in a
// [StatementError] before they reach application code, and errors
// classified as connection loss are additionally wrapped in a
// [DisconnectError].
//
//	cols, err := refl.Columns(ctx, conn, "users", "")
//	switch {
//	case seam.IsUnsupported(err):
//	    // backend cannot reflect columns; proceed without them
//	case err != nil:
//	    return err
//	}
package seam
