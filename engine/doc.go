// Package engine binds a resolved dialect to a connection URL and
// drives statement execution.
//
// # Construction
//
// Create parses the URL, constructs the plugins named by its repeated
// "plugin" query parameters in order, resolves the dialect through the
// registry and validates that every construction argument was consumed.
// EngineCreated hooks fire once after the engine is fully built, first
// on the dialect (on both the requested and resolved implementation
// when URL resolution redirected) and then on each plugin:
//
//	e, err := engine.Create("postgres://app@db/orders?plugin=stats",
//		engine.WithIsolationLevel("repeatable read"),
//	)
//
// # Execution lifecycle
//
// Each statement runs through an ExecContext: PreExec finalizes
// statement text and parameters, CreateCursor produces the cursor, the
// dialect's execute hook runs, PostExec settles insert bookkeeping, and
// the selected CursorStrategy turns the cursor into a Result. Driver
// errors are wrapped, classified for disconnect and passed through the
// ErrorHandler chain; a handler may replace the propagated error,
// suppress it, or narrow pool invalidation to the faulting connection.
//
// The engine does not pool connections. External pools subscribe to
// invalidation through AddInvalidator.
package engine
