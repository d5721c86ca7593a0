package engine

import (
	"github.com/seamdb/seam"
	"github.com/seamdb/seam/driver"
)

// ExceptionContext is the snapshot of an in-flight execution error. It
// is constructed once when a driver-level error is intercepted and
// handed to the error handlers in registration order; handlers may
// overwrite IsDisconnect, InvalidatePool and Chained before the
// snapshot is consumed.
type ExceptionContext struct {
	// Conn is the connection in use during the failure, nil when the
	// failure occurred before one existed.
	Conn driver.Conn

	// Engine is the owning engine.
	Engine *Engine

	// Cursor is the live cursor, if any.
	Cursor driver.Cursor

	// Statement is the statement text being executed, if any.
	Statement string

	// Params are the parameters being bound, if any. Empty when the
	// engine hides parameters.
	Params driver.Params

	// Original is the raw driver-level error.
	Original error

	// Wrapped is the framework wrapper around Original, a
	// seam.DisconnectError or seam.StatementError.
	Wrapped error

	// Chained is the error that will propagate to the caller. Handlers
	// may replace it.
	Chained error

	// ExecCtx is the execution context in flight, if any.
	ExecCtx ExecContext

	// IsDisconnect reports whether the error was classified as
	// connection loss. Handlers may overwrite the classification.
	IsDisconnect bool

	// InvalidatePool scopes pool invalidation on disconnect: true
	// invalidates the whole pool, false only the faulting connection.
	// Defaults to true.
	InvalidatePool bool
}

// ErrorHandler inspects and optionally mutates an exception snapshot.
// Returning true suppresses propagation entirely.
type ErrorHandler func(ec *ExceptionContext) (suppress bool)

// handleError wraps a driver-level error, runs the handler chain and
// notifies invalidation observers on disconnect. It returns the error
// to propagate, or nil when a handler suppressed it.
func (e *Engine) handleError(err error, conn driver.Conn, xc ExecContext) error {
	ctx := &ExceptionContext{
		Conn:           conn,
		Engine:         e,
		Original:       err,
		ExecCtx:        xc,
		InvalidatePool: true,
	}
	var cur driver.Cursor
	if xc != nil {
		cur = xc.Cursor()
		ctx.Cursor = cur
		ctx.Statement = xc.Statement()
		if !e.hideParams {
			ctx.Params = xc.Params()
		}
	}
	ctx.IsDisconnect = e.dialect.IsDisconnect(err, conn, cur)
	if ctx.IsDisconnect {
		ctx.Wrapped = seam.NewDisconnectError(err)
	} else {
		ctx.Wrapped = seam.NewStatementError(ctx.Statement, ctx.Params, err)
	}
	ctx.Chained = ctx.Wrapped

	suppressed := false
	for _, h := range e.handlers {
		if h(ctx) {
			suppressed = true
		}
	}
	if ctx.IsDisconnect {
		for _, inv := range e.invalidators {
			inv(conn, ctx.InvalidatePool)
		}
		e.logger.Warn("connection invalidated",
			"whole_pool", ctx.InvalidatePool, "error", err)
	}
	if suppressed {
		return nil
	}
	return ctx.Chained
}
