package dialect

import (
	"context"

	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/driver"
)

// Conventional backend names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// Dialect is the behavior contract for one database/driver pairing.
// Implementations are scoped to a single engine and are read-only after
// construction; per-server discoveries belong in the SessionState
// returned by an Initializer, not on the dialect itself.
type Dialect interface {
	// Name is the backend-neutral identifying name, e.g. "postgres".
	Name() string

	// DriverName identifies the concrete driver, e.g. "pgx".
	DriverName() string

	// Capabilities returns the immutable capability descriptor.
	Capabilities() Capabilities

	// CreateConnectArgs translates a parsed connection URL into
	// driver-native connect arguments.
	CreateConnectArgs(u *dburl.URL) (driver.ConnectArgs, error)

	// Connect establishes a new physical connection from the arguments
	// produced by CreateConnectArgs.
	Connect(ctx context.Context, args driver.ConnectArgs) (driver.Conn, error)

	// Begin starts a transaction on the connection. Drivers with
	// implicit transactions implement this as a no-op.
	Begin(ctx context.Context, conn driver.Conn) error

	// Commit wraps the driver connection's commit primitive.
	Commit(conn driver.Conn) error

	// Rollback wraps the driver connection's rollback primitive.
	Rollback(conn driver.Conn) error

	// CloseConn wraps the driver connection's close primitive.
	CloseConn(conn driver.Conn) error

	// Execute issues a single statement against the cursor.
	Execute(ctx context.Context, cur driver.Cursor, statement string, params driver.Params) error

	// ExecuteMany issues the statement once per parameter collection.
	ExecuteMany(ctx context.Context, cur driver.Cursor, statement string, params []driver.Params) error

	// ExecuteNoParams issues a statement without sending a parameter
	// collection at all, for drivers that distinguish the two forms.
	ExecuteNoParams(ctx context.Context, cur driver.Cursor, statement string) error

	// IsDisconnect classifies whether a driver error indicates a dead
	// connection. conn and cur may be nil when the failure occurred
	// before they existed.
	IsDisconnect(err error, conn driver.Conn, cur driver.Cursor) bool
}

// SessionState holds per-server facts discovered on the first
// connection of an engine. It is populated once by Initialize and passed
// around explicitly; the dialect itself never mutates lazily.
type SessionState struct {
	// ServerVersion is the backend version, most significant part first.
	ServerVersion []int

	// DefaultSchema is the schema selected by default on connections.
	DefaultSchema string
}

// Initializer is implemented by dialects that discover session state on
// first connect.
type Initializer interface {
	// Initialize inspects a newly established connection and returns
	// the engine-wide session state. Called exactly once per engine.
	Initialize(ctx context.Context, conn driver.Conn) (SessionState, error)
}

// ConnectHooker is implemented by dialects that need a one-shot
// initializer run on every new physical connection.
type ConnectHooker interface {
	// OnConnect returns the per-connection initializer, or nil when no
	// setup is needed.
	OnConnect() func(ctx context.Context, conn driver.Conn) error
}

// URLConnectHooker supersedes ConnectHooker for dialects whose
// per-connection setup depends on the connection URL. When a dialect
// implements both, only OnConnectURL is consulted.
type URLConnectHooker interface {
	// OnConnectURL returns the per-connection initializer for the given
	// URL, or nil when no setup is needed.
	OnConnectURL(u *dburl.URL) func(ctx context.Context, conn driver.Conn) error
}

// ConnectHook resolves the effective per-connection initializer of d,
// preferring the URL-aware hook. It returns nil when d declares none.
func ConnectHook(d Dialect, u *dburl.URL) func(ctx context.Context, conn driver.Conn) error {
	if h, ok := d.(URLConnectHooker); ok {
		return h.OnConnectURL(u)
	}
	if h, ok := d.(ConnectHooker); ok {
		return h.OnConnect()
	}
	return nil
}

// NameNormalizer is implemented by dialects for backends that treat
// unquoted identifiers case-insensitively and store them in a fixed
// case. It is consulted only when Capabilities.RequiresNameNormalize is
// set.
type NameNormalizer interface {
	// NormalizeName converts a backend-cased identifier to the
	// framework's lowercase convention.
	NormalizeName(name string) string

	// DenormalizeName converts an all-lowercase identifier to the
	// backend's case-insensitive form.
	DenormalizeName(name string) string
}

// Savepointer is implemented by dialects that support savepoints.
type Savepointer interface {
	Savepoint(ctx context.Context, conn driver.Conn, name string) error
	RollbackToSavepoint(ctx context.Context, conn driver.Conn, name string) error
	ReleaseSavepoint(ctx context.Context, conn driver.Conn, name string) error
}

// TypeHint is one parameter type hint passed to InputSizer, in
// statement parameter order.
type TypeHint struct {
	// Param is the rendered parameter key in the statement.
	Param string

	// DBType is the driver-level type object.
	DBType any

	// TypeName is the framework-level type name.
	TypeName string
}

// InputSizer is implemented by dialects whose BindTyping is
// BindSetInputSizes. It applies driver-level type hints to the cursor
// before execution.
type InputSizer interface {
	SetInputSizes(ctx context.Context, cur driver.Cursor, hints []TypeHint) error
}

// DriverConnector is implemented by dialects that adapt a non-standard
// driver, such as an asynchronous one, behind the Conn protocol.
type DriverConnector interface {
	// DriverConnection returns the connection object as produced by the
	// external driver package. For conventional drivers this is conn
	// itself.
	DriverConnection(conn driver.Conn) any
}

// DefaultExecutor provides the standard execution hooks: statements go
// straight to the cursor. Dialects embed it and override only what
// their driver needs.
type DefaultExecutor struct{}

// Execute implements Dialect.Execute.
func (DefaultExecutor) Execute(ctx context.Context, cur driver.Cursor, statement string, params driver.Params) error {
	return cur.Execute(ctx, statement, params)
}

// ExecuteMany implements Dialect.ExecuteMany.
func (DefaultExecutor) ExecuteMany(ctx context.Context, cur driver.Cursor, statement string, params []driver.Params) error {
	return cur.ExecuteMany(ctx, statement, params)
}

// ExecuteNoParams implements Dialect.ExecuteNoParams.
func (DefaultExecutor) ExecuteNoParams(ctx context.Context, cur driver.Cursor, statement string) error {
	return cur.Execute(ctx, statement, driver.Params{})
}

// BaseTxController provides the standard transaction hooks over the
// driver connection primitives. Begin is a no-op: the protocol's
// transactions are implicit.
type BaseTxController struct{}

// Begin implements Dialect.Begin.
func (BaseTxController) Begin(context.Context, driver.Conn) error { return nil }

// Commit implements Dialect.Commit.
func (BaseTxController) Commit(conn driver.Conn) error { return conn.Commit() }

// Rollback implements Dialect.Rollback.
func (BaseTxController) Rollback(conn driver.Conn) error { return conn.Rollback() }

// CloseConn implements Dialect.CloseConn.
func (BaseTxController) CloseConn(conn driver.Conn) error { return conn.Close() }
