// Package dialect defines the contract a database backend implementation
// must satisfy.
//
// A Dialect encapsulates every backend-specific behavior (connection
// argument construction, statement execution, transaction control)
// behind a fixed method set so the rest of the framework stays
// backend-agnostic. One Dialect instance serves one engine; its
// capability descriptor is an immutable value and its per-server session
// state is populated exactly once on first connection.
//
// # Mandatory Core
//
// The Dialect interface itself lists only the operations every backend
// must provide:
//
//	type Dialect interface {
//	    Name() string
//	    DriverName() string
//	    Capabilities() Capabilities
//	    CreateConnectArgs(u *dburl.URL) (driver.ConnectArgs, error)
//	    Connect(ctx context.Context, args driver.ConnectArgs) (driver.Conn, error)
//	    Begin(ctx context.Context, conn driver.Conn) error
//	    Commit(conn driver.Conn) error
//	    Rollback(conn driver.Conn) error
//	    CloseConn(conn driver.Conn) error
//	    Execute(ctx context.Context, cur driver.Cursor, statement string, params driver.Params) error
//	    ExecuteMany(ctx context.Context, cur driver.Cursor, statement string, params []driver.Params) error
//	    ExecuteNoParams(ctx context.Context, cur driver.Cursor, statement string) error
//	    IsDisconnect(err error, conn driver.Conn, cur driver.Cursor) bool
//	}
//
// [DefaultExecutor] and [BaseTxController] provide the usual
// implementations of the execution and transaction groups for embedding.
//
// # Optional Capabilities
//
// Everything else is an optional capability, discovered by type
// assertion rather than by calling a hook and catching a failure:
//
//   - [Initializer]: first-connection session state (server version,
//     default schema)
//   - [ConnectHooker] / [URLConnectHooker]: one-shot per-connection setup
//   - inspect.Reflector: schema reflection
//   - [IsolationLeveler] / [IsolationValuer]: transaction isolation
//   - [TwoPhaser]: two-phase commit
//   - [Savepointer]: savepoints
//   - [NameNormalizer]: case-insensitive identifier normalization
//   - [InputSizer]: driver-level parameter type hints
//   - [DriverConnector]: unwrapping adapted connections
//
// Within a capability interface, per-feature gaps (a backend that
// reflects columns but not comments, say) are reported with
// seam.ErrUnsupported.
//
// # Registration
//
// Dialects register under their backend name, optionally qualified by a
// driver name:
//
//	func init() {
//	    dialect.Register("duckling", func() dialect.Dialect { return &Duckling{} })
//	}
//
// [Lookup] resolves a connection URL to a registered dialect, honoring
// the [URLResolver] and [AsyncURLResolver] redirection hooks for dialect
// families that select a concrete implementation from the URL.
package dialect
