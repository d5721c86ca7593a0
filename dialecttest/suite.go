// Package dialecttest is the conformance suite for dialect
// implementations. A dialect package points the suite at a scratch
// database and gets the contract-level checks for free:
//
//	func TestConformance(t *testing.T) {
//		dialecttest.Run(t, dialecttest.Config{
//			Dialect:   mydialect.New(),
//			URL:       "mybackend://test@localhost/scratch",
//			Reflector: mydialect.NewReflector(),
//			Setup: []string{
//				`CREATE TABLE suite_users (id INTEGER PRIMARY KEY, name VARCHAR(30) NOT NULL)`,
//				`INSERT INTO suite_users (id, name) VALUES (1, 'ada')`,
//			},
//			Table: "suite_users",
//		})
//	}
//
// The suite only checks behavior the dialect declares: two-phase
// checks run when the dialect implements TwoPhaser, isolation checks
// when it implements IsolationLeveler, reflection checks when a
// Reflector is configured.
package dialecttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/inspect"
)

// Config points the suite at a dialect and a scratch database it may
// freely write to.
type Config struct {
	// Dialect under test.
	Dialect dialect.Dialect

	// URL is the connection URL for the scratch database.
	URL string

	// Reflector enables the reflection checks when non-nil.
	Reflector inspect.Reflector

	// Setup statements run once per connection-opening subtest. They
	// must create Table.
	Setup []string

	// Table is the name of the table created by Setup. It must have at
	// least one column.
	Table string

	// Schema qualifies Table, "" for the backend default.
	Schema string
}

// Run executes the conformance checks as subtests.
func Run(t *testing.T, c Config) {
	t.Helper()
	require.NotNil(t, c.Dialect, "Config.Dialect is required")
	require.NotEmpty(t, c.URL, "Config.URL is required")

	t.Run("Capabilities", c.testCapabilities)
	t.Run("ConnectLifecycle", c.testConnectLifecycle)
	t.Run("ExecuteRoundTrip", c.testExecuteRoundTrip)
	t.Run("IsolationLevels", c.testIsolationLevels)
	t.Run("Savepoints", c.testSavepoints)
	t.Run("TwoPhase", c.testTwoPhase)
	t.Run("Reflection", c.testReflection)
	t.Run("TableComment", c.testTableComment)
}

// connect opens a fresh connection and registers its cleanup.
func (c Config) connect(t *testing.T) driver.Conn {
	t.Helper()
	u, err := dburl.Parse(c.URL)
	require.NoError(t, err)
	args, err := c.Dialect.CreateConnectArgs(u)
	require.NoError(t, err)
	conn, err := c.Dialect.Connect(context.Background(), args)
	require.NoError(t, err)
	t.Cleanup(func() { c.Dialect.CloseConn(conn) })
	if hook := dialect.ConnectHook(c.Dialect, u); hook != nil {
		require.NoError(t, hook(context.Background(), conn))
	}
	return conn
}

// setup opens a connection and applies the fixture statements.
func (c Config) setup(t *testing.T) driver.Conn {
	t.Helper()
	conn := c.connect(t)
	ctx := context.Background()
	for _, stmt := range c.Setup {
		cur, err := conn.Cursor()
		require.NoError(t, err)
		require.NoError(t, c.Dialect.Execute(ctx, cur, stmt, driver.Positional()), "setup: %s", stmt)
		require.NoError(t, cur.Close())
	}
	return conn
}

func (c Config) testCapabilities(t *testing.T) {
	caps := c.Dialect.Capabilities()
	assert.NotEmpty(t, caps.Paramstyle, "a dialect must declare its paramstyle")
	assert.Equal(t, caps, c.Dialect.Capabilities(), "capabilities must be stable")
	assert.NotEmpty(t, c.Dialect.Name())
	assert.NotEmpty(t, c.Dialect.DriverName())
}

func (c Config) testConnectLifecycle(t *testing.T) {
	conn := c.connect(t)
	ctx := context.Background()

	require.NoError(t, c.Dialect.Begin(ctx, conn))
	require.NoError(t, c.Dialect.Rollback(conn))
	require.NoError(t, c.Dialect.Begin(ctx, conn))
	require.NoError(t, c.Dialect.Commit(conn))

	if init, ok := c.Dialect.(dialect.Initializer); ok {
		state, err := init.Initialize(ctx, conn)
		require.NoError(t, err)
		assert.NotEmpty(t, state.ServerVersion, "initializer must discover a server version")
	}
}

func (c Config) testExecuteRoundTrip(t *testing.T) {
	if len(c.Setup) == 0 || c.Table == "" {
		t.Skip("no fixture table configured")
	}
	conn := c.setup(t)
	ctx := context.Background()

	cur, err := conn.Cursor()
	require.NoError(t, err)
	defer cur.Close()

	require.NoError(t, c.Dialect.ExecuteNoParams(ctx, cur, "SELECT * FROM "+c.qualifiedTable()))
	rows, err := cur.FetchAll()
	require.NoError(t, err)
	assert.NotNil(t, cur.Description(), "a result set must describe its columns")

	// Re-executing on the same cursor resets it.
	require.NoError(t, c.Dialect.Execute(ctx, cur, "SELECT * FROM "+c.qualifiedTable(), driver.Positional()))
	again, err := cur.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, len(rows), len(again))
}

func (c Config) testIsolationLevels(t *testing.T) {
	lv, ok := c.Dialect.(dialect.IsolationLeveler)
	if !ok {
		t.Skip("dialect does not manage isolation levels")
	}
	conn := c.connect(t)
	ctx := context.Background()

	def, err := lv.DefaultIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, dialect.NormalizeIsolationLevel(def), def,
		"default level must already be in normalized form")

	valuer, ok := c.Dialect.(dialect.IsolationValuer)
	if !ok {
		t.Skip("dialect does not advertise isolation level values")
	}
	values, err := valuer.IsolationLevelValues(ctx, conn)
	if seam.IsUnsupported(err) {
		t.Skip("isolation level values unsupported")
	}
	require.NoError(t, err)

	// Every advertised value must be accepted and read back.
	for _, level := range values {
		require.NoError(t, dialect.SetIsolation(ctx, c.Dialect, conn, level), "level %q", level)
		got, err := lv.GetIsolationLevel(ctx, conn)
		require.NoError(t, err)
		assert.Equal(t, level, got)
	}

	err = dialect.SetIsolation(ctx, c.Dialect, conn, "NOT A REAL LEVEL")
	require.Error(t, err)
	assert.True(t, seam.IsArgumentError(err), "whitelist miss must fail argument validation")

	require.NoError(t, lv.ResetIsolationLevel(ctx, conn))
	got, err := lv.GetIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func (c Config) testSavepoints(t *testing.T) {
	sp, ok := c.Dialect.(dialect.Savepointer)
	if !ok {
		t.Skip("dialect does not support savepoints")
	}
	conn := c.connect(t)
	ctx := context.Background()

	require.NoError(t, c.Dialect.Begin(ctx, conn))
	require.NoError(t, sp.Savepoint(ctx, conn, "suite_sp"))
	require.NoError(t, sp.RollbackToSavepoint(ctx, conn, "suite_sp"))
	require.NoError(t, sp.ReleaseSavepoint(ctx, conn, "suite_sp"))
	require.NoError(t, c.Dialect.Rollback(conn))
}

func (c Config) testTwoPhase(t *testing.T) {
	tp, ok := c.Dialect.(dialect.TwoPhaser)
	if !ok {
		t.Skip("dialect does not support two-phase commit")
	}
	conn := c.connect(t)
	ctx := context.Background()

	// One id drives the whole begin, prepare, commit cycle unchanged.
	xid := tp.CreateXID()
	require.NotEmpty(t, xid)
	assert.NotEqual(t, xid, tp.CreateXID(), "transaction ids must not repeat")

	require.NoError(t, tp.BeginTwoPhase(ctx, conn, xid))
	require.NoError(t, tp.PrepareTwoPhase(ctx, conn, xid))

	pending, err := tp.RecoverTwoPhase(ctx, conn)
	require.NoError(t, err)
	assert.Contains(t, pending, xid, "prepared transactions must be recoverable")

	require.NoError(t, tp.CommitTwoPhase(ctx, conn, xid, dialect.TwoPhaseOptions{Prepared: true}))

	// Rollback must accept an unprepared transaction.
	xid = tp.CreateXID()
	require.NoError(t, tp.BeginTwoPhase(ctx, conn, xid))
	require.NoError(t, tp.RollbackTwoPhase(ctx, conn, xid, dialect.TwoPhaseOptions{Prepared: false}))
}

func (c Config) testReflection(t *testing.T) {
	if c.Reflector == nil {
		t.Skip("no reflector configured")
	}
	if len(c.Setup) == 0 || c.Table == "" {
		t.Skip("no fixture table configured")
	}
	conn := c.setup(t)
	ctx := context.Background()

	ok, err := c.Reflector.HasTable(ctx, conn, c.Table, c.Schema)
	require.NoError(t, err)
	require.True(t, ok, "fixture table must be visible")

	// An existing table reflects at least one column.
	cols, err := c.Reflector.Columns(ctx, conn, c.Table, c.Schema)
	require.NoError(t, err)
	require.NotEmpty(t, cols)
	for _, col := range cols {
		assert.NotEmpty(t, col.Name)
		assert.NotEmpty(t, col.Type.Name, "reflected types are always realized")

		// A column is plain, defaulted, computed or identity, never a
		// combination.
		variants := 0
		if col.Default != "" {
			variants++
		}
		if col.Computed != nil {
			variants++
		}
		if col.Identity != nil {
			variants++
		}
		assert.LessOrEqual(t, variants, 1, "column %s", col.Name)
	}

	missing, err := c.Reflector.HasTable(ctx, conn, "suite_no_such_table", c.Schema)
	require.NoError(t, err)
	assert.False(t, missing)

	names, err := c.Reflector.TableNames(ctx, conn, c.Schema)
	if !seam.IsUnsupported(err) {
		require.NoError(t, err)
		assert.Contains(t, names, c.Table)
	}
}

func (c Config) testTableComment(t *testing.T) {
	if c.Reflector == nil {
		t.Skip("no reflector configured")
	}
	if len(c.Setup) == 0 || c.Table == "" {
		t.Skip("no fixture table configured")
	}
	conn := c.setup(t)

	comment, err := c.Reflector.TableComment(context.Background(), conn, c.Table, c.Schema)
	if seam.IsUnsupported(err) {
		return // comments are an optional capability
	}
	require.NoError(t, err)
	if comment.Text != nil {
		assert.NotEmpty(t, *comment.Text, "an absent comment is a nil Text, never an empty string")
	}
}

func (c Config) qualifiedTable() string {
	if c.Schema == "" {
		return c.Table
	}
	return c.Schema + "." + c.Table
}
