package dialect_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
)

// fakeConn is a minimal driver.Conn for contract tests.
type fakeConn struct {
	committed  int
	rolledBack int
	closed     bool
}

func (c *fakeConn) Cursor() (driver.Cursor, error) { return nil, errors.New("no cursor") }
func (c *fakeConn) Commit() error                  { c.committed++; return nil }
func (c *fakeConn) Rollback() error                { c.rolledBack++; return nil }
func (c *fakeConn) Close() error                   { c.closed = true; return nil }

// fakeDialect is the reference test dialect. It layers optional
// capabilities onto the embedded defaults.
type fakeDialect struct {
	dialect.DefaultExecutor
	dialect.BaseTxController

	name     string
	level    string
	values   []string
	hookFrom string // records which connect hook was consulted
}

func (d *fakeDialect) Name() string       { return d.name }
func (d *fakeDialect) DriverName() string { return "fake" }

func (d *fakeDialect) Capabilities() dialect.Capabilities {
	return dialect.Capabilities{
		Paramstyle:           dialect.StyleQmark,
		MaxIdentifierLength:  63,
		SupportsSaneRowCount: true,
	}
}

func (d *fakeDialect) CreateConnectArgs(u *dburl.URL) (driver.ConnectArgs, error) {
	return driver.ConnectArgs{Opts: u.TranslateConnectArgs(nil)}, nil
}

func (d *fakeDialect) Connect(context.Context, driver.ConnectArgs) (driver.Conn, error) {
	return &fakeConn{}, nil
}

func (d *fakeDialect) IsDisconnect(err error, _ driver.Conn, _ driver.Cursor) bool {
	return err != nil && err.Error() == "connection reset by peer"
}

func (d *fakeDialect) GetIsolationLevel(context.Context, driver.Conn) (string, error) {
	if d.level == "" {
		return dialect.LevelReadCommitted, nil
	}
	return d.level, nil
}

func (d *fakeDialect) SetIsolationLevel(_ context.Context, _ driver.Conn, level string) error {
	d.level = level
	return nil
}

func (d *fakeDialect) ResetIsolationLevel(ctx context.Context, conn driver.Conn) error {
	d.level = ""
	return nil
}

func (d *fakeDialect) DefaultIsolationLevel(context.Context, driver.Conn) (string, error) {
	return dialect.LevelReadCommitted, nil
}

func (d *fakeDialect) IsolationLevelValues(context.Context, driver.Conn) ([]string, error) {
	if d.values == nil {
		return nil, seam.Unsupportedf("isolation level values")
	}
	return d.values, nil
}

func (d *fakeDialect) OnConnect() func(context.Context, driver.Conn) error {
	return func(context.Context, driver.Conn) error {
		d.hookFrom = "plain"
		return nil
	}
}

var _ dialect.Dialect = (*fakeDialect)(nil)
var _ dialect.IsolationLeveler = (*fakeDialect)(nil)
var _ dialect.IsolationValuer = (*fakeDialect)(nil)

func TestParamstyle(t *testing.T) {
	t.Parallel()

	assert.True(t, dialect.StyleQmark.Positional())
	assert.True(t, dialect.StyleNumeric.Positional())
	assert.True(t, dialect.StyleFormat.Positional())
	assert.False(t, dialect.StyleNamed.Positional())
	assert.False(t, dialect.StylePyformat.Positional())
}

func TestBindTypingString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "none", dialect.BindNone.String())
	assert.Equal(t, "setinputsizes", dialect.BindSetInputSizes.String())
	assert.Equal(t, "render_casts", dialect.BindRenderCasts.String())
}

func TestBaseTxController(t *testing.T) {
	t.Parallel()

	d := &fakeDialect{name: "fake"}
	conn := &fakeConn{}
	ctx := context.Background()

	require.NoError(t, d.Begin(ctx, conn), "begin is implicit")
	require.NoError(t, d.Commit(conn))
	require.NoError(t, d.Rollback(conn))
	require.NoError(t, d.CloseConn(conn))
	assert.Equal(t, 1, conn.committed)
	assert.Equal(t, 1, conn.rolledBack)
	assert.True(t, conn.closed)
}

func TestConnectHook(t *testing.T) {
	t.Parallel()

	u, err := dburl.Parse("fake://localhost/db")
	require.NoError(t, err)

	d := &fakeDialect{name: "fake"}
	hook := dialect.ConnectHook(d, u)
	require.NotNil(t, hook)
	require.NoError(t, hook(context.Background(), &fakeConn{}))
	assert.Equal(t, "plain", d.hookFrom)

	// The URL-aware hook wins when both are implemented.
	du := &urlHookDialect{fakeDialect: fakeDialect{name: "fake"}}
	hook = dialect.ConnectHook(du, u)
	require.NotNil(t, hook)
	require.NoError(t, hook(context.Background(), &fakeConn{}))
	assert.Equal(t, "url", du.hookFrom)

	// No hook declared at all.
	assert.Nil(t, dialect.ConnectHook(&bareDialect{fakeDialect{name: "fake"}}, u))
}

// urlHookDialect implements both connect hook variants.
type urlHookDialect struct {
	fakeDialect
}

func (d *urlHookDialect) OnConnectURL(*dburl.URL) func(context.Context, driver.Conn) error {
	return func(context.Context, driver.Conn) error {
		d.hookFrom = "url"
		return nil
	}
}

// bareDialect hides the connect hook of the embedded fake.
type bareDialect struct {
	fakeDialect
}

func (d *bareDialect) OnConnect() {} // shadows ConnectHooker with a non-matching signature
