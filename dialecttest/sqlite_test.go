package dialecttest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/inspect"
)

func TestSQLiteConformance(t *testing.T) {
	Run(t, Config{
		Dialect:   NewSQLiteDialect(),
		URL:       "sqlite://",
		Reflector: NewSQLiteReflector(),
		Setup: []string{
			`CREATE TABLE suite_users (
				id INTEGER PRIMARY KEY,
				name VARCHAR(30) NOT NULL,
				balance NUMERIC(10,2) DEFAULT 0,
				upper_name TEXT GENERATED ALWAYS AS (upper(name)) STORED
			)`,
			`INSERT INTO suite_users (id, name) VALUES (1, 'ada')`,
		},
		Table: "suite_users",
	})
}

// openFixture connects an in-memory database and applies statements.
func openFixture(t *testing.T, stmts ...string) driver.Conn {
	t.Helper()
	d := NewSQLiteDialect()
	conn, err := d.Connect(context.Background(), driver.ConnectArgs{
		Opts: map[string]any{"database": ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.CloseConn(conn) })
	for _, stmt := range stmts {
		require.NoError(t, execStmt(context.Background(), conn, stmt))
	}
	return conn
}

func TestSQLiteReflectColumns(t *testing.T) {
	t.Parallel()

	conn := openFixture(t,
		`CREATE TABLE articles (
			id INTEGER PRIMARY KEY,
			title VARCHAR(200) NOT NULL,
			price NUMERIC(10,2) DEFAULT 0,
			summary TEXT GENERATED ALWAYS AS (substr(title, 1, 10)) VIRTUAL
		)`,
	)
	r := NewSQLiteReflector()
	ctx := context.Background()

	cols, err := r.Columns(ctx, conn, "articles", "")
	require.NoError(t, err)
	require.Len(t, cols, 4)

	byName := map[string]inspect.Column{}
	for _, col := range cols {
		byName[col.Name] = col
	}

	title := byName["title"]
	assert.Equal(t, "VARCHAR", title.Type.Name)
	assert.Equal(t, int64(200), title.Type.Length)
	assert.False(t, title.Nullable)

	price := byName["price"]
	assert.Equal(t, int64(10), price.Type.Precision)
	assert.Equal(t, int64(2), price.Type.Scale)
	assert.Equal(t, "0", price.Default)

	summary := byName["summary"]
	require.NotNil(t, summary.Computed)
	assert.False(t, summary.Computed.Persisted)
	assert.Empty(t, summary.Default, "computed columns carry no default")
}

func TestSQLiteReflectConstraints(t *testing.T) {
	t.Parallel()

	conn := openFixture(t,
		`CREATE TABLE authors (id INTEGER PRIMARY KEY, email TEXT UNIQUE)`,
		`CREATE TABLE books (
			id INTEGER PRIMARY KEY,
			author_id INTEGER NOT NULL REFERENCES authors (id),
			title TEXT NOT NULL
		)`,
		`CREATE INDEX books_title_idx ON books (title)`,
	)
	r := NewSQLiteReflector()
	ctx := context.Background()

	pk, err := r.PrimaryKeyConstraint(ctx, conn, "books", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id"}, pk.Columns)

	fks, err := r.ForeignKeys(ctx, conn, "books", "")
	require.NoError(t, err)
	require.Len(t, fks, 1)
	assert.Equal(t, "authors", fks[0].ReferredTable)
	assert.Equal(t, []string{"author_id"}, fks[0].Columns)
	assert.Equal(t, []string{"id"}, fks[0].ReferredColumns)

	idxs, err := r.Indexes(ctx, conn, "books", "")
	require.NoError(t, err)
	require.Len(t, idxs, 1)
	assert.Equal(t, "books_title_idx", *idxs[0].Name)
	assert.Equal(t, []string{"title"}, idxs[0].Columns)
	assert.False(t, idxs[0].Unique)

	has, err := r.HasIndex(ctx, conn, "books", "books_title_idx", "")
	require.NoError(t, err)
	assert.True(t, has)

	uniques, err := r.UniqueConstraints(ctx, conn, "authors", "")
	require.NoError(t, err)
	require.Len(t, uniques, 1)
	assert.Equal(t, []string{"email"}, uniques[0].Columns)
}

func TestSQLiteReflectViews(t *testing.T) {
	t.Parallel()

	conn := openFixture(t,
		`CREATE TABLE points (x INTEGER, y INTEGER)`,
		`CREATE VIEW points_sum AS SELECT x + y AS total FROM points`,
	)
	r := NewSQLiteReflector()
	ctx := context.Background()

	views, err := r.ViewNames(ctx, conn, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"points_sum"}, views)

	def, err := r.ViewDefinition(ctx, conn, "points_sum", "")
	require.NoError(t, err)
	assert.Contains(t, def, "SELECT x + y")

	tables, err := r.TableNames(ctx, conn, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"points"}, tables)
}

func TestSQLiteIsolation(t *testing.T) {
	t.Parallel()

	conn := openFixture(t)
	d := NewSQLiteDialect()
	ctx := context.Background()

	level, err := d.GetIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, dialect.LevelSerializable, level)

	require.NoError(t, dialect.SetIsolation(ctx, d, conn, "read uncommitted"))
	level, err = d.GetIsolationLevel(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, dialect.LevelReadUncommitted, level)
}

func TestSQLiteTwoPhase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	d := NewSQLiteDialect()
	conn, err := d.Connect(ctx, driver.ConnectArgs{
		Opts: map[string]any{"database": ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { d.CloseConn(conn) })

	xid := d.CreateXID()
	require.NoError(t, d.BeginTwoPhase(ctx, conn, xid))
	require.NoError(t, execStmt(ctx, conn, "CREATE TABLE ledger (n INTEGER)"))
	require.NoError(t, execStmt(ctx, conn, "INSERT INTO ledger VALUES (1)"))

	// Committing as prepared before Prepare ran must be refused.
	err = d.CommitTwoPhase(ctx, conn, xid, dialect.TwoPhaseOptions{Prepared: true})
	require.Error(t, err)

	require.NoError(t, d.PrepareTwoPhase(ctx, conn, xid))
	pending, err := d.RecoverTwoPhase(ctx, conn)
	require.NoError(t, err)
	assert.Equal(t, []string{xid}, pending)

	require.NoError(t, d.CommitTwoPhase(ctx, conn, xid, dialect.TwoPhaseOptions{Prepared: true}))
	pending, err = d.RecoverTwoPhase(ctx, conn)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// Rolled-back work disappears; the committed row stays.
	xid = d.CreateXID()
	require.NoError(t, d.BeginTwoPhase(ctx, conn, xid))
	require.NoError(t, execStmt(ctx, conn, "INSERT INTO ledger VALUES (2)"))
	require.NoError(t, d.RollbackTwoPhase(ctx, conn, xid, dialect.TwoPhaseOptions{}))

	rows, err := queryAll(ctx, conn, "SELECT count(*) FROM ledger", driver.Positional())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 1, asInt(rows[0][0]))
}

func TestParseSQLiteType(t *testing.T) {
	t.Parallel()

	for decl, want := range map[string]inspect.TypeDescriptor{
		"INTEGER":        {Name: "INTEGER"},
		"VARCHAR(30)":    {Name: "VARCHAR", Length: 30},
		"NUMERIC(10,2)":  {Name: "NUMERIC", Precision: 10, Scale: 2},
		"NUMERIC(10, 2)": {Name: "NUMERIC", Precision: 10, Scale: 2},
		"TEXT(banana)":   {Name: "TEXT(banana)"},
	} {
		assert.Equal(t, want, parseSQLiteType(decl), "decl %q", decl)
	}
}
