package driver

import (
	"context"
	"io"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParams(t *testing.T) {
	t.Parallel()

	p := Positional(1, "two", nil)
	assert.False(t, p.IsNamed())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []any{1, "two", nil}, p.Values())

	n := Named(map[string]any{"id": 7, "name": "a"})
	assert.True(t, n.IsNamed())
	assert.Equal(t, 2, n.Len())
	assert.Equal(t, "{id: 7, name: a}", n.String())

	assert.Equal(t, 0, Params{}.Len())
}

func TestReturnsRows(t *testing.T) {
	t.Parallel()

	for stmt, want := range map[string]bool{
		"SELECT * FROM users":           true,
		"  select 1":                    true,
		"WITH t AS (SELECT 1) SELECT 1": true,
		"PRAGMA table_info(users)":      true,
		"EXPLAIN SELECT 1":              true,
		"INSERT INTO users VALUES (1)":  false,
		"UPDATE users SET name = 'a'":   false,
		"DELETE FROM users":             false,
		"CREATE TABLE t (id int)":       false,
		"values(1)":                     true,
	} {
		assert.Equal(t, want, returnsRows(stmt), stmt)
	}
}

func TestSQLConnQuery(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, name FROM users").WillReturnRows(
		sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "a").AddRow(2, "b").AddRow(3, "c"),
	)
	mock.ExpectCommit()

	cur, err := conn.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(context.Background(), "SELECT id, name FROM users", Params{}))

	desc := cur.Description()
	require.Len(t, desc, 2)
	assert.Equal(t, "id", desc[0].Name)
	assert.Equal(t, "name", desc[1].Name)
	assert.EqualValues(t, -1, cur.RowCount(), "queries report no affected-row count")

	row, err := cur.FetchOne()
	require.NoError(t, err)
	require.Len(t, row, 2)

	rest, err := cur.FetchAll()
	require.NoError(t, err)
	assert.Len(t, rest, 2)

	_, err = cur.FetchOne()
	assert.Equal(t, io.EOF, err)

	require.NoError(t, cur.Close())
	require.NoError(t, conn.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnExec(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO users").WithArgs("a").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()

	cur, err := conn.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(context.Background(), "INSERT INTO users (name) VALUES (?)", Positional("a")))
	assert.EqualValues(t, 1, cur.RowCount())
	assert.Nil(t, cur.Description())

	_, err = cur.FetchOne()
	assert.Equal(t, io.EOF, err, "DML leaves no result set behind")

	require.NoError(t, conn.Rollback())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnExecuteMany(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db)

	mock.ExpectBegin()
	for i := 0; i < 3; i++ {
		mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(int64(i+1), 1))
	}
	mock.ExpectCommit()

	cur, err := conn.Cursor()
	require.NoError(t, err)
	params := []Params{Positional("a"), Positional("b"), Positional("c")}
	require.NoError(t, cur.ExecuteMany(context.Background(), "INSERT INTO users (name) VALUES (?)", params))
	assert.EqualValues(t, 3, cur.RowCount(), "executemany accumulates affected rows")

	require.NoError(t, conn.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnAutocommit(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db, WithAutocommit())

	// No ExpectBegin: statements run directly against the database.
	mock.ExpectExec("DELETE FROM users").WillReturnResult(sqlmock.NewResult(0, 4))

	cur, err := conn.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(context.Background(), "DELETE FROM users", Params{}))
	assert.EqualValues(t, 4, cur.RowCount())

	require.NoError(t, conn.Commit(), "commit is a no-op in autocommit mode")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnFetchMany(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db, WithAutocommit())

	rows := sqlmock.NewRows([]string{"n"})
	for i := 0; i < 5; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery("SELECT n FROM seq").WillReturnRows(rows)

	cur, err := conn.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(context.Background(), "SELECT n FROM seq", Params{}))

	cur.SetArraySize(2)
	assert.Equal(t, 2, cur.ArraySize())

	batch, err := cur.FetchMany(0)
	require.NoError(t, err)
	assert.Len(t, batch, 2, "zero size falls back to the array size")

	batch, err = cur.FetchMany(10)
	require.NoError(t, err)
	assert.Len(t, batch, 3, "a short batch signals exhaustion")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLConnClose(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	conn := NewSQLConn(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO t").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectRollback()
	mock.ExpectClose()

	cur, err := conn.Cursor()
	require.NoError(t, err)
	require.NoError(t, cur.Execute(context.Background(), "INSERT INTO t VALUES (1)", Params{}))

	// Close rolls back the pending implicit transaction.
	require.NoError(t, conn.Close())
	_, err = conn.Cursor()
	assert.Error(t, err)
	require.NoError(t, conn.Close(), "double close is harmless")
	require.NoError(t, mock.ExpectationsWereMet())
}
