package dialecttest

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
	"github.com/seamdb/seam/inspect"
)

// SQLiteDialect is the embedded fixture dialect the conformance suite
// tests itself against. It is test tooling, not a production dialect:
// error classification and reflection cover what the suite exercises.
type SQLiteDialect struct {
	dialect.DefaultExecutor
	dialect.BaseTxController

	mu   sync.Mutex
	xids map[string]bool // xid -> prepared
}

// NewSQLiteDialect returns the fixture dialect.
func NewSQLiteDialect() *SQLiteDialect { return &SQLiteDialect{} }

func (*SQLiteDialect) Name() string       { return dialect.SQLite }
func (*SQLiteDialect) DriverName() string { return "modernc" }

func (*SQLiteDialect) Capabilities() dialect.Capabilities {
	return dialect.Capabilities{
		Paramstyle:            dialect.StyleQmark,
		BindTyping:            dialect.BindNone,
		MaxIdentifierLength:   128,
		SupportsAlter:         true,
		SupportsSaneRowCount:  true,
		SupportsDefaultValues: true,
	}
}

// CreateConnectArgs maps the URL to a database path. An empty path
// selects an in-memory database.
func (*SQLiteDialect) CreateConnectArgs(u *dburl.URL) (driver.ConnectArgs, error) {
	dsn := u.Database()
	if dsn == "" {
		dsn = ":memory:"
	}
	return driver.ConnectArgs{Opts: map[string]any{"database": dsn}}, nil
}

func (*SQLiteDialect) Connect(ctx context.Context, args driver.ConnectArgs) (driver.Conn, error) {
	dsn, _ := args.Opts["database"].(string)
	if dsn == "" {
		return nil, seam.NewArgumentError("database", fmt.Errorf("missing database path"))
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// In-memory databases vanish with their pooled connection; pin the
	// pool to one.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return driver.NewSQLConn(db), nil
}

func (*SQLiteDialect) IsDisconnect(err error, _ driver.Conn, _ driver.Cursor) bool {
	return err != nil && strings.Contains(err.Error(), "database is closed")
}

// Initialize reads the server version.
func (d *SQLiteDialect) Initialize(ctx context.Context, conn driver.Conn) (dialect.SessionState, error) {
	rows, err := queryAll(ctx, conn, "select sqlite_version()", driver.Positional())
	if err != nil {
		return dialect.SessionState{}, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return dialect.SessionState{}, fmt.Errorf("dialecttest: no version row")
	}
	var version []int
	for _, part := range strings.Split(fmt.Sprint(rows[0][0]), ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		version = append(version, n)
	}
	return dialect.SessionState{ServerVersion: version, DefaultSchema: "main"}, nil
}

// GetIsolationLevel reads the read_uncommitted pragma.
func (d *SQLiteDialect) GetIsolationLevel(ctx context.Context, conn driver.Conn) (string, error) {
	rows, err := queryAll(ctx, conn, "PRAGMA read_uncommitted", driver.Positional())
	if err != nil {
		return "", err
	}
	if len(rows) > 0 && len(rows[0]) > 0 && truthy(rows[0][0]) {
		return dialect.LevelReadUncommitted, nil
	}
	return dialect.LevelSerializable, nil
}

// SetIsolationLevel writes the read_uncommitted pragma.
func (d *SQLiteDialect) SetIsolationLevel(ctx context.Context, conn driver.Conn, level string) error {
	var value int
	switch level {
	case dialect.LevelReadUncommitted:
		value = 1
	case dialect.LevelSerializable:
		value = 0
	default:
		return seam.NewArgumentError("isolation_level", fmt.Errorf("invalid value %q", level))
	}
	return execStmt(ctx, conn, fmt.Sprintf("PRAGMA read_uncommitted = %d", value))
}

// ResetIsolationLevel reverts to the default level.
func (d *SQLiteDialect) ResetIsolationLevel(ctx context.Context, conn driver.Conn) error {
	return d.SetIsolationLevel(ctx, conn, dialect.LevelSerializable)
}

// DefaultIsolationLevel returns SERIALIZABLE.
func (*SQLiteDialect) DefaultIsolationLevel(context.Context, driver.Conn) (string, error) {
	return dialect.LevelSerializable, nil
}

// IsolationLevelValues returns the accepted levels.
func (*SQLiteDialect) IsolationLevelValues(context.Context, driver.Conn) ([]string, error) {
	return []string{dialect.LevelReadUncommitted, dialect.LevelSerializable}, nil
}

// Savepoint begins a named savepoint.
func (*SQLiteDialect) Savepoint(ctx context.Context, conn driver.Conn, name string) error {
	return execStmt(ctx, conn, "SAVEPOINT "+quoteIdent(name))
}

// RollbackToSavepoint rewinds to a named savepoint.
func (*SQLiteDialect) RollbackToSavepoint(ctx context.Context, conn driver.Conn, name string) error {
	return execStmt(ctx, conn, "ROLLBACK TO SAVEPOINT "+quoteIdent(name))
}

// ReleaseSavepoint releases a named savepoint.
func (*SQLiteDialect) ReleaseSavepoint(ctx context.Context, conn driver.Conn, name string) error {
	return execStmt(ctx, conn, "RELEASE SAVEPOINT "+quoteIdent(name))
}

// SQLite has no native two-phase commit. The fixture emulates it over
// an ordinary transaction plus an in-memory journal of transaction ids,
// which is enough surface to drive the conformance checks.

// CreateXID returns a fresh transaction id.
func (*SQLiteDialect) CreateXID() string { return dialect.NewXID() }

// BeginTwoPhase opens a transaction under the given id.
func (d *SQLiteDialect) BeginTwoPhase(ctx context.Context, conn driver.Conn, xid string) error {
	if xid == "" {
		return seam.NewArgumentError("xid", fmt.Errorf("empty transaction id"))
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.xids == nil {
		d.xids = make(map[string]bool)
	}
	if _, dup := d.xids[xid]; dup {
		return seam.NewArgumentError("xid", fmt.Errorf("transaction %q already begun", xid))
	}
	if err := d.Begin(ctx, conn); err != nil {
		return err
	}
	d.xids[xid] = false
	return nil
}

// PrepareTwoPhase marks the transaction ready to commit.
func (d *SQLiteDialect) PrepareTwoPhase(_ context.Context, _ driver.Conn, xid string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prepared, ok := d.xids[xid]
	if !ok {
		return seam.NewArgumentError("xid", fmt.Errorf("unknown transaction %q", xid))
	}
	if prepared {
		return seam.NewArgumentError("xid", fmt.Errorf("transaction %q already prepared", xid))
	}
	d.xids[xid] = true
	return nil
}

// CommitTwoPhase commits the transaction.
func (d *SQLiteDialect) CommitTwoPhase(_ context.Context, conn driver.Conn, xid string, opts dialect.TwoPhaseOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	prepared, ok := d.xids[xid]
	if !ok {
		return seam.NewArgumentError("xid", fmt.Errorf("unknown transaction %q", xid))
	}
	if opts.Prepared && !prepared {
		return seam.NewArgumentError("xid", fmt.Errorf("transaction %q was not prepared", xid))
	}
	if err := d.Commit(conn); err != nil {
		return err
	}
	delete(d.xids, xid)
	return nil
}

// RollbackTwoPhase rolls the transaction back, prepared or not.
func (d *SQLiteDialect) RollbackTwoPhase(_ context.Context, conn driver.Conn, xid string, _ dialect.TwoPhaseOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.xids[xid]; !ok {
		return seam.NewArgumentError("xid", fmt.Errorf("unknown transaction %q", xid))
	}
	if err := d.Rollback(conn); err != nil {
		return err
	}
	delete(d.xids, xid)
	return nil
}

// RecoverTwoPhase lists the prepared transaction ids, sorted.
func (d *SQLiteDialect) RecoverTwoPhase(context.Context, driver.Conn) ([]string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var pending []string
	for xid, prepared := range d.xids {
		if prepared {
			pending = append(pending, xid)
		}
	}
	sort.Strings(pending)
	return pending, nil
}

var (
	_ dialect.Dialect          = (*SQLiteDialect)(nil)
	_ dialect.Initializer      = (*SQLiteDialect)(nil)
	_ dialect.IsolationLeveler = (*SQLiteDialect)(nil)
	_ dialect.IsolationValuer  = (*SQLiteDialect)(nil)
	_ dialect.Savepointer      = (*SQLiteDialect)(nil)
	_ dialect.TwoPhaser        = (*SQLiteDialect)(nil)
)

// SQLiteReflector reflects schema metadata through SQLite pragmas.
// Comments, check constraints and sequences are not modeled by the
// backend and report unsupported through the embedded base.
type SQLiteReflector struct {
	inspect.BaseReflector
}

// NewSQLiteReflector returns the fixture reflector.
func NewSQLiteReflector() *SQLiteReflector { return &SQLiteReflector{} }

var _ inspect.Reflector = (*SQLiteReflector)(nil)

func (r *SQLiteReflector) Columns(ctx context.Context, conn driver.Conn, table, schema string) ([]inspect.Column, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "table_xinfo", table), driver.Positional())
	if err != nil {
		return nil, err
	}
	var out []inspect.Column
	for _, row := range rows {
		// cid, name, type, notnull, dflt_value, pk, hidden
		if len(row) < 7 {
			return nil, fmt.Errorf("dialecttest: short table_xinfo row")
		}
		hidden := asInt(row[6])
		if hidden == 1 {
			continue // hidden columns of virtual tables
		}
		col := inspect.Column{
			Name:     fmt.Sprint(row[1]),
			Type:     parseSQLiteType(fmt.Sprint(row[2])),
			Nullable: asInt(row[3]) == 0,
		}
		if row[4] != nil {
			col.Default = fmt.Sprint(row[4])
		}
		if hidden == 2 || hidden == 3 {
			col.Computed = &inspect.Computed{Persisted: hidden == 3}
			col.Default = ""
		}
		out = append(out, col)
	}
	return out, nil
}

func (r *SQLiteReflector) PrimaryKeyConstraint(ctx context.Context, conn driver.Conn, table, schema string) (inspect.PrimaryKey, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "table_info", table), driver.Positional())
	if err != nil {
		return inspect.PrimaryKey{}, err
	}
	ordered := map[int64]string{}
	var max int64
	for _, row := range rows {
		if pk := asInt(row[5]); pk > 0 {
			ordered[pk] = fmt.Sprint(row[1])
			if pk > max {
				max = pk
			}
		}
	}
	pk := inspect.PrimaryKey{}
	for i := int64(1); i <= max; i++ {
		pk.Columns = append(pk.Columns, ordered[i])
	}
	return pk, nil
}

func (r *SQLiteReflector) ForeignKeys(ctx context.Context, conn driver.Conn, table, schema string) ([]inspect.ForeignKey, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "foreign_key_list", table), driver.Positional())
	if err != nil {
		return nil, err
	}
	byID := map[int64]*inspect.ForeignKey{}
	var order []int64
	for _, row := range rows {
		// id, seq, table, from, to, on_update, on_delete, match
		id := asInt(row[0])
		fk, ok := byID[id]
		if !ok {
			fk = &inspect.ForeignKey{ReferredTable: fmt.Sprint(row[2])}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, fmt.Sprint(row[3]))
		if row[4] != nil {
			fk.ReferredColumns = append(fk.ReferredColumns, fmt.Sprint(row[4]))
		}
	}
	out := make([]inspect.ForeignKey, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	return out, nil
}

func (r *SQLiteReflector) Indexes(ctx context.Context, conn driver.Conn, table, schema string) ([]inspect.Index, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "index_list", table), driver.Positional())
	if err != nil {
		return nil, err
	}
	var out []inspect.Index
	for _, row := range rows {
		// seq, name, unique, origin, partial
		origin := fmt.Sprint(row[3])
		if origin == "pk" {
			continue
		}
		name := fmt.Sprint(row[1])
		cols, err := r.indexColumns(ctx, conn, schema, name)
		if err != nil {
			return nil, err
		}
		idx := inspect.Index{
			Name:    &name,
			Columns: cols,
			Unique:  asInt(row[2]) == 1,
		}
		if origin == "u" {
			dup := true
			idx.DuplicatesConstraint = &dup
		}
		out = append(out, idx)
	}
	return out, nil
}

func (r *SQLiteReflector) UniqueConstraints(ctx context.Context, conn driver.Conn, table, schema string) ([]inspect.UniqueConstraint, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "index_list", table), driver.Positional())
	if err != nil {
		return nil, err
	}
	var out []inspect.UniqueConstraint
	for _, row := range rows {
		if fmt.Sprint(row[3]) != "u" {
			continue
		}
		name := fmt.Sprint(row[1])
		cols, err := r.indexColumns(ctx, conn, schema, name)
		if err != nil {
			return nil, err
		}
		out = append(out, inspect.UniqueConstraint{Name: &name, Columns: cols})
	}
	return out, nil
}

func (r *SQLiteReflector) indexColumns(ctx context.Context, conn driver.Conn, schema, index string) ([]string, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "index_info", index), driver.Positional())
	if err != nil {
		return nil, err
	}
	var cols []string
	for _, row := range rows {
		// seqno, cid, name
		if row[2] != nil {
			cols = append(cols, fmt.Sprint(row[2]))
		}
	}
	return cols, nil
}

func (r *SQLiteReflector) TableNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error) {
	return r.masterNames(ctx, conn, schema, "table", false)
}

func (r *SQLiteReflector) TempTableNames(ctx context.Context, conn driver.Conn, _ string) ([]string, error) {
	return r.masterNames(ctx, conn, "temp", "table", true)
}

func (r *SQLiteReflector) ViewNames(ctx context.Context, conn driver.Conn, schema string) ([]string, error) {
	return r.masterNames(ctx, conn, schema, "view", false)
}

func (r *SQLiteReflector) TempViewNames(ctx context.Context, conn driver.Conn, _ string) ([]string, error) {
	return r.masterNames(ctx, conn, "temp", "view", true)
}

func (r *SQLiteReflector) masterNames(ctx context.Context, conn driver.Conn, schema, kind string, temp bool) ([]string, error) {
	stmt := fmt.Sprintf(
		"select name from %s.sqlite_master where type = ? and name not like 'sqlite_%%' order by name",
		quoteIdent(schemaOrMain(schema)),
	)
	if temp {
		stmt = "select name from temp.sqlite_master where type = ? order by name"
	}
	rows, err := queryAll(ctx, conn, stmt, driver.Positional(kind))
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, fmt.Sprint(row[0]))
	}
	return names, nil
}

func (r *SQLiteReflector) ViewDefinition(ctx context.Context, conn driver.Conn, view, schema string) (string, error) {
	stmt := fmt.Sprintf(
		"select sql from %s.sqlite_master where type = 'view' and name = ?",
		quoteIdent(schemaOrMain(schema)),
	)
	rows, err := queryAll(ctx, conn, stmt, driver.Positional(view))
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", fmt.Errorf("dialecttest: no such view %q", view)
	}
	return fmt.Sprint(rows[0][0]), nil
}

func (r *SQLiteReflector) HasTable(ctx context.Context, conn driver.Conn, table, schema string) (bool, error) {
	stmt := fmt.Sprintf(
		"select count(*) from %s.sqlite_master where type in ('table', 'view') and name = ?",
		quoteIdent(schemaOrMain(schema)),
	)
	rows, err := queryAll(ctx, conn, stmt, driver.Positional(table))
	if err != nil {
		return false, err
	}
	return len(rows) > 0 && asInt(rows[0][0]) > 0, nil
}

func (r *SQLiteReflector) HasIndex(ctx context.Context, conn driver.Conn, table, index, schema string) (bool, error) {
	rows, err := queryAll(ctx, conn, pragma(schema, "index_list", table), driver.Positional())
	if err != nil {
		return false, err
	}
	for _, row := range rows {
		if fmt.Sprint(row[1]) == index {
			return true, nil
		}
	}
	return false, nil
}

// queryAll runs one statement on a fresh cursor and drains it.
func queryAll(ctx context.Context, conn driver.Conn, statement string, params driver.Params) ([]driver.Row, error) {
	cur, err := conn.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()
	if err := cur.Execute(ctx, statement, params); err != nil {
		return nil, err
	}
	return cur.FetchAll()
}

func execStmt(ctx context.Context, conn driver.Conn, statement string) error {
	cur, err := conn.Cursor()
	if err != nil {
		return err
	}
	defer cur.Close()
	return cur.Execute(ctx, statement, driver.Positional())
}

func pragma(schema, name, arg string) string {
	return fmt.Sprintf("PRAGMA %s.%s(%s)", quoteIdent(schemaOrMain(schema)), name, quoteIdent(arg))
}

func schemaOrMain(schema string) string {
	if schema == "" {
		return "main"
	}
	return schema
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case bool:
		if n {
			return 1
		}
		return 0
	case string:
		parsed, _ := strconv.ParseInt(n, 10, 64)
		return parsed
	default:
		return 0
	}
}

func truthy(v any) bool { return asInt(v) != 0 }

// parseSQLiteType splits declarations like "VARCHAR(30)" and
// "NUMERIC(10,2)" into name, length and precision/scale.
func parseSQLiteType(decl string) inspect.TypeDescriptor {
	open := strings.Index(decl, "(")
	if open < 0 || !strings.HasSuffix(decl, ")") {
		return inspect.Type(strings.TrimSpace(decl))
	}
	td := inspect.Type(strings.TrimSpace(decl[:open]))
	args := strings.Split(decl[open+1:len(decl)-1], ",")
	first, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return inspect.Type(strings.TrimSpace(decl))
	}
	if len(args) == 1 {
		td.Length = first
		return td
	}
	second, err := strconv.ParseInt(strings.TrimSpace(args[1]), 10, 64)
	if err != nil {
		return inspect.Type(strings.TrimSpace(decl))
	}
	td.Precision = first
	td.Scale = second
	return td
}
