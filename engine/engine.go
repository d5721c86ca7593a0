package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/dburl"
	"github.com/seamdb/seam/dialect"
	"github.com/seamdb/seam/driver"
)

// Engine binds a resolved dialect to a connection URL and drives the
// statement execution lifecycle. It does not pool connections; an
// Invalidator observer lets an external pool react to disconnects.
type Engine struct {
	url         *dburl.URL
	dialect     dialect.Dialect
	requested   dialect.Dialect
	connectArgs driver.ConnectArgs
	onConnect   func(ctx context.Context, conn driver.Conn) error
	logger      *slog.Logger
	isolation   string
	hideParams  bool

	handlers     []ErrorHandler
	observers    []ExecObserver
	invalidators []Invalidator

	initMu      sync.Mutex
	initialized bool
	session     dialect.SessionState
}

// ExecObserver is notified after every statement execution.
type ExecObserver interface {
	ObserveExec(ctx context.Context, statement string, params driver.Params, elapsed time.Duration, err error)
}

// Invalidator is notified when a connection was classified as dead.
// wholePool reports whether the handler chain kept the default
// whole-pool invalidation scope.
type Invalidator func(conn driver.Conn, wholePool bool)

// EngineCreatedHook is implemented by dialects that want a
// post-construction callback. When URL resolution redirected to a
// different dialect, the hook fires on both the requested and the
// resolved dialect.
type EngineCreatedHook interface {
	EngineCreated(e *Engine)
}

// Option configures engine construction.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	kwargs      map[string]any
	plugins     []string
	handlers    []ErrorHandler
	observers   []ExecObserver
	invalidator Invalidator
	isolation   string
	hideParams  bool
	async       bool
}

// WithLogger sets the engine logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithArgs supplies construction keyword arguments. Plugins and the
// dialect consume the keys they recognize; unconsumed keys fail engine
// creation.
func WithArgs(kwargs map[string]any) Option {
	return func(o *options) {
		if o.kwargs == nil {
			o.kwargs = make(map[string]any, len(kwargs))
		}
		for k, v := range kwargs {
			o.kwargs[k] = v
		}
	}
}

// WithPlugins requests plugins by name, applied after those named in
// the URL.
func WithPlugins(names ...string) Option {
	return func(o *options) { o.plugins = append(o.plugins, names...) }
}

// WithErrorHandler appends a handler to the error pipeline.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) { o.handlers = append(o.handlers, h) }
}

// WithExecObserver appends an execution observer.
func WithExecObserver(obs ExecObserver) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// WithInvalidator sets the disconnect observer for an external pool.
func WithInvalidator(inv Invalidator) Option {
	return func(o *options) { o.invalidator = inv }
}

// WithIsolationLevel sets the isolation level applied to every new
// connection. The value is normalized and validated against the
// dialect's whitelist when one is advertised.
func WithIsolationLevel(level string) Option {
	return func(o *options) { o.isolation = level }
}

// WithHiddenParameters stops bound parameters from appearing in wrapped
// errors and log output.
func WithHiddenParameters() Option {
	return func(o *options) { o.hideParams = true }
}

// WithAsyncResolution resolves the dialect through the asynchronous
// registry path, letting a dialect family substitute its async variant.
func WithAsyncResolution() Option {
	return func(o *options) { o.async = true }
}

// Create builds an engine from a connection URL.
//
// The URL is parsed, plugins named by its "plugin" query parameters are
// constructed in order and strip their parameters, the dialect is
// resolved through the registry, and leftover keyword arguments fail
// with an argument-validation error. EngineCreated hooks fire last, on
// the dialect and then on each plugin.
func Create(rawURL string, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.kwargs == nil {
		o.kwargs = make(map[string]any)
	}

	u, err := dburl.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	u, loaded, err := loadPlugins(u, o.plugins, o.kwargs)
	if err != nil {
		return nil, err
	}

	lookup := dialect.Lookup
	if o.async {
		lookup = dialect.LookupAsync
	}
	resolved, requested, err := lookup(u)
	if err != nil {
		return nil, err
	}
	for _, p := range loaded {
		p.HandleDialectArgs(o.kwargs)
	}
	if err := consumeDialectArgs(resolved, o.kwargs); err != nil {
		return nil, err
	}
	if len(o.kwargs) > 0 {
		keys := make([]string, 0, len(o.kwargs))
		for k := range o.kwargs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, seam.NewArgumentError(keys[0],
			fmt.Errorf("unconsumed arguments: %s", strings.Join(keys, ", ")))
	}

	args, err := resolved.CreateConnectArgs(u)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		url:         u,
		dialect:     resolved,
		requested:   requested,
		connectArgs: args,
		onConnect:   dialect.ConnectHook(resolved, u),
		logger:      o.logger.With("dialect", resolved.Name()),
		isolation:   o.isolation,
		hideParams:  o.hideParams,
		handlers:    o.handlers,
		observers:   o.observers,
	}
	if o.invalidator != nil {
		e.invalidators = append(e.invalidators, o.invalidator)
	}

	if h, ok := requested.(EngineCreatedHook); ok {
		h.EngineCreated(e)
	}
	if resolved != requested {
		if h, ok := resolved.(EngineCreatedHook); ok {
			h.EngineCreated(e)
		}
	}
	for _, p := range loaded {
		p.EngineCreated(e)
	}
	return e, nil
}

// DialectArgConsumer is implemented by dialects that accept
// construction keyword arguments. Consume must delete every key it
// recognizes.
type DialectArgConsumer interface {
	ConsumeArgs(kwargs map[string]any) error
}

func consumeDialectArgs(d dialect.Dialect, kwargs map[string]any) error {
	if c, ok := d.(DialectArgConsumer); ok {
		return c.ConsumeArgs(kwargs)
	}
	return nil
}

// URL returns the connection URL with plugin parameters stripped.
func (e *Engine) URL() *dburl.URL { return e.url }

// Dialect returns the resolved dialect.
func (e *Engine) Dialect() dialect.Dialect { return e.dialect }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// AddErrorHandler appends a handler to the error pipeline. Handlers run
// in registration order.
func (e *Engine) AddErrorHandler(h ErrorHandler) {
	e.handlers = append(e.handlers, h)
}

// AddExecObserver appends an execution observer.
func (e *Engine) AddExecObserver(obs ExecObserver) {
	e.observers = append(e.observers, obs)
}

// AddInvalidator appends a disconnect observer.
func (e *Engine) AddInvalidator(inv Invalidator) {
	e.invalidators = append(e.invalidators, inv)
}

// SessionState returns the per-server facts discovered on the first
// connection. The second return reports whether initialization ran.
func (e *Engine) SessionState() (dialect.SessionState, bool) {
	e.initMu.Lock()
	defer e.initMu.Unlock()
	return e.session, e.initialized
}

// Connect establishes a new physical connection, runs the dialect's
// per-connection hook, applies the configured isolation level and, on
// the first successful connection, initializes the engine's session
// state.
func (e *Engine) Connect(ctx context.Context) (*Connection, error) {
	conn, err := e.dialect.Connect(ctx, e.connectArgs)
	if err != nil {
		return nil, e.handleError(err, nil, nil)
	}
	if e.onConnect != nil {
		if err := e.onConnect(ctx, conn); err != nil {
			_ = e.dialect.CloseConn(conn)
			return nil, e.handleError(err, conn, nil)
		}
	}
	if e.isolation != "" {
		if err := dialect.SetIsolation(ctx, e.dialect, conn, e.isolation); err != nil {
			_ = e.dialect.CloseConn(conn)
			return nil, err
		}
	}
	if err := e.initSession(ctx, conn); err != nil {
		_ = e.dialect.CloseConn(conn)
		return nil, err
	}
	return &Connection{engine: e, conn: conn}, nil
}

func (e *Engine) initSession(ctx context.Context, conn driver.Conn) error {
	init, ok := e.dialect.(dialect.Initializer)
	if !ok {
		return nil
	}
	e.initMu.Lock()
	defer e.initMu.Unlock()
	if e.initialized {
		return nil
	}
	state, err := init.Initialize(ctx, conn)
	if err != nil {
		return err
	}
	e.session = state
	e.initialized = true
	e.logger.Debug("session initialized",
		"server_version", state.ServerVersion, "default_schema", state.DefaultSchema)
	return nil
}

// Exec opens a connection, executes the statement with the buffered
// result strategy, commits and closes the connection. Committing here
// matters for implicit-transaction drivers, whose Close rolls back any
// pending work; use Connect for multi-statement transactional control.
func (e *Engine) Exec(ctx context.Context, statement string, params driver.Params) (*Result, error) {
	conn, err := e.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	res, err := conn.Exec(ctx, statement, params)
	if err != nil {
		return nil, err
	}
	if err := conn.Commit(); err != nil {
		return nil, e.handleError(err, conn.conn, nil)
	}
	return res, nil
}

// Connection is one live dialect-managed connection.
type Connection struct {
	engine *Engine
	conn   driver.Conn
}

// Raw returns the underlying driver connection.
func (c *Connection) Raw() driver.Conn { return c.conn }

// Begin starts a transaction through the dialect.
func (c *Connection) Begin(ctx context.Context) error {
	return c.engine.dialect.Begin(ctx, c.conn)
}

// Commit commits the current transaction.
func (c *Connection) Commit() error { return c.engine.dialect.Commit(c.conn) }

// Rollback rolls back the current transaction.
func (c *Connection) Rollback() error { return c.engine.dialect.Rollback(c.conn) }

// Close closes the connection through the dialect.
func (c *Connection) Close() error { return c.engine.dialect.CloseConn(c.conn) }

// Exec executes a statement with the fully-buffered result strategy.
// The returned result holds all rows; the cursor is already closed.
func (c *Connection) Exec(ctx context.Context, statement string, params driver.Params) (*Result, error) {
	ec := NewExecContext(c.engine.dialect, c.conn, statement, params)
	ec.SetBuffered(true)
	return c.run(ctx, ec)
}

// Query executes a statement with the default streaming strategy. The
// caller fetches from and closes the result cursor.
func (c *Connection) Query(ctx context.Context, statement string, params driver.Params) (*Result, error) {
	ec := NewExecContext(c.engine.dialect, c.conn, statement, params)
	return c.run(ctx, ec)
}

// ExecCompiled runs a compiled statement through the full execution
// lifecycle.
func (c *Connection) ExecCompiled(ctx context.Context, compiled Compiled) (*Result, error) {
	ec := NewCompiledExecContext(c.engine.dialect, c.conn, compiled)
	ec.SetBuffered(true)
	return c.run(ctx, ec)
}

// ExecMany executes the statement once per parameter collection.
func (c *Connection) ExecMany(ctx context.Context, statement string, params []driver.Params) (*Result, error) {
	ec := NewExecContext(c.engine.dialect, c.conn, statement, driver.Params{})
	ec.SetBuffered(true)
	return c.runMany(ctx, ec, statement, params)
}

// run drives an execution context through its phases.
func (c *Connection) run(ctx context.Context, ec ExecContext) (*Result, error) {
	e := c.engine
	start := time.Now()
	res, err := c.execPhases(ctx, ec)
	e.observe(ctx, ec, start, err)
	if err != nil {
		if herr := ec.HandleError(err); herr != nil {
			return nil, e.handleError(herr, c.conn, ec)
		}
		return nil, nil
	}
	return res, nil
}

func (c *Connection) execPhases(ctx context.Context, ec ExecContext) (*Result, error) {
	if err := ec.PreExec(); err != nil {
		return nil, err
	}
	cur, err := ec.CreateCursor()
	if err != nil {
		return nil, err
	}
	res, err := c.execOnCursor(ctx, ec, cur)
	if err != nil {
		cur.Close()
		return nil, err
	}
	return res, nil
}

func (c *Connection) execOnCursor(ctx context.Context, ec ExecContext, cur driver.Cursor) (*Result, error) {
	e := c.engine
	if err := e.applyInputSizes(ctx, ec, cur); err != nil {
		return nil, err
	}
	if err := e.dialect.Execute(ctx, cur, ec.Statement(), ec.Params()); err != nil {
		return nil, err
	}
	if err := ec.PostExec(); err != nil {
		return nil, err
	}
	res, err := ec.ResultStrategy().Fetch(ctx, ec)
	if err != nil {
		return nil, err
	}
	if compiled, ok := compiledOf(ec); ok && compiled.HasOutParameters() {
		res.OutParams, err = ec.OutParameterValues()
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func (c *Connection) runMany(ctx context.Context, ec ExecContext, statement string, params []driver.Params) (*Result, error) {
	e := c.engine
	start := time.Now()
	res, err := c.execManyPhases(ctx, ec, statement, params)
	e.observe(ctx, ec, start, err)
	if err != nil {
		if herr := ec.HandleError(err); herr != nil {
			return nil, e.handleError(herr, c.conn, ec)
		}
		return nil, nil
	}
	return res, nil
}

func (c *Connection) execManyPhases(ctx context.Context, ec ExecContext, statement string, params []driver.Params) (*Result, error) {
	if err := ec.PreExec(); err != nil {
		return nil, err
	}
	cur, err := ec.CreateCursor()
	if err != nil {
		return nil, err
	}
	res, err := c.execManyOnCursor(ctx, ec, cur, statement, params)
	if err != nil {
		cur.Close()
		return nil, err
	}
	return res, nil
}

func (c *Connection) execManyOnCursor(ctx context.Context, ec ExecContext, cur driver.Cursor, statement string, params []driver.Params) (*Result, error) {
	if err := c.engine.dialect.ExecuteMany(ctx, cur, statement, params); err != nil {
		return nil, err
	}
	if err := ec.PostExec(); err != nil {
		return nil, err
	}
	return ec.ResultStrategy().Fetch(ctx, ec)
}

func (e *Engine) applyInputSizes(ctx context.Context, ec ExecContext, cur driver.Cursor) error {
	if e.dialect.Capabilities().BindTyping != dialect.BindSetInputSizes {
		return nil
	}
	sizer, ok := e.dialect.(dialect.InputSizer)
	if !ok {
		return nil
	}
	hinter, ok := ec.(interface{ TypeHints() []dialect.TypeHint })
	if !ok {
		return nil
	}
	return sizer.SetInputSizes(ctx, cur, hinter.TypeHints())
}

func (e *Engine) observe(ctx context.Context, ec ExecContext, start time.Time, err error) {
	if len(e.observers) == 0 {
		return
	}
	elapsed := time.Since(start)
	params := ec.Params()
	if e.hideParams {
		params = driver.Params{}
	}
	for _, obs := range e.observers {
		obs.ObserveExec(ctx, ec.Statement(), params, elapsed, err)
	}
}

func compiledOf(ec ExecContext) (Compiled, bool) {
	dec, ok := ec.(*DefaultExecContext)
	if !ok || dec.compiled == nil {
		return nil, false
	}
	return dec.compiled, true
}
