package inspect

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/seamdb/seam"
	"github.com/seamdb/seam/driver"
)

// TableInfo aggregates everything reflected about a single table.
// Collections reflect only the features the backend supports; the rest
// are left nil.
type TableInfo struct {
	Name              string
	Schema            string
	Columns           []Column
	PrimaryKey        *PrimaryKey
	ForeignKeys       []ForeignKey
	Indexes           []Index
	UniqueConstraints []UniqueConstraint
	CheckConstraints  []CheckConstraint
	Comment           *TableComment
	Options           map[string]any
}

// Inspector is a convenience wrapper binding a Reflector to a live
// connection. It is scoped to that single connection and is not safe for
// concurrent use.
type Inspector struct {
	refl Reflector
	conn driver.Conn
}

// NewInspector returns an Inspector reflecting through conn.
func NewInspector(r Reflector, conn driver.Conn) *Inspector {
	return &Inspector{refl: r, conn: conn}
}

// TableNames lists the tables in the schema.
func (in *Inspector) TableNames(ctx context.Context, schema string) ([]string, error) {
	return in.refl.TableNames(ctx, in.conn, schema)
}

// HasTable reports whether the named table or view exists.
func (in *Inspector) HasTable(ctx context.Context, table, schema string) (bool, error) {
	return in.refl.HasTable(ctx, in.conn, table, schema)
}

// Columns returns the columns of the named table.
func (in *Inspector) Columns(ctx context.Context, table, schema string) ([]Column, error) {
	return in.refl.Columns(ctx, in.conn, table, schema)
}

// TableInfo reflects the full metadata of one table on the bound
// connection. Reflection features the backend lacks are skipped; only
// genuine reflection failures are returned.
func (in *Inspector) TableInfo(ctx context.Context, table, schema string) (*TableInfo, error) {
	info := &TableInfo{Name: table, Schema: schema}
	cols, err := in.refl.Columns(ctx, in.conn, table, schema)
	if err != nil {
		return nil, fmt.Errorf("inspect: columns of %s: %w", table, err)
	}
	info.Columns = cols
	if pk, err := in.refl.PrimaryKeyConstraint(ctx, in.conn, table, schema); err == nil {
		info.PrimaryKey = &pk
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: primary key of %s: %w", table, err)
	}
	if fks, err := in.refl.ForeignKeys(ctx, in.conn, table, schema); err == nil {
		info.ForeignKeys = fks
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: foreign keys of %s: %w", table, err)
	}
	if idx, err := in.refl.Indexes(ctx, in.conn, table, schema); err == nil {
		info.Indexes = idx
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: indexes of %s: %w", table, err)
	}
	if uqs, err := in.refl.UniqueConstraints(ctx, in.conn, table, schema); err == nil {
		info.UniqueConstraints = uqs
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: unique constraints of %s: %w", table, err)
	}
	if cks, err := in.refl.CheckConstraints(ctx, in.conn, table, schema); err == nil {
		info.CheckConstraints = cks
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: check constraints of %s: %w", table, err)
	}
	if tc, err := in.refl.TableComment(ctx, in.conn, table, schema); err == nil {
		info.Comment = &tc
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: comment of %s: %w", table, err)
	}
	if opts, err := in.refl.TableOptions(ctx, in.conn, table, schema); err == nil {
		info.Options = opts
	} else if !seam.IsUnsupported(err) {
		return nil, fmt.Errorf("inspect: options of %s: %w", table, err)
	}
	return info, nil
}

// ConnFunc produces a fresh connection for one reflection worker.
type ConnFunc func(ctx context.Context) (driver.Conn, error)

// Gather reflects the metadata of many tables concurrently. Each worker
// opens its own connection through connect, since a single connection
// must not be shared across goroutines. parallelism bounds the number of
// simultaneous connections; values below one mean one worker per table.
func Gather(ctx context.Context, r Reflector, connect ConnFunc, tables []string, schema string, parallelism int) ([]*TableInfo, error) {
	out := make([]*TableInfo, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		g.SetLimit(parallelism)
	}
	for i, table := range tables {
		g.Go(func() error {
			conn, err := connect(ctx)
			if err != nil {
				return fmt.Errorf("inspect: connect for %s: %w", table, err)
			}
			defer conn.Close()
			info, err := NewInspector(r, conn).TableInfo(ctx, table, schema)
			if err != nil {
				return err
			}
			out[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
