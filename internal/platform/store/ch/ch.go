// Package ch provides a clickhouse client over clickhouse-go
package ch

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	perr "vdyp/internal/platform/errors"
)

// Config configures clickhouse client
type Config struct {
	URL string
	// Role and Tag are reported to the server as client info
	Role string
	Tag  string
}

// Rows is the minimal result set iteration for ch
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
	Columns() []string
}

// batch is the part of driver.Batch the client uses
type batch interface {
	Append(v ...any) error
	Send() error
	Abort() error
}

// conn is the part of driver.Conn the client uses
type conn interface {
	PrepareBatch(ctx context.Context, query string) (batch, error)
	Exec(ctx context.Context, query string, args ...any) error
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

type driverConn struct{ c driver.Conn }

func (d driverConn) PrepareBatch(ctx context.Context, query string) (batch, error) {
	return d.c.PrepareBatch(ctx, query)
}

func (d driverConn) Exec(ctx context.Context, query string, args ...any) error {
	return d.c.Exec(ctx, query, args...)
}

func (d driverConn) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return d.c.Query(ctx, query, args...)
}

func (d driverConn) Ping(ctx context.Context) error { return d.c.Ping(ctx) }
func (d driverConn) Close() error                   { return d.c.Close() }

// CH is a clickhouse client
type CH struct {
	conn conn
}

var openConn = func(opts *clickhouse.Options) (conn, error) {
	c, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	return driverConn{c: c}, nil
}

// Open parses the DSN and opens a connection. The driver connects lazily
func Open(_ context.Context, cfg Config) (*CH, error) {
	if cfg.URL == "" {
		return nil, perr.Configf("clickhouse url is empty")
	}
	opts, err := clickhouse.ParseDSN(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "clickhouse url")
	}
	opts.ClientInfo = ClientInfo(cfg.Role, cfg.Tag)
	c, err := openConn(opts)
	if err != nil {
		return nil, err
	}
	return &CH{conn: c}, nil
}

// Insert appends rows to table in one batch. Each row holds the table columns in order
func (c *CH) Insert(ctx context.Context, table string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	b, err := c.conn.PrepareBatch(ctx, "INSERT INTO "+table)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if err := b.Append(r...); err != nil {
			_ = b.Abort()
			return err
		}
	}
	return b.Send()
}

// Exec runs a statement without results
func (c *CH) Exec(ctx context.Context, sql string, args ...any) error {
	return c.conn.Exec(ctx, sql, args...)
}

// Query runs a query and returns ch.Rows
func (c *CH) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

// Ping checks the server is reachable
func (c *CH) Ping(ctx context.Context) error { return c.conn.Ping(ctx) }

// Close closes resources
func (c *CH) Close() error { return c.conn.Close() }
