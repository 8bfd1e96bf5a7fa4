// Package pg opens the pgx pool the result store writes through
package pg

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	perr "vdyp/internal/platform/errors"
)

// Config configures the pool
type Config struct {
	URL      string
	MaxConns int32
	// AppName is reported as application_name on every connection
	AppName string
	// Slow marks statements at or over this duration; zero marks none
	Slow   time.Duration
	Tracer QueryTracer
	// Tune adjusts the parsed pool config before the pool is built
	Tune func(*pgxpool.Config)
}

// PG is the pool with the tracing settings statements are reported with
type PG struct {
	Pool   *pgxpool.Pool
	Tracer QueryTracer
	Slow   time.Duration
}

var newPool = pgxpool.NewWithConfig

// Open parses cfg.URL and builds the pool. pgx connects lazily, so a reachable
// server is not required
func Open(ctx context.Context, cfg Config) (*PG, error) {
	pc, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "postgres url")
	}
	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.AppName != "" {
		if pc.ConnConfig.RuntimeParams == nil {
			pc.ConnConfig.RuntimeParams = map[string]string{}
		}
		pc.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	}
	if cfg.Tune != nil {
		cfg.Tune(pc)
	}
	pool, err := newPool(ctx, pc)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "postgres pool")
	}
	return &PG{Pool: pool, Tracer: cfg.Tracer, Slow: cfg.Slow}, nil
}

// IsSlow reports whether a statement that took d should be flagged
func (p *PG) IsSlow(d time.Duration) bool { return p.Slow > 0 && d >= p.Slow }

// Close closes the pool. Safe on a nil or unopened PG
func (p *PG) Close() {
	if p != nil && p.Pool != nil {
		p.Pool.Close()
	}
}
