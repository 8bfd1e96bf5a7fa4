package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"vdyp/internal/platform/store/pg"
)

// pgxQuerier is what a pgx pool and a pgx transaction have in common
type pgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgxPool is the part of *pgxpool.Pool the store uses
type pgxPool interface {
	pgxQuerier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// traced runs statements on a pool or a transaction and reports each one to the
// tracer when there is one
type traced struct {
	q      pgxQuerier
	tracer pg.QueryTracer
	isSlow func(time.Duration) bool
}

func (t traced) report(ctx context.Context, sql string, args []any, start time.Time, err error) {
	if t.tracer == nil {
		return
	}
	d := time.Since(start)
	t.tracer.OnQuery(ctx, pg.QueryEvent{SQL: sql, Args: args, Elapsed: d, Err: err, Slow: t.isSlow(d)})
}

func (t traced) Exec(ctx context.Context, sql string, args ...any) (CommandTag, error) {
	start := time.Now()
	ct, err := t.q.Exec(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	return ct, err
}

// Query is timed until the result set opens, not across the scan
func (t traced) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	start := time.Now()
	rs, err := t.q.Query(ctx, sql, args...)
	t.report(ctx, sql, args, start, err)
	if err != nil {
		return nil, err
	}
	return pgRows{rs}, nil
}

// QueryRow is reported once Scan returns, since that is when pgx surfaces the error
func (t traced) QueryRow(ctx context.Context, sql string, args ...any) Row {
	start := time.Now()
	r := t.q.QueryRow(ctx, sql, args...)
	return scanHook{r, func(err error) { t.report(ctx, sql, args, start, err) }}
}

type scanHook struct {
	r     pgx.Row
	after func(error)
}

func (h scanHook) Scan(dest ...any) error {
	err := h.r.Scan(dest...)
	h.after(err)
	return err
}

type pgRows struct{ pgx.Rows }

func (r pgRows) Columns() []string {
	fds := r.FieldDescriptions()
	cols := make([]string, len(fds))
	for i, fd := range fds {
		cols[i] = fd.Name
	}
	return cols
}

// pgStore implements TxRunner and Pinger over a pool
type pgStore struct {
	traced
	pool pgxPool
}

func newPGStore(p *pg.PG) *pgStore { return newPGStoreOn(p.Pool, p.Tracer, p.IsSlow) }

func newPGStoreOn(pool pgxPool, tracer pg.QueryTracer, isSlow func(time.Duration) bool) *pgStore {
	return &pgStore{traced: traced{q: pool, tracer: tracer, isSlow: isSlow}, pool: pool}
}

// Tx runs fn in one transaction. Statements inside are traced like any other
func (s *pgStore) Tx(ctx context.Context, fn func(q RowQuerier) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(traced{q: tx, tracer: s.tracer, isSlow: s.isSlow})
	})
}

func (s *pgStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}
