package store

import (
	"context"

	"vdyp/internal/platform/store/ch"
)

// chClient is the part of *ch.CH the store uses
type chClient interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// chStore implements Clickhouse and Pinger. Only Query needs adapting, for the
// Rows.Close signature
type chStore struct{ chClient }

func (c chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := c.chClient.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
