package service

import (
	"context"
	"time"

	"vdyp/internal/modkit/repokit"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
	"vdyp/internal/services/fip/repo"
)

// Writer implements domain.WriterPort and domain.QueryPort over the postgres repo and,
// when set, the clickhouse utilization table. A nil DB disables postgres
type Writer struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[repo.Storage]
	CH     *repo.CH
}

// NewWriter constructs a writer; either backend may be nil
func NewWriter(db repokit.TxRunner, ch *repo.CH) *Writer {
	return &Writer{DB: db, Binder: repo.NewPG(), CH: ch}
}

// EnsureSchema creates the result tables on every configured backend
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if w.DB != nil {
		if err := repokit.MustBind(w.Binder, w.DB).EnsureSchema(ctx); err != nil {
			return err
		}
	}
	if w.CH != nil {
		return w.CH.EnsureSchema(ctx)
	}
	return nil
}

// WritePolygons implements domain.WriterPort. Postgres rows for a batch commit together
func (w *Writer) WritePolygons(ctx context.Context, runID string, xs []*dom.OutputPolygon) error {
	if len(xs) == 0 {
		return nil
	}
	if w.DB == nil && w.CH == nil {
		return perr.Unavailablef("no result store is configured")
	}
	if w.DB != nil {
		if err := w.writePG(ctx, runID, xs); err != nil {
			return err
		}
	}
	if w.CH != nil {
		return w.CH.WritePolygons(ctx, runID, xs)
	}
	return nil
}

// transactions that lose a serialization race or deadlock are rerun this many times
const pgAttempts = 3

var retryDelay = 50 * time.Millisecond

func (w *Writer) writePG(ctx context.Context, runID string, xs []*dom.OutputPolygon) error {
	var err error
	for attempt := 1; attempt <= pgAttempts; attempt++ {
		err = repokit.WithTx(ctx, w.DB, w.Binder, func(st repo.Storage) error {
			return st.WritePolygons(ctx, runID, xs)
		})
		if !perr.IsRetryable(err) || attempt == pgAttempts {
			return err
		}
		logger.C(ctx).Warn().Err(err).Int("attempt", attempt).Int("polygons", len(xs)).Msg("retrying result write")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryDelay * time.Duration(attempt)):
		}
	}
	return nil
}

// RunTotals implements domain.QueryPort
func (w *Writer) RunTotals(ctx context.Context, runID string) (dom.RunTotals, error) {
	if w.DB == nil {
		return dom.RunTotals{}, perr.Unavailablef("postgres is not configured")
	}
	return repokit.MustBind(w.Binder, w.DB).RunTotals(ctx, runID)
}
