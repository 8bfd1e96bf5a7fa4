package repo

import (
	"context"
	"strings"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/store"
	"vdyp/internal/services/fip/domain"
)

// CH writes utilization rows to clickhouse for analytics
type CH struct {
	c store.Clickhouse
}

// NewCH wraps a clickhouse client
func NewCH(c store.Clickhouse) *CH { return &CH{c: c} }

func chColumns() []string {
	return append([]string{"run_id", "polygon_id", "year", "bec", "region", "layer", "genus", "uc", "lorey_height"}, valueColumns()...)
}

// chTable names the insert target with an explicit column list so written_at keeps its default
func chTable() string {
	return "fip_utilization (" + strings.Join(chColumns(), ", ") + ")"
}

// EnsureSchema creates the utilization table
func (w *CH) EnsureSchema(ctx context.Context) error {
	if err := w.c.Exec(ctx, CHSchema); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "create clickhouse fip_utilization")
	}
	return nil
}

// WritePolygons implements domain.WriterPort
func (w *CH) WritePolygons(ctx context.Context, runID string, xs []*domain.OutputPolygon) error {
	var rows [][]any
	for _, p := range xs {
		for _, r := range utilRows(p) {
			row := []any{
				runID, p.ID.String(), uint16(p.ID.Year), p.BEC.Alias, string(p.BEC.Region),
				string(r.Layer), r.Genus, int8(r.Class), r.LoreyHeight,
			}
			for _, v := range r.Values {
				row = append(row, v)
			}
			rows = append(rows, row)
		}
	}
	if err := w.c.Insert(ctx, chTable(), rows); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeDB, "insert clickhouse fip_utilization")
	}
	return nil
}
