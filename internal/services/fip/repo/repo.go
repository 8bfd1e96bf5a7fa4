// Package repo provides the fip result repositories: postgres tables for the full
// output, a clickhouse table for utilization analytics and a JSON lines sink
package repo

import (
	"context"

	"vdyp/internal/modkit/repokit"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/store"
	"vdyp/internal/services/fip/domain"
)

type (
	pg     struct{ q repokit.Queryer }
	binder struct{}
)

// NewPG constructs a new repo binder for Postgres
func NewPG() repokit.Binder[Storage] { return binder{} }

// Bind implements repokit.Binder
func (binder) Bind(q repokit.Queryer) Storage { return &pg{q: q} }

// Storage defines the fip result repository
type Storage interface {
	EnsureSchema(ctx context.Context) error
	WritePolygons(ctx context.Context, runID string, xs []*domain.OutputPolygon) error
	RunTotals(ctx context.Context, runID string) (domain.RunTotals, error)
}

var (
	polygonInsert = store.Insert{
		Table: "fip_polygon",
		Columns: []string{
			"run_id", "polygon_id", "map_base", "year", "bec", "region", "fiz", "mode", "percent_available",
		},
		Suffix: "ON CONFLICT (run_id, polygon_id) DO NOTHING",
	}
	layerInsert = store.Insert{
		Table: "fip_layer",
		Columns: []string{
			"run_id", "polygon_id", "layer", "age_total", "years_to_breast_height", "breast_height_age",
			"height", "site_index", "site_genus", "primary_genus", "inventory_type_group", "empirical_relationship_id",
		},
		Suffix: "ON CONFLICT (run_id, polygon_id, layer) DO NOTHING",
	}
	speciesInsert = store.Insert{
		Table: "fip_species",
		Columns: []string{
			"run_id", "polygon_id", "layer", "genus", "percent_genus", "fraction_genus",
			"volume_group", "decay_group", "breakage_group",
		},
		Suffix: "ON CONFLICT (run_id, polygon_id, layer, genus) DO NOTHING",
	}
	utilizationInsert = store.Insert{
		Table:   "fip_utilization",
		Columns: append([]string{"run_id", "polygon_id", "layer", "genus", "uc", "lorey_height"}, valueColumns()...),
		Suffix:  "ON CONFLICT (run_id, polygon_id, layer, genus, uc) DO NOTHING",
	}
)

// EnsureSchema implements Storage
func (s *pg) EnsureSchema(ctx context.Context) error {
	_, err := s.q.Exec(ctx, PGSchema)
	return perr.FromPostgres(err, "create fip tables")
}

// WritePolygons implements Storage. Parents are written before children
func (s *pg) WritePolygons(ctx context.Context, runID string, xs []*domain.OutputPolygon) error {
	if len(xs) == 0 {
		return nil
	}

	var polygons, layers, species, utils [][]any
	for _, p := range xs {
		id := p.ID.String()
		polygons = append(polygons, []any{
			runID, id, p.ID.Base, p.ID.Year, p.BEC.Alias, string(p.BEC.Region),
			p.ForestInventoryZone, int(p.Mode), p.PercentAvailable,
		})
		for _, l := range layersOf(p) {
			layers = append(layers, []any{
				runID, id, string(l.Type), l.AgeTotal, l.YearsToBreastHeight, l.BreastHeightAge,
				l.Height, l.SiteIndex, l.SiteGenus, l.PrimaryGenus,
				nonZero(l.InventoryTypeGroup), nonZero(l.EmpiricalRelationshipID),
			})
			for _, sp := range l.Species {
				species = append(species, []any{
					runID, id, string(l.Type), sp.Genus, sp.PercentGenus, sp.FractionGenus,
					sp.VolumeGroup, sp.DecayGroup, sp.BreakageGroup,
				})
			}
		}
		for _, r := range utilRows(p) {
			row := []any{runID, id, string(r.Layer), r.Genus, int(r.Class), r.LoreyHeight}
			for _, v := range r.Values {
				row = append(row, v)
			}
			utils = append(utils, row)
		}
	}

	for _, step := range []struct {
		ins  store.Insert
		rows [][]any
	}{
		{polygonInsert, polygons},
		{layerInsert, layers},
		{speciesInsert, species},
		{utilizationInsert, utils},
	} {
		if _, err := store.InsertValues(ctx, s.q, step.ins, step.rows); err != nil {
			return perr.FromPostgres(err, "insert "+step.ins.Table)
		}
	}
	return nil
}

// RunTotals implements Storage
func (s *pg) RunTotals(ctx context.Context, runID string) (domain.RunTotals, error) {
	n, err := store.Scalar[int](ctx, s.q, `SELECT count(*) FROM fip_polygon WHERE run_id = $1::uuid`, runID)
	if err != nil {
		return domain.RunTotals{}, perr.FromPostgres(err, "count polygons")
	}
	if n == 0 {
		return domain.RunTotals{}, perr.NotFoundf("run %s has no stored polygons", runID)
	}

	layers, err := store.Many(ctx, s.q, func(r store.Row) (domain.LayerTotals, error) {
		var t domain.LayerTotals
		var layer string
		err := r.Scan(&layer, &t.Polygons, &t.BaseArea, &t.TreesPerHectare, &t.WholeStemVolume)
		t.Layer = domain.LayerType(layer)
		return t, err
	}, `
		SELECT u.layer, count(*), sum(u.base_area), sum(u.trees_per_hectare), sum(u.whole_stem_volume)
		FROM fip_utilization u
		WHERE u.run_id = $1::uuid AND u.genus = '' AND u.uc = 0
		GROUP BY u.layer
		ORDER BY u.layer`, runID)
	if err != nil {
		return domain.RunTotals{}, perr.FromPostgres(err, "sum layers")
	}
	return domain.RunTotals{RunID: runID, Polygons: n, Layers: layers}, nil
}

// nonZero maps an unset group to NULL
func nonZero(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
