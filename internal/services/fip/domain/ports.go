package domain

import "context"

// ProcessorPort is the external port for processing single polygons
type ProcessorPort interface {
	ProcessPolygon(ctx context.Context, index int, p *InputPolygon) Result
}

// RunnerPort is the external port for the batch job
type RunnerPort interface {
	Run(ctx context.Context, src Source, sink Sink) (Summary, error)
}

// Source yields input polygons in file order. Next returns io.EOF when exhausted;
// any other error aborts the run
type Source interface {
	Next(ctx context.Context) (*InputPolygon, error)
}

// Sink receives results in input order
type Sink interface {
	Put(ctx context.Context, r Result) error
}

// WriterPort persists processed polygons
type WriterPort interface {
	// WritePolygons stores processed polygons under a run id
	WritePolygons(ctx context.Context, runID string, xs []*OutputPolygon) error
}

// QueryPort reads back stored runs
type QueryPort interface {
	RunTotals(ctx context.Context, runID string) (RunTotals, error)
}

// Summary counts the outcomes of a run
type Summary struct {
	RunID    string `json:"run_id"`
	Read     int    `json:"read"`
	OK       int    `json:"ok"`
	Skipped  int    `json:"skipped"`
	Rejected int    `json:"rejected"`
}

// LayerTotals sums one layer type over the polygons of a run
type LayerTotals struct {
	Layer           LayerType `json:"layer"`
	Polygons        int       `json:"polygons"`
	BaseArea        float64   `json:"base_area"`
	TreesPerHectare float64   `json:"trees_per_hectare"`
	WholeStemVolume float64   `json:"whole_stem_volume"`
}

// RunTotals describes what a run stored
type RunTotals struct {
	RunID    string        `json:"run_id"`
	Polygons int           `json:"polygons"`
	Layers   []LayerTotals `json:"layers"`
}
