// Package module wires the fip service into the API and the batch CLI using modkit
package module

import (
	"context"

	"vdyp/internal/core/estimate"
	modkit "vdyp/internal/modkit"
	"vdyp/internal/modkit/httpkit"
	"vdyp/internal/modkit/repokit"
	fiphttp "vdyp/internal/services/fip/http"
	"vdyp/internal/services/fip/repo"
	"vdyp/internal/services/fip/service"
)

// Module implements modkit.Module for fip
type Module struct {
	b      modkit.Built
	svc    *service.Service
	writer *service.Writer
	ports  Ports
	opts   Options
}

// New constructs the fip module. deps.Tables must be set; PG and CH are optional
// result stores
func New(deps modkit.Deps, o Options, opts ...modkit.Option) *Module {
	if deps.Tables == nil {
		panic("fip: coefficient tables are required")
	}
	b := modkit.Build([]modkit.Option{modkit.WithName("fip"), modkit.WithPrefix("/fip")}, opts...)

	svc := service.New(estimate.New(deps.Tables), o.serviceConfig(deps.Tables))

	var db repokit.TxRunner
	if deps.PG != nil {
		db = repokit.WithBeginHooks(deps.PG, repokit.StatementTimeout(o.StatementTimeout))
	}
	var ch *repo.CH
	if deps.CH != nil {
		ch = repo.NewCH(deps.CH)
	}
	w := service.NewWriter(db, ch)

	return &Module{
		b:      b,
		svc:    svc,
		writer: w,
		opts:   o,
		ports:  Ports{Processor: svc, Runner: svc, Writer: w, Query: w},
	}
}

// MountRoutes mounts the fip routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	m.b.Mount(r, func(rr httpkit.Router) {
		fiphttp.Register(rr, m.svc, m.writer)
	})
}

// Name returns the module name
func (m *Module) Name() string { return m.b.ModuleName() }

// Ports returns the fip Ports
func (m *Module) Ports() any { return m.ports }

// EnsureSchema creates the result tables on the configured stores
func (m *Module) EnsureSchema(ctx context.Context) error { return m.writer.EnsureSchema(ctx) }

// HasStore reports whether results can be persisted anywhere
func (m *Module) HasStore() bool { return m.writer.DB != nil || m.writer.CH != nil }

// BatchSink buffers processed polygons into writes of the configured batch size
func (m *Module) BatchSink() *service.BatchSink {
	return service.NewBatchSink(m.writer, m.opts.BatchSize)
}

// Options returns the options the module was built with
func (m *Module) Options() Options { return m.opts }
