// Package module wires the meta endpoints into the API
package module

import (
	"time"

	modkit "vdyp/internal/modkit"
	"vdyp/internal/modkit/httpkit"
	metahttp "vdyp/internal/services/api/meta/http"
)

// Module implements modkit.Module for meta
type Module struct {
	b       modkit.Built
	service string
	deps    modkit.Deps
	started time.Time
}

// New constructs the meta module for the named service. Its routes sit at the root
// of the router it is mounted on unless a prefix is given
func New(deps modkit.Deps, service string, opts ...modkit.Option) *Module {
	b := modkit.Build([]modkit.Option{modkit.WithName("meta"), modkit.WithPrefix("")}, opts...)
	return &Module{b: b, service: service, deps: deps, started: time.Now()}
}

// MountRoutes mounts the meta routes under the module prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	d := metahttp.Deps{ServiceName: m.service, StartedAt: m.started}
	if m.deps.PG != nil {
		d.PG = m.deps.PG
	}
	if m.deps.CH != nil {
		d.CH = m.deps.CH
	}
	m.b.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, d) })
}

// Name returns the module name
func (m *Module) Name() string { return m.b.ModuleName() }

// Ports returns nil; meta exposes no ports
func (m *Module) Ports() any { return nil }
