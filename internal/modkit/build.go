package modkit

import (
	"net/http"

	phttp "vdyp/internal/platform/net/http"
	pstrings "vdyp/internal/platform/strings"
)

// Built is how a module is named and where it mounts
type Built struct {
	Name   string
	Prefix string
	Mw     []func(http.Handler) http.Handler
}

// Build applies a module's defaults and then the caller's opts, so callers win.
// The result never shares a middleware slice with the options
func Build(defaults []Option, opts ...Option) Built {
	var b Built
	for _, o := range defaults {
		o(&b)
	}
	for _, o := range opts {
		o(&b)
	}
	b.Mw = append([]func(http.Handler) http.Handler(nil), b.Mw...)
	return b
}

// Mount registers routes on a router scoped to the module and its middlewares
func (b Built) Mount(r phttp.Router, routes func(phttp.Router)) {
	scoped := func(sub phttp.Router) {
		if len(b.Mw) > 0 {
			sub.Use(b.Mw...)
		}
		routes(sub)
	}
	if b.Prefix == "" {
		r.Group(scoped)
		return
	}
	r.Route(pstrings.RoutePrefix(b.Prefix), scoped)
}

// ModuleName returns the configured name. It panics when the name is blank
func (b Built) ModuleName() string { return pstrings.Require(b.Name, "module name") }
