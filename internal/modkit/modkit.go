// Package modkit wires API modules: shared deps, build options and the module contract
package modkit

import (
	phttp "vdyp/internal/platform/net/http"
)

// Module is what the API mounts: routes under a prefix and a port set other modules
// can look up by name
type Module interface {
	MountRoutes(r phttp.Router)
	Ports() any
	Name() string
}

// Builder constructs a Module from shared deps and options
type Builder func(Deps, ...Option) Module
