// Package httpkit is what modules register their handlers with, so they do not import
// the platform http package directly
package httpkit

import (
	"net/http"

	phttp "vdyp/internal/platform/net/http"
)

type (
	// Router is the platform router seam
	Router = phttp.Router
	// Response sets the status of a successful answer
	Response = phttp.Response
)

// Get registers fn under GET. fn does not read the body
func Get(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, phttp.NoBodyHandler(fn))
}

// PostJSON registers fn under POST with a validated T decoded from the body
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(fn))
}

// MountAPIV1 scopes the routes mount registers under /v1, behind mw
func MountAPIV1(r Router, mw []func(http.Handler) http.Handler, mount func(Router)) {
	r.Route("/v1", func(v1 Router) {
		v1.Use(mw...)
		mount(v1)
	})
}
