// Package http hosts the API transport: a router seam over chi, the server, and the
// JSON envelope every endpoint answers with
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Handler is the handler type routes are registered with
type Handler = func(http.ResponseWriter, *http.Request)

// Router is what modules register routes on
type Router interface {
	Get(path string, h Handler)
	Post(path string, h Handler)
	Use(mw ...func(http.Handler) http.Handler)
	// Group scopes middlewares without a path prefix
	Group(fn func(Router))
	Route(prefix string, fn func(Router))
	// Mux serves every route registered so far
	Mux() http.Handler
}

// AdaptChi exposes a chi router, root or sub router, as a Router
func AdaptChi(r chi.Router) Router { return chiRouter{r} }

type chiRouter struct{ chi chi.Router }

func (c chiRouter) Get(path string, h Handler)  { c.chi.Get(path, h) }
func (c chiRouter) Post(path string, h Handler) { c.chi.Post(path, h) }
func (c chiRouter) Mux() http.Handler           { return c.chi }

func (c chiRouter) Use(mw ...func(http.Handler) http.Handler) { c.chi.Use(mw...) }

func (c chiRouter) Group(fn func(Router)) {
	c.chi.Group(func(g chi.Router) { fn(chiRouter{g}) })
}

func (c chiRouter) Route(prefix string, fn func(Router)) {
	c.chi.Route(prefix, func(sub chi.Router) { fn(chiRouter{sub}) })
}
