package http

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// MountProfiler serves chi's pprof and expvar routes below prefix, so prefix
// "/debug" answers /debug/pprof/ and /debug/vars
func MountProfiler(r Router, prefix string) {
	h := http.StripPrefix(prefix, chimw.Profiler())
	for _, p := range []string{prefix, prefix + "/*"} {
		r.Get(p, h.ServeHTTP)
	}
}
