package middleware

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"vdyp/internal/platform/logger"
	pnet "vdyp/internal/platform/net"
)

// AccessLogOptions configures the access log
type AccessLogOptions struct {
	// Slow is the duration from which a request is logged at warn. Zero never warns
	Slow time.Duration
}

// AccessLog copies the chi request id into the logging scope, then writes one
// "request done" line per request. It must run after RequestID
func AccessLog(opt AccessLogOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := pnet.WithRequest(r.Context(), chimw.GetReqID(r.Context()))
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				took := time.Since(start)
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				log := logger.C(ctx)
				ev := log.Info()
				if opt.Slow > 0 && took >= opt.Slow {
					ev = log.Warn()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", status).
					Int("bytes", ww.BytesWritten()).
					Dur("elapsed", took).
					Msg("request done")
			}()
			next.ServeHTTP(ww, r.WithContext(ctx))
		})
	}
}
