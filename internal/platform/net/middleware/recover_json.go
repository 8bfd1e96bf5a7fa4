package middleware

import (
	"errors"
	"net/http"
	"runtime/debug"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	pnet "vdyp/internal/platform/net"
	phttp "vdyp/internal/platform/net/http"
)

// RecoverJSON answers a panicking handler with a 500 envelope coded panic and logs
// the stack. http.ErrAbortHandler is re-raised so the server drops the connection
func RecoverJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
				panic(v)
			}
			ctx := r.Context()
			logger.C(ctx).Error().Interface("panic", v).Bytes("stack", debug.Stack()).Msg("handler panicked")

			id := pnet.RequestID(ctx)
			if id != "" {
				w.Header().Set("X-Request-ID", id)
			}
			phttp.JSON(w, http.StatusInternalServerError, phttp.Envelope{
				StatusCode: http.StatusInternalServerError,
				Status:     http.StatusText(http.StatusInternalServerError),
				Code:       perr.ErrorCodePanic,
				Error:      "internal error",
				RequestID:  id,
			})
		}()
		next.ServeHTTP(w, r)
	})
}
