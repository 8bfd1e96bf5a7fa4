package httpkit

import (
	"compress/flate"
	"net/http"
	"time"

	"vdyp/internal/platform/config"
	"vdyp/internal/platform/net/middleware"
)

// StackOptions tunes CommonStack
type StackOptions struct {
	Timeout       time.Duration
	SlowRequest   time.Duration
	CORSOrigins   []string
	MaxInFlight   int
	Backlog       int
	BacklogWait   time.Duration
	AllowContents []string
}

// StackFromConfig reads TIMEOUT, SLOW_REQUEST, CORS_ORIGINS, MAX_IN_FLIGHT, BACKLOG and
// BACKLOG_WAIT from cfg, typically the API_ scope
func StackFromConfig(c config.Conf) StackOptions {
	return StackOptions{
		Timeout:       c.MayDuration("TIMEOUT", 30*time.Second),
		SlowRequest:   c.MayDuration("SLOW_REQUEST", 2*time.Second),
		CORSOrigins:   c.MayCSV("CORS_ORIGINS", nil),
		MaxInFlight:   c.MayInt("MAX_IN_FLIGHT", 64),
		Backlog:       c.MayInt("BACKLOG", 256),
		BacklogWait:   c.MayDuration("BACKLOG_WAIT", 10*time.Second),
		AllowContents: []string{"application/json"},
	}
}

// CommonStack is the middleware chain every API route runs through, outermost first
func CommonStack(o StackOptions) []func(http.Handler) http.Handler {
	mws := []func(http.Handler) http.Handler{
		middleware.RequestID(),
		middleware.RealIP(),
		middleware.AccessLog(middleware.AccessLogOptions{Slow: o.SlowRequest}),
		middleware.RecoverJSON,
		middleware.NoCache(),
		middleware.CORS(middleware.CORSOptions{AllowedOrigins: o.CORSOrigins}),
		middleware.Compress(flate.BestSpeed),
		middleware.StripSlashes(),
	}
	if len(o.AllowContents) > 0 {
		mws = append(mws, middleware.AllowContentType(o.AllowContents...))
	}
	if o.MaxInFlight > 0 {
		mws = append(mws, middleware.ThrottleBacklog(o.MaxInFlight, o.Backlog, o.BacklogWait))
	}
	if o.Timeout > 0 {
		mws = append(mws, middleware.Timeout(o.Timeout))
	}
	return mws
}
