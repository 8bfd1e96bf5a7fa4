// Package logger holds the process root zerolog logger and the run, polygon and
// request scope that C(ctx) stamps onto every line
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"vdyp/internal/platform/config/raw"
)

// Logger is the logging type used across the module
type Logger = zerolog.Logger

// Options configures a logger
type Options struct {
	Level   string
	Format  string // json or console
	Service string
	// Writer defaults to stderr; stdout may carry results
	Writer      io.Writer
	Caller      bool
	SampleEvery int
	Fields      map[string]string
}

// FromEnv reads LOG_LEVEL, LOG_FORMAT, LOG_SERVICE, LOG_CALLER and LOG_SAMPLE_EVERY.
// It uses the raw reader since the config package logs through this one
func FromEnv() Options {
	rc := raw.New().Prefix("LOG_")
	return Options{
		Level:       rc.Get("LEVEL", "info"),
		Format:      strings.ToLower(rc.Get("FORMAT", "console")),
		Service:     rc.Get("SERVICE", ""),
		Caller:      rc.GetBool("CALLER", false),
		SampleEvery: rc.GetInt("SAMPLE_EVERY", 0),
	}
}

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano
}

// New builds a logger from opt. Unknown levels fall back to info
func New(opt Options) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(opt.Level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	w := opt.Writer
	if w == nil {
		w = os.Stderr
	}
	if opt.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	c := zerolog.New(w).Level(lvl).With().Timestamp()
	if opt.Service != "" {
		c = c.Str("service", opt.Service)
	}
	for k, v := range opt.Fields {
		c = c.Str(k, v)
	}
	if opt.Caller {
		c = c.Caller()
	}
	l := c.Logger()
	if opt.SampleEvery > 1 {
		l = l.Sample(&zerolog.BasicSampler{N: uint32(opt.SampleEvery)})
	}
	return &l
}

var (
	root    atomic.Pointer[Logger]
	envOnce sync.Once
)

// Init replaces the root logger
func Init(opt Options) { root.Store(New(opt)) }

// Get returns the root logger, built from the environment on first use
func Get() *Logger {
	if l := root.Load(); l != nil {
		return l
	}
	envOnce.Do(func() { root.CompareAndSwap(nil, New(FromEnv())) })
	return root.Load()
}

// Named returns a child of the root logger with a component field
func Named(component string) *Logger {
	if component == "" {
		return Get()
	}
	l := Get().With().Str("component", component).Logger()
	return &l
}

// scope is what C(ctx) adds to a line. It is copied on every With call
type scope struct {
	requestID string
	runID     string
	polygon   string
}

type scopeKey struct{}

func scopeOf(ctx context.Context) scope {
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

func with(ctx context.Context, set func(*scope)) context.Context {
	s := scopeOf(ctx)
	set(&s)
	return context.WithValue(ctx, scopeKey{}, s)
}

// WithRequest scopes ctx to an HTTP request. An empty id leaves ctx alone
func WithRequest(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return with(ctx, func(s *scope) { s.requestID = id })
}

// WithRun scopes ctx to a fip run. An empty id leaves ctx alone
func WithRun(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return with(ctx, func(s *scope) { s.runID = id })
}

// WithPolygon scopes ctx to the polygon being processed
func WithPolygon(ctx context.Context, polygon string) context.Context {
	return with(ctx, func(s *scope) { s.polygon = polygon })
}

// RunID returns the run id stored by WithRun, or ""
func RunID(ctx context.Context) string { return scopeOf(ctx).runID }

// Polygon returns the polygon stored by WithPolygon, or ""
func Polygon(ctx context.Context) string { return scopeOf(ctx).polygon }

// C returns a child of the root logger carrying the request, run and polygon of ctx
func C(ctx context.Context) *Logger {
	s := scopeOf(ctx)
	if s == (scope{}) {
		return Get()
	}
	c := Get().With()
	if s.requestID != "" {
		c = c.Str("request_id", s.requestID)
	}
	if s.runID != "" {
		c = c.Str("run_id", s.runID)
	}
	if s.polygon != "" {
		c = c.Str("polygon", s.polygon)
	}
	l := c.Logger()
	return &l
}
