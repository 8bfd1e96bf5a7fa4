package pg

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"vdyp/internal/platform/logger"
)

// QueryEvent is one finished statement
type QueryEvent struct {
	SQL     string
	Args    []any
	Elapsed time.Duration
	Err     error
	Slow    bool
}

// QueryTracer receives every finished statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// TracerFunc adapts a function to QueryTracer
type TracerFunc func(ctx context.Context, ev QueryEvent)

func (f TracerFunc) OnQuery(ctx context.Context, ev QueryEvent) { f(ctx, ev) }

// Tracer logs every statement at info, slow ones at warn, whatever the root level.
// Statements issued for a run or a polygon carry its id
func Tracer(log logger.Logger) QueryTracer {
	l := log.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()
	return TracerFunc(func(ctx context.Context, ev QueryEvent) {
		e := l.Info()
		if ev.Slow {
			e = l.Warn()
		}
		if id := logger.RunID(ctx); id != "" {
			e = e.Str("run_id", id)
		}
		if p := logger.Polygon(ctx); p != "" {
			e = e.Str("polygon", p)
		}
		e.Float64("elapsed_ms", float64(ev.Elapsed.Microseconds())/1000).
			Bool("slow", ev.Slow).
			Str("sql", oneLine(ev.SQL)).
			Interface("args", ev.Args).
			Err(ev.Err).
			Msg("pg query")
	})
}

// oneLine collapses the whitespace of a multi line statement
func oneLine(sql string) string { return strings.Join(strings.Fields(sql), " ") }
