package pg

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"covidsignal/internal/platform/logger"
)

// QueryEvent describes one executed statement
type QueryEvent struct {
	SQL       string
	Args      any
	ElapsedUS int64
	Err       error
	Slow      bool
}

// QueryTracer receives one event per statement
type QueryTracer interface {
	OnQuery(ctx context.Context, ev QueryEvent)
}

// Tracer logs every statement at debug level or louder regardless of the
// root level: failures at error, slow statements at warn
func Tracer(root logger.Logger) QueryTracer {
	return logTracer{root.Level(zerolog.DebugLevel).With().Str("component", "pg").Logger()}
}

type logTracer struct{ log logger.Logger }

func (l logTracer) OnQuery(ctx context.Context, ev QueryEvent) {
	var evt *zerolog.Event
	switch {
	case ev.Err != nil:
		evt = l.log.Error().Err(ev.Err)
	case ev.Slow:
		evt = l.log.Warn()
	default:
		evt = l.log.Debug()
	}
	if id := logger.LoadID(ctx); id != "" {
		evt = evt.Str("load_id", id)
	}
	// bulk export args are large arrays; only their count is logged
	n := 0
	if xs, ok := ev.Args.([]any); ok {
		n = len(xs)
	}
	evt.Float64("elapsed_ms", float64(ev.ElapsedUS)/1e3).
		Bool("slow", ev.Slow).
		Str("sql", oneLine(ev.SQL)).
		Int("args", n).
		Msg("pg query")
}

// oneLine collapses every whitespace run to one space
func oneLine(s string) string { return strings.Join(strings.Fields(s), " ") }
