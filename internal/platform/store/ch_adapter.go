package store

import (
	"context"
	"errors"
	"time"

	"covidsignal/internal/platform/logger"
	"covidsignal/internal/platform/store/ch"
)

// chClient is what the adapter needs from *ch.CH
type chClient interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Insert(ctx context.Context, table string, columns []string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Ping(ctx context.Context) error
	Close() error
}

// chAdapter exposes a clickhouse client as the Clickhouse seam, optionally
// logging one line per statement
type chAdapter struct {
	c   chClient
	log *logger.Logger
}

var _ Clickhouse = (*chAdapter)(nil)

func newCHAdapter(c chClient) *chAdapter { return &chAdapter{c: c} }

// tracing turns on statement logging under component=ch
func (a *chAdapter) tracing(root logger.Logger) {
	l := root.With().Str("component", "ch").Logger()
	a.log = &l
}

func (a *chAdapter) Exec(ctx context.Context, sql string, args ...any) error {
	done := a.timed(sql, 0)
	err := a.c.Exec(ctx, sql, args...)
	done(err)
	return err
}

func (a *chAdapter) Insert(ctx context.Context, table string, columns []string, rows [][]any) error {
	done := a.timed("INSERT INTO "+table, len(rows))
	err := a.c.Insert(ctx, table, columns, rows)
	done(err)
	return err
}

func (a *chAdapter) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	done := a.timed(sql, 0)
	r, err := a.c.Query(ctx, sql, args...)
	done(err)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

func (a *chAdapter) Ping(ctx context.Context) error {
	if a == nil || a.c == nil {
		return errors.New("store: nil clickhouse adapter")
	}
	return a.c.Ping(ctx)
}

func (a *chAdapter) Close() error { return a.c.Close() }

// timed starts a clock for sql and returns the func that logs the outcome
func (a *chAdapter) timed(sql string, rows int) func(error) {
	if a.log == nil {
		return func(error) {}
	}
	start := time.Now()
	return func(err error) {
		a.log.Info().
			Float64("elapsed_ms", float64(time.Since(start).Microseconds())/1e3).
			Str("sql", sql).
			Int("rows", rows).
			Err(err).
			Msg("ch query")
	}
}

// chRows narrows ch.Rows (whose Close returns an error) to Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
