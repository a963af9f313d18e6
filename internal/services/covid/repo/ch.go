package repo

import (
	"context"
	"math"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/store"
	"covidsignal/internal/services/covid/domain"
)

const chSchema = `
CREATE TABLE IF NOT EXISTS signal_observations (
	load_id   String,
	loaded_at DateTime64(3, 'UTC'),
	t         UInt32,
	node      UInt32,
	x         Array(Float64),
	y         Float64
) ENGINE = MergeTree
ORDER BY (load_id, t, node)`

var chColumns = []string{"load_id", "loaded_at", "t", "node", "x", "y"}

// DefaultCHBatch is the number of rows sent per insert
const DefaultCHBatch = 50_000

// CHSink flattens a load into one clickhouse row per (step, node)
type CHSink struct {
	ch    store.Clickhouse
	batch int
}

var _ domain.Sink = (*CHSink)(nil)

// NewCH binds a sink to the clickhouse seam; batch <= 0 means DefaultCHBatch
func NewCH(ch store.Clickhouse, batch int) *CHSink {
	if batch <= 0 {
		batch = DefaultCHBatch
	}
	return &CHSink{ch: ch, batch: batch}
}

// Name implements domain.Sink
func (*CHSink) Name() string { return "ch" }

// Write implements domain.Sink. A node with no target in its step gets NaN
func (s *CHSink) Write(ctx context.Context, e domain.Export) error {
	if s.ch == nil {
		return perr.Unavailablef("clickhouse is not configured")
	}
	if err := s.ch.Exec(ctx, chSchema); err != nil {
		return err
	}

	rows := make([][]any, 0, s.batch)
	flush := func() error {
		if len(rows) == 0 {
			return nil
		}
		err := s.ch.Insert(ctx, "signal_observations", chColumns, rows)
		rows = rows[:0]
		return err
	}

	for t, snap := range e.Signal.All() {
		for node := range snap.X.Rows {
			y := math.NaN()
			if node < len(snap.Y) {
				y = snap.Y[node]
			}
			rows = append(rows, []any{
				e.Summary.LoadID, e.Summary.LoadedAt, uint32(t), uint32(node),
				append([]float64(nil), snap.X.Row(node)...), y,
			})
			if len(rows) == s.batch {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}
	return flush()
}
