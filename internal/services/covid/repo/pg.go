// Package repo provides the export sinks for loaded signals
package repo

import (
	"context"
	"strconv"

	"github.com/bytedance/sonic"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/store"
	"covidsignal/internal/services/covid/domain"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS signal_loads (
	load_id   uuid PRIMARY KEY,
	source    text NOT NULL,
	steps     integer NOT NULL,
	nodes     integer NOT NULL,
	edges     integer NOT NULL,
	features  integer NOT NULL,
	bytes     bigint NOT NULL,
	loaded_at timestamptz NOT NULL
);
CREATE TABLE IF NOT EXISTS signal_edges (
	load_id uuid NOT NULL REFERENCES signal_loads(load_id) ON DELETE CASCADE,
	idx     integer NOT NULL,
	src     bigint NOT NULL,
	dst     bigint NOT NULL,
	weight  double precision NOT NULL,
	PRIMARY KEY (load_id, idx)
);
CREATE TABLE IF NOT EXISTS signal_steps (
	load_id uuid NOT NULL REFERENCES signal_loads(load_id) ON DELETE CASCADE,
	t       integer NOT NULL,
	x       jsonb NOT NULL,
	y       double precision[] NOT NULL,
	PRIMARY KEY (load_id, t)
);`

// PGSink writes a load into postgres inside one transaction
type PGSink struct{ q store.TxRunner }

var (
	_ domain.Sink       = (*PGSink)(nil)
	_ domain.LoadLister = (*PGSink)(nil)
)

// NewPG binds a sink to the postgres seam
func NewPG(q store.TxRunner) *PGSink { return &PGSink{q: q} }

// Name implements domain.Sink
func (*PGSink) Name() string { return "pg" }

// Write implements domain.Sink. A load id already present is left untouched
func (s *PGSink) Write(ctx context.Context, e domain.Export) error {
	if s.q == nil {
		return perr.Unavailablef("postgres is not configured")
	}
	shape := e.Signal.Summary()
	err := s.q.Tx(ctx, func(q store.RowQuerier) error {
		if _, err := q.Exec(ctx, pgSchema); err != nil {
			return err
		}

		tag, err := q.Exec(ctx, `INSERT INTO signal_loads
			(load_id, source, steps, nodes, edges, features, bytes, loaded_at)
			VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (load_id) DO NOTHING`,
			e.Summary.LoadID, e.Summary.Source, shape.Steps, shape.Nodes,
			shape.Edges, shape.Features, int64(e.Summary.Bytes), e.Summary.LoadedAt,
		)
		if err != nil {
			return err
		}
		if tag != nil && tag.RowsAffected() == 0 {
			return nil
		}

		// edges go in as three parallel arrays; ordinality keeps the column order
		if _, err := q.Exec(ctx, `INSERT INTO signal_edges (load_id, idx, src, dst, weight)
			SELECT $1::uuid, (e.n - 1)::integer, e.src, e.dst, e.w
			FROM unnest($2::bigint[], $3::bigint[], $4::float8[]) WITH ORDINALITY AS e(src, dst, w, n)`,
			e.Summary.LoadID, e.Signal.EdgeIndex[0], e.Signal.EdgeIndex[1], e.Signal.EdgeWeight,
		); err != nil {
			return err
		}

		for t, snap := range e.Signal.All() {
			x, err := sonic.Marshal(snap.X.ToRows())
			if err != nil {
				return perr.WithField(perr.Wrapf(err, perr.ErrorCodeStorage, "encode step %d", t), strconv.Itoa(t))
			}
			if _, err := q.Exec(ctx,
				`INSERT INTO signal_steps (load_id, t, x, y) VALUES ($1::uuid, $2, $3::jsonb, $4::float8[])`,
				e.Summary.LoadID, t, string(x), []float64(snap.Y),
			); err != nil {
				return err
			}
		}
		return nil
	})
	if perr.CodeOf(err) != perr.ErrorCodeUnknown {
		return err
	}
	return perr.FromPostgresf(err, "write load %s", e.Summary.LoadID)
}

// Loads lists persisted loads, newest first
func (s *PGSink) Loads(ctx context.Context, limit int) ([]domain.LoadRecord, error) {
	if s.q == nil {
		return nil, perr.Unavailablef("postgres is not configured")
	}
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	out, err := store.StructsByName[domain.LoadRecord](ctx, s.q, `
		SELECT load_id::text AS load_id, source, steps::bigint AS steps, nodes::bigint AS nodes,
			edges::bigint AS edges, features::bigint AS features, bytes, loaded_at
		FROM signal_loads
		ORDER BY loaded_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, perr.FromPostgresf(err, "list loads")
	}
	return out, nil
}
