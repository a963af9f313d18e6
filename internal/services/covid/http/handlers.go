// Package http provides http transport for the covid dataset
package http

import (
	stdhttp "net/http"
	"strconv"

	lru "github.com/hashicorp/golang-lru/v2"

	"covidsignal/internal/core/signal"
	"covidsignal/internal/modkit/httpkit"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/services/covid/domain"
)

// DefaultSnapshotCache is the number of snapshots kept in memory
const DefaultSnapshotCache = 256

// Options tune the handlers
type Options struct {
	// SnapshotCache is the LRU size, zero means DefaultSnapshotCache
	SnapshotCache int
	// Loads lists persisted loads; GET /loads is not mounted when nil
	Loads domain.LoadLister
}

// Register mounts dataset endpoints on the given router
func Register(r httpkit.Router, port domain.DatasetPort, o Options) {
	size := o.SnapshotCache
	if size <= 0 {
		size = DefaultSnapshotCache
	}
	cache, _ := lru.New[string, domain.SnapshotOutput](size)
	h := &handlers{port: port, snaps: cache, loads: o.Loads}

	httpkit.Get(r, "/", h.summary)
	httpkit.Get(r, "/edges", h.edges)
	httpkit.Get(r, "/snapshots/{t}", h.snapshot)
	httpkit.PostJSON[domain.SplitInput](r, "/split", h.split)
	httpkit.Post(r, "/reload", h.reload)
	if h.loads != nil {
		httpkit.Get(r, "/loads", h.listLoads)
	}
}

type handlers struct {
	port  domain.DatasetPort
	snaps *lru.Cache[string, domain.SnapshotOutput]
	loads domain.LoadLister
}

// GET /dataset
func (h *handlers) summary(*stdhttp.Request) (any, error) {
	sum, shape, err := h.port.Describe()
	if err != nil {
		return nil, err
	}
	return domain.DatasetOutput{Load: sum, Shape: shape}, nil
}

// GET /dataset/edges
func (h *handlers) edges(*stdhttp.Request) (any, error) {
	idx, weights, err := h.port.Graph()
	if err != nil {
		return nil, err
	}
	return domain.EdgesOutput{Src: idx[0], Dst: idx[1], Weight: weights}, nil
}

// GET /dataset/snapshots/{t}; cached per load id and step
func (h *handlers) snapshot(r *stdhttp.Request) (any, error) {
	raw := httpkit.Param(r, "t")
	t, err := strconv.Atoi(raw)
	if err != nil {
		return nil, perr.WithField(perr.InvalidArgf("time step %q is not an integer", raw), "t")
	}
	sum, err := h.port.Summary()
	if err != nil {
		return nil, err
	}

	if out, ok := h.snaps.Get(snapshotKey(sum.LoadID, t)); ok {
		return httpkit.OK(out).WithHeader("X-Cache", "hit"), nil
	}

	// a reload may land after the lookup; key by the load the step came from
	sum, snap, err := h.port.Step(t)
	if err != nil {
		return nil, err
	}
	out := snapshotOutput(sum.LoadID, snap)
	h.snaps.Add(snapshotKey(sum.LoadID, t), out)
	return httpkit.OK(out).WithHeader("X-Cache", "miss"), nil
}

func snapshotKey(loadID string, t int) string { return loadID + "/" + strconv.Itoa(t) }

func snapshotOutput(loadID string, s signal.Snapshot) domain.SnapshotOutput {
	y := s.Y.Clone()
	if y == nil {
		y = []float64{}
	}
	return domain.SnapshotOutput{LoadID: loadID, T: s.T, X: s.X.ToRows(), Y: y}
}

// POST /dataset/split
func (h *handlers) split(_ *stdhttp.Request, in domain.SplitInput) (any, error) {
	sig, err := h.port.Dataset()
	if err != nil {
		return nil, err
	}
	train, test, err := signal.Split(sig, in.TrainRatio)
	if err != nil {
		return nil, err
	}
	return domain.SplitOutput{TrainSteps: train.Len(), TestSteps: test.Len()}, nil
}

// POST /dataset/reload
func (h *handlers) reload(r *stdhttp.Request) (any, error) {
	if err := h.port.Load(r.Context()); err != nil {
		return nil, err
	}
	return h.port.Summary()
}

// GET /dataset/loads?limit=n
func (h *handlers) listLoads(r *stdhttp.Request) (any, error) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, perr.WithField(perr.InvalidArgf("limit must be a positive integer"), "limit")
		}
		limit = n
	}
	rows, err := h.loads.Loads(r.Context(), limit)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []domain.LoadRecord{}
	}
	return rows, nil
}
