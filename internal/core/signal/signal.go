// Package signal holds the static-graph temporal signal container handed to
// training code: one fixed edge set plus per-time-step node features and
// targets, iterable step by step.
package signal

import (
	"iter"
	"math"

	perr "covidsignal/internal/platform/errors"
)

// EdgeIndex is a 2xE edge list; column i is edge (EdgeIndex[0][i], EdgeIndex[1][i])
type EdgeIndex [2][]int64

// Len returns the number of edges
func (e EdgeIndex) Len() int { return len(e[0]) }

// Edge returns the endpoints of edge i
func (e EdgeIndex) Edge(i int) (src, dst int64) { return e[0][i], e[1][i] }

// MaxNode returns the largest node index referenced, or -1 with no edges
func (e EdgeIndex) MaxNode() int64 {
	max := int64(-1)
	for _, row := range e {
		for _, n := range row {
			if n > max {
				max = n
			}
		}
	}
	return max
}

// Clone returns a deep copy
func (e EdgeIndex) Clone() EdgeIndex {
	return EdgeIndex{append([]int64(nil), e[0]...), append([]int64(nil), e[1]...)}
}

// Equal reports element-wise equality
func (e EdgeIndex) Equal(o EdgeIndex) bool {
	for r := range e {
		if len(e[r]) != len(o[r]) {
			return false
		}
		for i := range e[r] {
			if e[r][i] != o[r][i] {
				return false
			}
		}
	}
	return true
}

// StaticGraphTemporalSignal pairs a static graph with per-step features and targets
type StaticGraphTemporalSignal struct {
	EdgeIndex  EdgeIndex
	EdgeWeight []float64
	Features   []Matrix
	Targets    []Vector
}

// Snapshot is one time step over the static graph. EdgeIndex and EdgeWeight
// are shared with the parent signal and must be treated as read-only
type Snapshot struct {
	T          int
	EdgeIndex  EdgeIndex
	EdgeWeight []float64
	X          Matrix
	Y          Vector
}

// Summary describes the shape of a signal
type Summary struct {
	Steps    int `json:"steps"`
	Nodes    int `json:"nodes"`
	Edges    int `json:"edges"`
	Features int `json:"features"`
}

// New builds a signal and checks the length invariants: one weight per edge
// and as many target vectors as feature matrices
func New(edges EdgeIndex, weights []float64, features []Matrix, targets []Vector) (*StaticGraphTemporalSignal, error) {
	if len(edges[0]) != len(edges[1]) {
		return nil, perr.InvalidArgf("edge index rows differ: %d vs %d", len(edges[0]), len(edges[1]))
	}
	if len(weights) != edges.Len() {
		return nil, perr.InvalidArgf("edge weights: got %d, want %d", len(weights), edges.Len())
	}
	if len(features) != len(targets) {
		return nil, perr.InvalidArgf("features/targets length mismatch: %d vs %d", len(features), len(targets))
	}
	return &StaticGraphTemporalSignal{
		EdgeIndex:  edges,
		EdgeWeight: weights,
		Features:   features,
		Targets:    targets,
	}, nil
}

// Len returns the number of time steps
func (s *StaticGraphTemporalSignal) Len() int { return len(s.Features) }

// At returns the snapshot for time step t
func (s *StaticGraphTemporalSignal) At(t int) (Snapshot, error) {
	if t < 0 || t >= s.Len() {
		return Snapshot{}, perr.WithField(perr.NotFoundf("time step %d out of range [0,%d)", t, s.Len()), "t")
	}
	return s.snapshot(t), nil
}

func (s *StaticGraphTemporalSignal) snapshot(t int) Snapshot {
	return Snapshot{
		T:          t,
		EdgeIndex:  s.EdgeIndex,
		EdgeWeight: s.EdgeWeight,
		X:          s.Features[t],
		Y:          s.Targets[t],
	}
}

// All yields every snapshot in time order
func (s *StaticGraphTemporalSignal) All() iter.Seq2[int, Snapshot] {
	return func(yield func(int, Snapshot) bool) {
		for t := range s.Features {
			if !yield(t, s.snapshot(t)) {
				return
			}
		}
	}
}

// Iterator returns a resettable cursor over the snapshots
func (s *StaticGraphTemporalSignal) Iterator() *Iterator { return &Iterator{sig: s} }

// Summary returns the signal shape. Nodes is the larger of the feature row
// count and the highest node index in the edge set plus one
func (s *StaticGraphTemporalSignal) Summary() Summary {
	sum := Summary{Steps: s.Len(), Edges: s.EdgeIndex.Len()}
	if len(s.Features) > 0 {
		sum.Nodes = s.Features[0].Rows
		sum.Features = s.Features[0].Cols
	}
	if n := int(s.EdgeIndex.MaxNode()) + 1; n > sum.Nodes {
		sum.Nodes = n
	}
	return sum
}

// Equal reports element-wise equality of all four fields
func (s *StaticGraphTemporalSignal) Equal(o *StaticGraphTemporalSignal) bool {
	if s == nil || o == nil {
		return s == o
	}
	if !s.EdgeIndex.Equal(o.EdgeIndex) || !Vector(s.EdgeWeight).Equal(o.EdgeWeight) {
		return false
	}
	if len(s.Features) != len(o.Features) || len(s.Targets) != len(o.Targets) {
		return false
	}
	for t := range s.Features {
		if !s.Features[t].Equal(o.Features[t]) || !s.Targets[t].Equal(o.Targets[t]) {
			return false
		}
	}
	return true
}

// Split cuts the signal in time: the first floor(ratio*T) steps go to train,
// the rest to test. Both halves share the static graph
func Split(s *StaticGraphTemporalSignal, trainRatio float64) (train, test *StaticGraphTemporalSignal, err error) {
	if s == nil {
		return nil, nil, perr.InvalidArgf("nil signal")
	}
	if !(trainRatio > 0 && trainRatio < 1) {
		return nil, nil, perr.WithField(perr.InvalidArgf("train ratio %v must be in (0,1)", trainRatio), "train_ratio")
	}
	cut := int(math.Floor(trainRatio * float64(s.Len())))
	train = &StaticGraphTemporalSignal{
		EdgeIndex:  s.EdgeIndex,
		EdgeWeight: s.EdgeWeight,
		Features:   s.Features[:cut:cut],
		Targets:    s.Targets[:cut:cut],
	}
	test = &StaticGraphTemporalSignal{
		EdgeIndex:  s.EdgeIndex,
		EdgeWeight: s.EdgeWeight,
		Features:   s.Features[cut:],
		Targets:    s.Targets[cut:],
	}
	return train, test, nil
}

// Iterator walks snapshots in order; it is not safe for concurrent use
type Iterator struct {
	sig  *StaticGraphTemporalSignal
	next int
}

// Next returns the next snapshot, or false once every step was visited
func (it *Iterator) Next() (Snapshot, bool) {
	if it.next >= it.sig.Len() {
		return Snapshot{}, false
	}
	snap := it.sig.snapshot(it.next)
	it.next++
	return snap, true
}

// Reset rewinds the iterator to the first step
func (it *Iterator) Reset() { it.next = 0 }
