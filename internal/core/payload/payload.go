// Package payload decodes the spatiotemporal JSON document and shapes it into
// a signal. Decode parses the top level and the graph header once; Shape
// rebuilds the per-step arrays from the held document on every call
package payload

import (
	"encoding/json"
	stderrs "errors"
	"strconv"
	"sync"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"covidsignal/internal/core/signal"
	perr "covidsignal/internal/platform/errors"
)

// Top-level keys of the document; per-step keys are the decimal step index
const (
	KeyEdges       = "edges"
	KeyTimePeriods = "time_periods"
)

// Document is a decoded payload. It is immutable after Decode and safe for
// concurrent Shape calls
type Document struct {
	raw    map[string]json.RawMessage
	header header
	size   int
}

type header struct {
	Edges       [][]int64 `validate:"required,dive,len=2,dive,min=0"`
	TimePeriods *int      `validate:"required,min=0"`
}

type step struct {
	X [][]float64 `json:"X" validate:"required"`
	Y []float64   `json:"y" validate:"required"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func v() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode parses body as a JSON object and checks the graph header: an
// "edges" list of node pairs and a non-negative "time_periods" count no larger
// than the number of other entries. Step entries are kept raw until Shape
func Decode(body []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := sonic.ConfigStd.Unmarshal(body, &raw); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeDecode, "payload is not valid JSON")
	}
	if raw == nil {
		return nil, perr.Decodef("payload is not a JSON object")
	}

	var h header
	if msg, ok := raw[KeyEdges]; ok {
		if err := sonic.ConfigStd.Unmarshal(msg, &h.Edges); err != nil {
			return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeDecode, "edges must be a list of integer pairs"), KeyEdges)
		}
	}
	if msg, ok := raw[KeyTimePeriods]; ok {
		if err := sonic.ConfigStd.Unmarshal(msg, &h.TimePeriods); err != nil {
			return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeDecode, "time_periods must be an integer"), KeyTimePeriods)
		}
	}
	if err := v().Struct(h); err != nil {
		return nil, headerError(err)
	}
	// both header keys are present here, every other key is a step candidate
	if entries := len(raw) - 2; *h.TimePeriods > entries {
		return nil, perr.WithField(
			perr.Decodef("time_periods is %d but the payload holds %d step entries", *h.TimePeriods, entries),
			KeyTimePeriods)
	}

	return &Document{raw: raw, header: h, size: len(body)}, nil
}

func headerError(err error) error {
	var ve validator.ValidationErrors
	if !stderrs.As(err, &ve) || len(ve) == 0 {
		return perr.Wrap(err, perr.ErrorCodeDecode, "invalid payload header")
	}
	fe := ve[0]
	field := KeyEdges
	if fe.StructField() == "TimePeriods" {
		field = KeyTimePeriods
	}
	switch fe.Tag() {
	case "required":
		return perr.WithField(perr.Decodef("payload is missing %q", field), field)
	case "len":
		return perr.WithField(perr.Decodef("%s: edge must have exactly 2 endpoints", fe.Namespace()), field)
	default:
		return perr.WithField(perr.Decodef("%s: failed %q check (value %v)", fe.Namespace(), fe.Tag(), fe.Value()), field)
	}
}

// Steps returns the declared number of time steps
func (d *Document) Steps() int { return *d.header.TimePeriods }

// Edges returns the number of edges in the static graph
func (d *Document) Edges() int { return len(d.header.Edges) }

// Size returns the byte length of the decoded body
func (d *Document) Size() int { return d.size }

// Describe returns the signal shape without decoding every step. Nodes and
// Features come from step 0, as Summary does on a shaped signal
func (d *Document) Describe() (signal.Summary, error) {
	sum := signal.Summary{Steps: d.Steps(), Edges: d.Edges()}
	if sum.Steps > 0 {
		x, _, err := d.step(0)
		if err != nil {
			return signal.Summary{}, err
		}
		sum.Nodes, sum.Features = x.Rows, x.Cols
	}
	if n := int(d.edgeIndex().MaxNode()) + 1; n > sum.Nodes {
		sum.Nodes = n
	}
	return sum, nil
}

// Graph returns a fresh copy of the edge index with a weight of 1 per edge
func (d *Document) Graph() (signal.EdgeIndex, []float64) {
	edges := d.edgeIndex()
	weights := make([]float64, edges.Len())
	for i := range weights {
		weights[i] = 1
	}
	return edges, weights
}

// Step decodes the single snapshot at t. An index outside [0,T) is not found
func (d *Document) Step(t int) (signal.Snapshot, error) {
	if t < 0 || t >= d.Steps() {
		return signal.Snapshot{}, perr.WithField(perr.NotFoundf("time step %d out of range [0,%d)", t, d.Steps()), "t")
	}
	x, y, err := d.step(t)
	if err != nil {
		return signal.Snapshot{}, err
	}
	edges, weights := d.Graph()
	return signal.Snapshot{T: t, EdgeIndex: edges, EdgeWeight: weights, X: x, Y: y}, nil
}

// Shape builds a fresh signal from the document: the edge list transposed to
// 2xE, a weight of 1 per edge, then X and y of every step 0..T-1 in order.
// Missing step keys, wrong types and ragged matrices are decode errors
func Shape(d *Document) (*signal.StaticGraphTemporalSignal, error) {
	if d == nil {
		return nil, perr.InvalidArgf("nil document")
	}
	edges, weights := d.Graph()

	n := min(d.Steps(), len(d.raw))
	features := make([]signal.Matrix, 0, n)
	targets := make([]signal.Vector, 0, n)
	for t := range d.Steps() {
		x, y, err := d.step(t)
		if err != nil {
			return nil, err
		}
		features = append(features, x)
		targets = append(targets, y)
	}
	return signal.New(edges, weights, features, targets)
}

func (d *Document) edgeIndex() signal.EdgeIndex {
	e := len(d.header.Edges)
	idx := signal.EdgeIndex{make([]int64, e), make([]int64, e)}
	for i, pair := range d.header.Edges {
		idx[0][i] = pair[0]
		idx[1][i] = pair[1]
	}
	return idx
}

func (d *Document) step(t int) (signal.Matrix, signal.Vector, error) {
	key := strconv.Itoa(t)
	msg, ok := d.raw[key]
	if !ok {
		return signal.Matrix{}, nil, perr.WithField(perr.Decodef("payload is missing step %q", key), key)
	}
	var s step
	if err := sonic.ConfigStd.Unmarshal(msg, &s); err != nil {
		return signal.Matrix{}, nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeDecode, "step %s has the wrong shape", key), key)
	}
	if err := v().Struct(s); err != nil {
		field := key + ".X"
		var ve validator.ValidationErrors
		if stderrs.As(err, &ve) && len(ve) > 0 && ve[0].StructField() == "Y" {
			field = key + ".y"
		}
		return signal.Matrix{}, nil, perr.WithField(perr.Decodef("step %s is missing %s", key, field), field)
	}
	x, err := signal.MatrixFromRows(s.X)
	if err != nil {
		return signal.Matrix{}, nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeDecode, "step %s features", key), key+".X")
	}
	return x, signal.Vector(s.Y), nil
}
