// Package bundle is the msgpack encoding of a loaded signal, used by the file
// and object-store exporters
package bundle

import (
	"io"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"covidsignal/internal/core/signal"
	perr "covidsignal/internal/platform/errors"
)

// Version is bumped when the encoded layout changes
const Version = 1

// Bundle is one load in transport form
type Bundle struct {
	Version  int       `msgpack:"v"`
	LoadID   string    `msgpack:"load_id"`
	Source   string    `msgpack:"source"`
	LoadedAt time.Time `msgpack:"loaded_at"`
	Src      []int64   `msgpack:"src"`
	Dst      []int64   `msgpack:"dst"`
	Weights  []float64 `msgpack:"w"`
	Steps    []Step    `msgpack:"steps"`
}

// Step holds X row-major with its shape, plus y
type Step struct {
	Rows int       `msgpack:"r"`
	Cols int       `msgpack:"c"`
	X    []float64 `msgpack:"x"`
	Y    []float64 `msgpack:"y"`
}

// FromSignal copies sig into a bundle
func FromSignal(loadID, source string, loadedAt time.Time, sig *signal.StaticGraphTemporalSignal) Bundle {
	b := Bundle{
		Version:  Version,
		LoadID:   loadID,
		Source:   source,
		LoadedAt: loadedAt.UTC(),
		Src:      sig.EdgeIndex[0],
		Dst:      sig.EdgeIndex[1],
		Weights:  sig.EdgeWeight,
		Steps:    make([]Step, sig.Len()),
	}
	for t, snap := range sig.All() {
		b.Steps[t] = Step{Rows: snap.X.Rows, Cols: snap.X.Cols, X: snap.X.Data, Y: snap.Y}
	}
	return b
}

// Signal rebuilds the container, checking every step shape
func (b Bundle) Signal() (*signal.StaticGraphTemporalSignal, error) {
	features := make([]signal.Matrix, len(b.Steps))
	targets := make([]signal.Vector, len(b.Steps))
	for t, s := range b.Steps {
		if s.Rows*s.Cols != len(s.X) {
			return nil, perr.Decodef("bundle step %d: %dx%d matrix with %d values", t, s.Rows, s.Cols, len(s.X))
		}
		features[t] = signal.Matrix{Rows: s.Rows, Cols: s.Cols, Data: s.X}
		targets[t] = s.Y
	}
	return signal.New(signal.EdgeIndex{b.Src, b.Dst}, b.Weights, features, targets)
}

// Marshal encodes b
func Marshal(b Bundle) ([]byte, error) {
	data, err := msgpack.Marshal(b)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "encode bundle")
	}
	return data, nil
}

// Unmarshal decodes data and rejects unknown versions
func Unmarshal(data []byte) (Bundle, error) {
	var b Bundle
	if err := msgpack.Unmarshal(data, &b); err != nil {
		return Bundle{}, perr.Wrap(err, perr.ErrorCodeDecode, "decode bundle")
	}
	if b.Version != Version {
		return Bundle{}, perr.Decodef("bundle version %d, want %d", b.Version, Version)
	}
	return b, nil
}

// Write streams the encoding of b to w
func Write(w io.Writer, b Bundle) error {
	if err := msgpack.NewEncoder(w).Encode(b); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "write bundle")
	}
	return nil
}

// Read decodes one bundle from r
func Read(r io.Reader) (Bundle, error) {
	var b Bundle
	if err := msgpack.NewDecoder(r).Decode(&b); err != nil {
		return Bundle{}, perr.Wrap(err, perr.ErrorCodeDecode, "read bundle")
	}
	if b.Version != Version {
		return Bundle{}, perr.Decodef("bundle version %d, want %d", b.Version, Version)
	}
	return b, nil
}
