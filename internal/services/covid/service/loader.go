// Package service implements dataset loading and export for the covid signal
package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"covidsignal/internal/adapters/ingest/remote"
	"covidsignal/internal/core/payload"
	"covidsignal/internal/core/signal"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/logger"
	"covidsignal/internal/services/covid/domain"
)

// Config for the loader
type Config struct {
	// Source is the payload location, empty means remote.DefaultSource
	Source string
	// MaxBytes caps the payload size, zero means remote.DefaultMaxBytes
	MaxBytes int64
}

// Loader fetches the payload once per Load and builds fresh signals from
// the held document on every Dataset call
type Loader struct {
	fetcher remote.Fetcher
	cfg     Config

	// seams for tests
	now   func() time.Time
	newID func() string

	mu  sync.RWMutex
	doc *payload.Document
	sum domain.Summary
}

var _ domain.DatasetPort = (*Loader)(nil)

// New returns a loader; it performs no I/O
func New(f remote.Fetcher, cfg Config) *Loader {
	if cfg.Source == "" {
		cfg.Source = remote.DefaultSource
	}
	return &Loader{
		fetcher: f,
		cfg:     cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Source returns the configured payload location
func (l *Loader) Source() string { return l.cfg.Source }

// Load fetches and decodes the payload, replacing the held document only on
// success. Failures are network or decode errors; nothing is retried
func (l *Loader) Load(ctx context.Context) error {
	if l.fetcher == nil {
		return perr.Unavailablef("loader has no fetcher")
	}
	id := l.newID()
	ctx = logger.WithLoad(ctx, id, l.cfg.Source)
	log := logger.C(ctx)
	start := l.now()

	body, err := remote.ReadAll(ctx, l.fetcher, l.cfg.Source, l.cfg.MaxBytes)
	if err != nil {
		log.Error().Err(err).Msg("fetch payload")
		return perr.WithOp(err, "load")
	}
	doc, err := payload.Decode(body)
	if err != nil {
		log.Error().Err(err).Int("bytes", len(body)).Msg("decode payload")
		return perr.WithOp(err, "load")
	}

	sum := domain.Summary{
		LoadID:   id,
		Source:   l.cfg.Source,
		Bytes:    doc.Size(),
		Steps:    doc.Steps(),
		Edges:    doc.Edges(),
		LoadedAt: l.now().UTC(),
	}

	l.mu.Lock()
	l.doc, l.sum = doc, sum
	l.mu.Unlock()

	log.Info().
		Int("bytes", sum.Bytes).
		Int("steps", sum.Steps).
		Int("edges", sum.Edges).
		Dur("elapsed", l.now().Sub(start)).
		Msg("payload loaded")
	return nil
}

// Dataset builds a fresh signal from the loaded document. Calling it before a
// successful Load is an invalid argument
func (l *Loader) Dataset() (*signal.StaticGraphTemporalSignal, error) {
	_, sig, err := l.Current()
	return sig, err
}

// Summary describes the current load
func (l *Loader) Summary() (domain.Summary, error) {
	sum, _, err := l.current()
	return sum, err
}

// Current returns the summary and a fresh signal of the same load, so a
// concurrent reload cannot pair one load's summary with another's data
func (l *Loader) Current() (domain.Summary, *signal.StaticGraphTemporalSignal, error) {
	sum, doc, err := l.current()
	if err != nil {
		return domain.Summary{}, nil, err
	}
	sig, err := payload.Shape(doc)
	if err != nil {
		return domain.Summary{}, nil, err
	}
	return sum, sig, nil
}

// Describe returns the current load and its signal shape, decoding only the
// first step
func (l *Loader) Describe() (domain.Summary, signal.Summary, error) {
	sum, doc, err := l.current()
	if err != nil {
		return domain.Summary{}, signal.Summary{}, err
	}
	shape, err := doc.Describe()
	if err != nil {
		return domain.Summary{}, signal.Summary{}, err
	}
	return sum, shape, nil
}

// Graph returns the static edge index and weights of the current load
func (l *Loader) Graph() (signal.EdgeIndex, []float64, error) {
	_, doc, err := l.current()
	if err != nil {
		return signal.EdgeIndex{}, nil, err
	}
	edges, weights := doc.Graph()
	return edges, weights, nil
}

// Step decodes the snapshot at t from the current load
func (l *Loader) Step(t int) (domain.Summary, signal.Snapshot, error) {
	sum, doc, err := l.current()
	if err != nil {
		return domain.Summary{}, signal.Snapshot{}, err
	}
	snap, err := doc.Step(t)
	if err != nil {
		return domain.Summary{}, signal.Snapshot{}, err
	}
	return sum, snap, nil
}

// current reads the summary and document under one lock; the document is
// immutable so shaping happens outside it
func (l *Loader) current() (domain.Summary, *payload.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.doc == nil {
		return domain.Summary{}, nil, perr.InvalidArgf("dataset not loaded: call Load first")
	}
	return l.sum, l.doc, nil
}
