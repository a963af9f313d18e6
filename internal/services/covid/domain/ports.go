package domain

import (
	"context"

	"covidsignal/internal/core/signal"
)

// DatasetPort loads the payload and hands out fresh signals built from it
type DatasetPort interface {
	Load(ctx context.Context) error
	Dataset() (*signal.StaticGraphTemporalSignal, error)
	Summary() (Summary, error)
	// Current pairs the summary with a signal built from the same load
	Current() (Summary, *signal.StaticGraphTemporalSignal, error)
	// Describe returns the signal shape without building every step
	Describe() (Summary, signal.Summary, error)
	Graph() (signal.EdgeIndex, []float64, error)
	Step(t int) (Summary, signal.Snapshot, error)
}

// Sink persists one load somewhere
type Sink interface {
	Name() string
	Write(ctx context.Context, e Export) error
}

// LoadLister lists persisted loads, newest first
type LoadLister interface {
	Loads(ctx context.Context, limit int) ([]LoadRecord, error)
}
