// Package domain holds the covid dataset service contracts and DTOs
package domain

import (
	"time"

	"covidsignal/internal/core/signal"
)

// Summary describes the current load: where it came from and the header
// counts of the decoded document
type Summary struct {
	LoadID   string    `json:"load_id" example:"3f0c9b7e-5f8e-4e8b-9d7a-2b0d6c1f4a11"`
	Source   string    `json:"source"`
	Bytes    int       `json:"bytes" example:"94371840"`
	Steps    int       `json:"steps" example:"335"`
	Edges    int       `json:"edges" example:"11015"`
	LoadedAt time.Time `json:"loaded_at"`
}

// Export is one load handed to a sink
type Export struct {
	Summary Summary
	Signal  *signal.StaticGraphTemporalSignal
}

// LoadRecord is a persisted load as listed back from postgres
type LoadRecord struct {
	LoadID   string    `db:"load_id" json:"load_id"`
	Source   string    `db:"source" json:"source"`
	Steps    int64     `db:"steps" json:"steps"`
	Nodes    int64     `db:"nodes" json:"nodes"`
	Edges    int64     `db:"edges" json:"edges"`
	Features int64     `db:"features" json:"features"`
	Bytes    int64     `db:"bytes" json:"bytes"`
	LoadedAt time.Time `db:"loaded_at" json:"loaded_at"`
}

// SplitInput asks for a temporal train/test split
type SplitInput struct {
	TrainRatio float64 `json:"train_ratio" validate:"ratio" example:"0.8"`
}

// SplitOutput reports the step counts of each half
type SplitOutput struct {
	TrainSteps int `json:"train_steps"`
	TestSteps  int `json:"test_steps"`
}

// EdgesOutput is the static graph of the current load
type EdgesOutput struct {
	Src    []int64   `json:"src"`
	Dst    []int64   `json:"dst"`
	Weight []float64 `json:"weight"`
}

// SnapshotOutput is one time step in row form
type SnapshotOutput struct {
	LoadID string      `json:"load_id"`
	T      int         `json:"t"`
	X      [][]float64 `json:"x"`
	Y      []float64   `json:"y"`
}

// DatasetOutput pairs the load summary with the shape of the signal
type DatasetOutput struct {
	Load  Summary        `json:"load"`
	Shape signal.Summary `json:"shape"`
}
