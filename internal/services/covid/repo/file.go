package repo

import (
	"context"
	"os"
	"path/filepath"

	"covidsignal/internal/core/bundle"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/services/covid/domain"
)

// FileSink writes a msgpack bundle to a local path, replacing it atomically
type FileSink struct{ Path string }

var _ domain.Sink = FileSink{}

// Name implements domain.Sink
func (FileSink) Name() string { return "file" }

// Write implements domain.Sink
func (s FileSink) Write(_ context.Context, e domain.Export) error {
	if s.Path == "" {
		return perr.InvalidArgf("bundle path is required")
	}
	dir := filepath.Dir(s.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.Path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	b := bundle.FromSignal(e.Summary.LoadID, e.Summary.Source, e.Summary.LoadedAt, e.Signal)
	if err := bundle.Write(tmp, b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.Path)
}
