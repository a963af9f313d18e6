package store

import (
	"errors"

	"covidsignal/internal/platform/logger"
)

// Option configures a Store before its backends are opened
type Option func(*Store) error

// WithLogger sets the logger used by the sql tracers
func WithLogger(log logger.Logger) Option {
	return func(s *Store) error {
		s.Log = log
		return nil
	}
}

// WithPG installs a ready postgres seam; Open will not dial postgres
func WithPG(q TxRunner) Option {
	return func(s *Store) error {
		if q == nil {
			return errors.New("store: nil pg seam")
		}
		s.PG = q
		return nil
	}
}

// WithCH installs a ready clickhouse seam; Open will not dial clickhouse
func WithCH(c Clickhouse) Option {
	return func(s *Store) error {
		if c == nil {
			return errors.New("store: nil ch seam")
		}
		s.CH = c
		return nil
	}
}
