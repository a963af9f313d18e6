// Package store opens the optional export backends (postgres, clickhouse)
// behind small seams the sinks and tests can replace
package store

import (
	"context"
	"errors"
	"fmt"

	"covidsignal/internal/platform/logger"
)

// Store is the set of enabled backends; a nil seam means disabled
type Store struct {
	Log logger.Logger // tracer output; zero value discards
	PG  TxRunner
	CH  Clickhouse
}

// Open dials every backend cfg enables that was not injected through opts.
// A failure closes whatever was opened before it
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}

	steps := []struct {
		name string
		want bool
		open func() error
	}{
		{"pg", cfg.PG.Enabled && s.PG == nil, func() (err error) { s.PG, err = openPG(ctx, cfg, s); return }},
		{"ch", cfg.CH.Enabled && s.CH == nil, func() (err error) { s.CH, err = openCH(ctx, cfg, s); return }},
	}
	for _, st := range steps {
		if !st.want {
			continue
		}
		if err := st.open(); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("open %s: %w", st.name, err)
		}
	}
	return s, nil
}

// Guard pings each backend that supports it and joins the failures, each
// prefixed with the backend name
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return errors.New("nil store")
	}
	return s.each(func(v any) error {
		if p, ok := v.(Pinger); ok {
			return p.Ping(ctx)
		}
		return nil
	})
}

// Close closes each backend that supports it
func (s *Store) Close(context.Context) error {
	return s.each(func(v any) error {
		if c, ok := v.(interface{ Close() error }); ok {
			return c.Close()
		}
		return nil
	})
}

func (s *Store) each(fn func(any) error) error {
	var errs []error
	try := func(name string, v any) {
		if err := fn(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if s.PG != nil {
		try("pg", s.PG)
	}
	if s.CH != nil {
		try("ch", s.CH)
	}
	return errors.Join(errs...)
}
