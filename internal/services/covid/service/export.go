package service

import (
	"context"
	"time"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/logger"
	"covidsignal/internal/services/covid/domain"
)

// Exporter writes the current load to each sink in order
type Exporter struct {
	sinks []domain.Sink
}

// NewExporter returns an exporter over sinks; nil sinks are skipped
func NewExporter(sinks ...domain.Sink) *Exporter {
	e := &Exporter{}
	for _, s := range sinks {
		if s != nil {
			e.sinks = append(e.sinks, s)
		}
	}
	return e
}

// Sinks returns the names of the configured sinks
func (e *Exporter) Sinks() []string {
	out := make([]string, len(e.sinks))
	for i, s := range e.sinks {
		out[i] = s.Name()
	}
	return out
}

// Export builds one signal from src and hands it to every sink. It stops at
// the first sink failure, which is reported as a storage error
func (e *Exporter) Export(ctx context.Context, src domain.DatasetPort) error {
	if len(e.sinks) == 0 {
		return perr.InvalidArgf("no export sinks configured")
	}
	sum, sig, err := src.Current()
	if err != nil {
		return err
	}

	ctx = logger.WithLoad(ctx, sum.LoadID, sum.Source)
	log := logger.C(ctx)
	exp := domain.Export{Summary: sum, Signal: sig}
	for _, s := range e.sinks {
		start := time.Now()
		if err := s.Write(ctx, exp); err != nil {
			log.Error().Err(err).Str("sink", s.Name()).Msg("export failed")
			return perr.WithOp(perr.Wrapf(err, perr.ErrorCodeStorage, "export to %s", s.Name()), "export")
		}
		log.Info().Str("sink", s.Name()).Dur("elapsed", time.Since(start)).Msg("exported")
	}
	return nil
}
