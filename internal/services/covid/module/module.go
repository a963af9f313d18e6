// Package module wires the covid dataset service into the API using modkit
package module

import (
	"context"

	"covidsignal/internal/adapters/ingest/remote"
	modkit "covidsignal/internal/modkit"
	"covidsignal/internal/modkit/httpkit"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/store/s3"
	"covidsignal/internal/services/covid/domain"
	covidhttp "covidsignal/internal/services/covid/http"
	covidrepo "covidsignal/internal/services/covid/repo"
	covidsvc "covidsignal/internal/services/covid/service"
)

// Ports exposes the module services for cross wiring
type Ports struct {
	Dataset  domain.DatasetPort
	Exporter *covidsvc.Exporter
}

// Targets selects export sinks
type Targets struct {
	PG, CH, File, S3 bool
}

// Module implements the covid module
type Module struct {
	built   modkit.Built
	deps    modkit.Deps
	opts    Options
	objects *s3.Store
	loader  *covidsvc.Loader
	ports   Ports
}

// New constructs the covid module. It performs no I/O: the payload is
// fetched by Load, never by construction
func New(deps modkit.Deps, o Options, opts ...modkit.Option) (*Module, error) {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("covid"),
		modkit.WithPrefix("/dataset"),
	}, opts...)...)

	m := &Module{built: b, deps: deps, opts: o}

	var objects remote.ObjectOpener
	if o.S3Enabled() {
		st, err := s3.New(o.S3)
		if err != nil {
			return nil, err
		}
		m.objects, objects = st, st
	}

	m.loader = covidsvc.New(NewFetcher(o, objects), covidsvc.Config{Source: o.Source, MaxBytes: o.MaxBytes})

	// the default exporter writes to every configured target
	exp, err := m.Exporter(Targets{
		PG:   deps.PG != nil,
		CH:   deps.CH != nil,
		File: o.BundlePath != "",
		S3:   m.objects != nil,
	})
	if err != nil {
		return nil, err
	}
	m.ports = Ports{Dataset: m.loader, Exporter: exp}
	return m, nil
}

// Load fetches the payload
func (m *Module) Load(ctx context.Context) error { return m.loader.Load(ctx) }

// Loaded reports an error until a payload is held
func (m *Module) Loaded() error {
	_, err := m.loader.Summary()
	return err
}

// Exporter builds an exporter over the selected targets. Selecting a target
// that is not configured is unavailable
func (m *Module) Exporter(t Targets) (*covidsvc.Exporter, error) {
	var sinks []domain.Sink
	if t.PG {
		if m.deps.PG == nil {
			return nil, perr.Unavailablef("pg export needs SERVICE_PGSQL_DBURL")
		}
		sinks = append(sinks, covidrepo.NewPG(m.deps.PG))
	}
	if t.CH {
		if m.deps.CH == nil {
			return nil, perr.Unavailablef("ch export needs SERVICE_CLICKHOUSE_DBURL")
		}
		sinks = append(sinks, covidrepo.NewCH(m.deps.CH, 0))
	}
	if t.File {
		if m.opts.BundlePath == "" {
			return nil, perr.Unavailablef("file export needs a bundle path")
		}
		sinks = append(sinks, covidrepo.FileSink{Path: m.opts.BundlePath})
	}
	if t.S3 {
		if m.objects == nil {
			return nil, perr.Unavailablef("s3 export needs SERVICE_S3_ENDPOINT")
		}
		sinks = append(sinks, covidrepo.NewObject(m.objects, m.opts.S3Prefix))
	}
	return covidsvc.NewExporter(sinks...), nil
}

// MountRoutes mounts the module routes under its prefix
func (m *Module) MountRoutes(r httpkit.Router) {
	ho := covidhttp.Options{SnapshotCache: m.opts.SnapshotCache}
	if m.deps.PG != nil {
		ho.Loads = covidrepo.NewPG(m.deps.PG)
	}
	m.built.Mount(r, func(rr httpkit.Router) { covidhttp.Register(rr, m.loader, ho) })
}

// Name returns the module name
func (m *Module) Name() string { return m.built.Name }

// Ports returns the module ports
func (m *Module) Ports() any { return m.ports }
