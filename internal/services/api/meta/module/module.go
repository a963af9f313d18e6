// Package module mounts the meta endpoints under /meta
package module

import (
	"context"
	"time"

	"covidsignal/internal/core/version"
	"covidsignal/internal/modkit"
	"covidsignal/internal/modkit/httpkit"
	"covidsignal/internal/platform/store"
	metahttp "covidsignal/internal/services/api/meta/http"
)

type Module struct {
	built modkit.Built
	deps  metahttp.Deps
}

// New builds the meta module. Readiness probes postgres and clickhouse when
// they are configured and, when loaded is not nil, the held dataset
func New(deps modkit.Deps, loaded func() error, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{
		modkit.WithName("meta"),
		modkit.WithPrefix("/meta"),
	}, opts...)...)

	probes := []metahttp.Probe{ping("pg", deps.PG), ping("ch", deps.CH)}
	if loaded != nil {
		probes = append(probes, metahttp.Probe{Name: "dataset", Check: func(context.Context) error { return loaded() }})
	}
	return &Module{built: b, deps: metahttp.Deps{
		ServiceName: version.Service,
		StartedAt:   time.Now(),
		Probes:      probes,
	}}
}

// ping probes v when it is set and can ping
func ping(name string, v any) metahttp.Probe {
	p := metahttp.Probe{Name: name}
	if pinger, ok := v.(store.Pinger); ok {
		p.Check = pinger.Ping
	}
	return p
}

func (m *Module) MountRoutes(r httpkit.Router) {
	m.built.Mount(r, func(rr httpkit.Router) { metahttp.Register(rr, m.deps) })
}

func (m *Module) Name() string { return m.built.Name }

func (m *Module) Ports() any { return nil }
