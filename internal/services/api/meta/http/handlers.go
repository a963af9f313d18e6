// Package http serves the meta endpoints: readiness, build version and
// service uptime
package http

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"covidsignal/internal/core/version"
	"covidsignal/internal/modkit/httpkit"
)

const probeTimeout = 2 * time.Second

// Probe is one readiness dependency. A nil Check means the dependency is
// not configured and is reported as skipped
type Probe struct {
	Name  string
	Check func(context.Context) error
}

type Deps struct {
	ServiceName string
	StartedAt   time.Time
	Probes      []Probe
}

// ReadyCheck is the outcome of one probe: ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok unless any probe failed
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
	Now    string       `json:"now"`
}

type ServiceResponse struct {
	Name    string `json:"name"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime"`
}

type handlers struct {
	Deps
	now func() time.Time
}

func Register(r httpkit.Router, d Deps) {
	h := handlers{Deps: d, now: time.Now}
	httpkit.Get(r, "/ready", h.ready)
	httpkit.Get(r, "/version", h.version)
	httpkit.Get(r, "/service", h.service)
}

// ready runs every probe concurrently under one timeout
func (h handlers) ready(r *http.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	checks := make([]ReadyCheck, len(h.Probes))
	var g errgroup.Group
	for i, p := range h.Probes {
		checks[i] = ReadyCheck{Name: p.Name, Status: "skipped"}
		if p.Check == nil {
			continue
		}
		g.Go(func() error {
			if err := p.Check(ctx); err != nil {
				checks[i].Status, checks[i].Error = "fail", err.Error()
			} else {
				checks[i].Status = "ok"
			}
			return nil
		})
	}
	_ = g.Wait()

	res := ReadyResponse{Status: "ok", Checks: checks, Now: h.now().UTC().Format(time.RFC3339)}
	for _, c := range checks {
		if c.Status == "fail" {
			res.Status = "fail"
		}
	}
	return res, nil
}

func (h handlers) version(*http.Request) (any, error) { return version.Info(), nil }

func (h handlers) service(*http.Request) (any, error) {
	return ServiceResponse{
		Name:    h.ServiceName,
		Started: h.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.now().Sub(h.StartedAt) / time.Second),
	}, nil
}
