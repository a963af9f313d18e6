// Package api composes the HTTP API for the dataset service
package api

import (
	"strings"
	"time"

	"covidsignal/internal/modkit"
	"covidsignal/internal/modkit/httpkit"
	"covidsignal/internal/modkit/module"
	phttp "covidsignal/internal/platform/net/http"

	metamod "covidsignal/internal/services/api/meta/module"
	covidmod "covidsignal/internal/services/covid/module"
)

// Options are the API options
type Options struct {
	Deps           modkit.Deps
	Covid          *covidmod.Module
	EnableProfiler bool
}

// Mount mounts the API onto the given router under /api/v1
func Mount(r phttp.Router, opt Options) {
	api := opt.Deps.Cfg.Prefix("CORE_API_")
	stack := httpkit.CommonStack(httpkit.StackOptions{
		Slow:           api.MayDuration("SLOW", time.Second),
		Timeout:        api.MayDuration("TIMEOUT", 30*time.Second),
		AllowedOrigins: splitList(api.MayString("CORS_ORIGINS", "")),
		HealthPath:     "/api/v1/health",
	})

	mods := []module.Module{metamod.New(opt.Deps, opt.Covid.Loaded), opt.Covid}

	phttp.MountProfiler(r, "/debug", opt.EnableProfiler)

	httpkit.MountAPIV1(r, stack, func(api httpkit.Router) {
		for _, m := range mods {
			// register each module's ports under its own name for cross-module lookups
			module.Register(m.Name(), m.Ports())
			m.MountRoutes(api)
		}
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
