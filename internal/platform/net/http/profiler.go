package http

import (
	stdhttp "net/http"
	"strings"

	mw "github.com/go-chi/chi/v5/middleware"
)

// DefaultProfilerPrefix is where pprof lives when no prefix is given
const DefaultProfilerPrefix = "/debug"

// MountProfiler serves the pprof index and profiles under prefix/pprof when
// enabled. It is a no-op otherwise
func MountProfiler(r Router, prefix string, enabled bool) {
	if !enabled {
		return
	}
	prefix = "/" + strings.Trim(prefix, "/")
	if prefix == "/" {
		prefix = DefaultProfilerPrefix
	}
	pprof := stdhttp.StripPrefix(prefix, mw.Profiler())
	r.Handle(prefix, pprof)
	r.Handle(prefix+"/*", pprof)
}
