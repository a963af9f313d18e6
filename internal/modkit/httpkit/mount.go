package httpkit

import (
	"net/http"
	"path"
	"strings"
)

// Middleware wraps a handler
type Middleware = func(http.Handler) http.Handler

// Middlewares is an ordered chain, outermost first
type Middlewares = []Middleware

// MountUnder registers a subrouter at prefix, applies mw to it, then hands it
// to mount. A blank prefix mounts at the root of r
func MountUnder(r Router, prefix string, mw Middlewares, mount func(Router)) {
	scoped := func(sub Router) {
		if len(mw) > 0 {
			sub.Use(mw...)
		}
		mount(sub)
	}
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		r.Group(scoped)
		return
	}
	r.Route(prefix, scoped)
}

// APIPrefix returns /api/<version> for version with or without slashes
func APIPrefix(version string) string {
	return path.Join("/api", strings.Trim(version, "/"))
}

// MountAPI mounts a versioned API scope; MountAPI(r, "v1", ...) serves /api/v1
func MountAPI(r Router, version string, mw Middlewares, mount func(Router)) {
	MountUnder(r, APIPrefix(version), mw, mount)
}

// MountAPIV1 mounts the /api/v1 scope
func MountAPIV1(r Router, mw Middlewares, mount func(Router)) {
	MountAPI(r, "v1", mw, mount)
}
