// Package httpkit is what modules import to register json endpoints. It
// re-exports the platform router types and adds envelope-aware sugar
package httpkit

import (
	"net/http"

	phttp "covidsignal/internal/platform/net/http"
)

type (
	// Envelope is the response body shape
	Envelope = phttp.Envelope
	// Response lets a handler pick status and headers
	Response = phttp.Response
	// Handler is a plain route handler
	Handler = phttp.Handler
	// Router is the routing surface
	Router = phttp.Router
)

// OK wraps data in a 200 Response
func OK(data any) Response { return phttp.OK(data) }

// Error wraps err in a Response whose status follows its code
func Error(err error) Response { return phttp.Error(err) }

// Param returns the named path parameter of the matched route
func Param(r *http.Request, name string) string { return phttp.Param(r, name) }

// Get serves h's result as an envelope on GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, phttp.JSONHandlerNoBody(h))
}

// Post serves h's result as an envelope on a bodyless POST
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, phttp.JSONHandlerNoBody(h))
}

// PostJSON binds and validates a T body before calling h
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, phttp.JSONHandler(h))
}
