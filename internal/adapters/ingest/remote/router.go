package remote

import (
	"context"
	"io"
	"net/url"
	"strings"

	perr "covidsignal/internal/platform/errors"
)

// Router dispatches Fetch by source scheme
type Router struct {
	routes map[string]Fetcher
}

// NewRouter returns a router serving file:// out of the box
func NewRouter() *Router {
	return &Router{routes: map[string]Fetcher{"file": FileFetcher{}}}
}

// Handle registers f for each scheme
func (r *Router) Handle(f Fetcher, schemes ...string) *Router {
	for _, s := range schemes {
		r.routes[strings.ToLower(s)] = f
	}
	return r
}

// Fetch picks the fetcher for the source scheme
func (r *Router) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad source %q", source)
	}
	f, ok := r.routes[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, perr.WithField(perr.InvalidArgf("unsupported source scheme %q", u.Scheme), "source")
	}
	return f.Fetch(ctx, source)
}
