package remote

import (
	"context"
	"io"
	"net/http"
	"time"

	perr "covidsignal/internal/platform/errors"
)

// DefaultSource is the published COVID spatiotemporal dataset
const DefaultSource = "https://raw.githubusercontent.com/benedekrozemberczki/pytorch_geometric_temporal/master/dataset/discrete/covid-spatiotemporal.json"

// DefaultMaxBytes caps a payload body
const DefaultMaxBytes int64 = 512 << 20

// Fetcher returns a reader for the payload at source
type Fetcher interface {
	Fetch(ctx context.Context, source string) (io.ReadCloser, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context, source string) (io.ReadCloser, error)

// Fetch calls f
func (f FetcherFunc) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	return f(ctx, source)
}

// HTTPFetcher issues one GET per Fetch
type HTTPFetcher struct {
	Client *http.Client
}

// NewHTTPFetcherWithTimeout creates an HTTPFetcher; zero means no timeout
func NewHTTPFetcherWithTimeout(d time.Duration) *HTTPFetcher {
	return &HTTPFetcher{Client: &http.Client{Timeout: d}}
}

func (f *HTTPFetcher) client() *http.Client {
	if f == nil || f.Client == nil {
		return http.DefaultClient
	}
	return f.Client
}

// Fetch returns the response body for source; anything but a 2xx is a network error
func (f *HTTPFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	resp, err := f.get(ctx, source, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// get sends hdr with the request. A 304 is passed through only for
// conditional requests (non-empty hdr)
func (f *HTTPFetcher) get(ctx context.Context, source string, hdr http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad source %q", source)
	}
	for k, vs := range hdr {
		req.Header[k] = vs
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNetwork, "fetch %s", source)
	}
	if resp.StatusCode == http.StatusNotModified && len(hdr) > 0 {
		return resp, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		closeErr := resp.Body.Close()
		if closeErr != nil {
			return nil, perr.Networkf("unexpected status %d for %s; error closing body: %v", resp.StatusCode, source, closeErr)
		}
		return nil, perr.Networkf("unexpected status %d for %s", resp.StatusCode, source)
	}
	return resp, nil
}

// ReadAll fetches source and reads the whole body, failing past maxBytes
// (zero means DefaultMaxBytes)
func ReadAll(ctx context.Context, f Fetcher, source string, maxBytes int64) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	rc, err := f.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	body, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		if perr.CodeOf(err) != perr.ErrorCodeUnknown {
			return nil, err
		}
		return nil, perr.Wrapf(err, perr.ErrorCodeNetwork, "read %s", source)
	}
	if int64(len(body)) > maxBytes {
		return nil, perr.WithField(perr.Networkf("payload from %s exceeds %d bytes", source, maxBytes), "max_bytes")
	}
	return body, nil
}
