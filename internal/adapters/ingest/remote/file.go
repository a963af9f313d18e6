package remote

import (
	"context"
	"io"
	"net/url"
	"os"

	perr "covidsignal/internal/platform/errors"
)

// FileFetcher reads file:// sources from local disk
type FileFetcher struct{}

// Fetch opens the path in a file URL
func (FileFetcher) Fetch(_ context.Context, source string) (io.ReadCloser, error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return nil, perr.InvalidArgf("not a file url: %q", source)
	}
	f, err := os.Open(u.Path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeNetwork, "open %s", u.Path)
	}
	return f, nil
}
