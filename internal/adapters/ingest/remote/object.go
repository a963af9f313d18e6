package remote

import (
	"context"
	"io"
	"net/url"
	"strings"

	perr "covidsignal/internal/platform/errors"
)

// ObjectOpener is the slice of an object store the fetcher needs
type ObjectOpener interface {
	Open(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// ObjectFetcher reads s3://bucket/key sources
type ObjectFetcher struct {
	Store ObjectOpener
}

// ParseObjectURL splits s3://bucket/key
func ParseObjectURL(source string) (bucket, key string, err error) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme != "s3" {
		return "", "", perr.InvalidArgf("not an s3 url: %q", source)
	}
	key = strings.TrimLeft(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", perr.InvalidArgf("s3 url needs bucket and key: %q", source)
	}
	return u.Host, key, nil
}

// Fetch opens the object; a missing object is a network error like an HTTP 404
func (f *ObjectFetcher) Fetch(ctx context.Context, source string) (io.ReadCloser, error) {
	if f == nil || f.Store == nil {
		return nil, perr.Unavailablef("object store not configured for %s", source)
	}
	bucket, key, err := ParseObjectURL(source)
	if err != nil {
		return nil, err
	}
	rc, err := f.Store.Open(ctx, bucket, key)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return nil, perr.Wrapf(err, perr.ErrorCodeNetwork, "fetch %s", source)
		}
		return nil, err
	}
	return rc, nil
}
