package remote

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/testkit"
)

func TestHTTPFetcherOK(t *testing.T) {
	ps := testkit.ServePayload(t, 0, `{"edges":[]}`)
	body, err := ReadAll(context.Background(), NewHTTPFetcherWithTimeout(time.Second), ps.URL, 0)
	require.NoError(t, err)
	require.Equal(t, `{"edges":[]}`, string(body))
	require.EqualValues(t, 1, ps.Hits())
}

func TestHTTPFetcherNon2xx(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		ps := testkit.ServePayload(t, status, "nope")
		_, err := (&HTTPFetcher{}).Fetch(context.Background(), ps.URL)
		testkit.MustCode(t, err, perr.ErrorCodeNetwork)
		testkit.MustContain(t, err.Error(), "unexpected status")
	}
}

func TestHTTPFetcherConnectionRefused(t *testing.T) {
	ps := testkit.ServePayload(t, 0, "")
	url := ps.URL
	ps.Close()
	_, err := NewHTTPFetcherWithTimeout(time.Second).Fetch(context.Background(), url)
	testkit.MustCode(t, err, perr.ErrorCodeNetwork)
}

func TestHTTPFetcherHonorsContext(t *testing.T) {
	ps := testkit.ServePayload(t, 0, "{}")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&HTTPFetcher{}).Fetch(ctx, ps.URL)
	testkit.MustCode(t, err, perr.ErrorCodeNetwork)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadAllCapsBody(t *testing.T) {
	ps := testkit.ServePayload(t, 0, strings.Repeat("x", 64))
	_, err := ReadAll(context.Background(), &HTTPFetcher{}, ps.URL, 16)
	testkit.MustCode(t, err, perr.ErrorCodeNetwork)

	body, err := ReadAll(context.Background(), &HTTPFetcher{}, ps.URL, 64)
	require.NoError(t, err)
	require.Len(t, body, 64)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("reset by peer") }
func (failingReader) Close() error             { return nil }

func TestReadAllWrapsReadErrors(t *testing.T) {
	f := FetcherFunc(func(context.Context, string) (io.ReadCloser, error) { return failingReader{}, nil })
	_, err := ReadAll(context.Background(), f, "mem://x", 0)
	testkit.MustCode(t, err, perr.ErrorCodeNetwork)
}
