package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"covidsignal/internal/platform/config"
	phttp "covidsignal/internal/platform/net/http"
)

func serveGet(t *testing.T, r phttp.Router, path string) int {
	t.Helper()
	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec.Code
}

func TestMountProfiler(t *testing.T) {
	cases := []struct {
		name    string
		prefix  string
		enabled bool
		path    string
		want    int
	}{
		{name: "index", prefix: "/debug", enabled: true, path: "/debug/pprof/", want: http.StatusOK},
		{name: "cmdline", prefix: "/debug", enabled: true, path: "/debug/pprof/cmdline", want: http.StatusOK},
		{name: "blank prefix", prefix: "", enabled: true, path: "/debug/pprof/", want: http.StatusOK},
		{name: "trailing slash", prefix: "/ops/", enabled: true, path: "/ops/pprof/", want: http.StatusOK},
		{name: "disabled", prefix: "/debug", enabled: false, path: "/debug/pprof/", want: http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := phttp.NewServer(config.New()).Router()
			phttp.MountProfiler(r, tc.prefix, tc.enabled)
			require.Equal(t, tc.want, serveGet(t, r, tc.path))
		})
	}
}
