package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"covidsignal/internal/modkit"
	"covidsignal/internal/modkit/module"
	"covidsignal/internal/platform/config"
	phttp "covidsignal/internal/platform/net/http"
	"covidsignal/internal/platform/testkit"
	"covidsignal/internal/services/covid/domain"
	covidmod "covidsignal/internal/services/covid/module"
)

func TestMount(t *testing.T) {
	testkit.Serial(t)
	t.Cleanup(module.Reset)

	path := filepath.Join(t.TempDir(), "covid.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"edges": [[0,1]], "time_periods": 1, "0": {"X": [[1],[2]], "y": [0,1]}}`), 0o600))

	deps := modkit.Deps{Cfg: config.New()}
	cm, err := covidmod.New(deps, covidmod.Options{Source: "file://" + path})
	require.NoError(t, err)

	r := phttp.AdaptChi(chi.NewRouter())
	Mount(r, Options{Deps: deps, Covid: cm})

	serve := func(path string) (*httptest.ResponseRecorder, map[string]any) {
		rec := httptest.NewRecorder()
		r.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		var body map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
		return rec, body
	}

	rec, body := serve("/api/v1/meta/ready")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fail", body["data"].(map[string]any)["status"])
	require.NotEmpty(t, body["request_id"])

	require.NoError(t, cm.Load(context.Background()))
	_, body = serve("/api/v1/meta/ready")
	require.Equal(t, "ok", body["data"].(map[string]any)["status"])

	rec, _ = serve("/api/v1/dataset/edges")
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = serve("/api/v1/health")
	require.Equal(t, http.StatusOK, rec.Code)

	ports, ok := module.PortsAs[covidmod.Ports]("covid")
	require.True(t, ok)
	var _ domain.DatasetPort = ports.Dataset

	rec, _ = serve("/debug/pprof/")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSplitList(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	require.Nil(t, splitList(""))
}
