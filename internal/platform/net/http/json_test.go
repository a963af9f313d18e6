package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	perr "covidsignal/internal/platform/errors"
)

type ratioDTO struct {
	TrainRatio float64 `json:"train_ratio" validate:"ratio"`
}

func TestJSONHandler(t *testing.T) {
	h := JSONHandler(func(_ *http.Request, in ratioDTO) (any, error) {
		if in.TrainRatio == 0.5 {
			return nil, errors.New("boom")
		}
		if in.TrainRatio == 0.9 {
			return OK("cached").WithHeader("X-Cache", "hit"), nil
		}
		return map[string]float64{"test": 1 - in.TrainRatio}, nil
	})

	cases := []struct {
		name   string
		body   string
		status int
		code   perr.ErrorCode
		data   any
		header string
	}{
		{name: "ok", body: `{"train_ratio":0.75}`, status: http.StatusOK, data: map[string]any{"test": 0.25}},
		{name: "bad json", body: `{`, status: http.StatusBadRequest, code: perr.ErrorCodeJSON},
		{name: "invalid", body: `{"train_ratio":3}`, status: http.StatusBadRequest, code: perr.ErrorCodeValidation},
		{name: "handler error", body: `{"train_ratio":0.5}`, status: http.StatusInternalServerError},
		{name: "response passthrough", body: `{"train_ratio":0.9}`, status: http.StatusOK, data: "cached", header: "hit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h(rec, httptest.NewRequest(http.MethodPost, "/split", strings.NewReader(tc.body)))
			require.Equal(t, tc.status, rec.Code)

			var env Envelope
			require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &env))
			require.Equal(t, tc.code, env.Code)
			require.Equal(t, tc.data, env.Data)
			require.Equal(t, tc.header, rec.Header().Get("X-Cache"))
		})
	}
}

func TestJSONHandlerNoBody(t *testing.T) {
	h := JSONHandlerNoBody(func(*http.Request) (any, error) { return nil, perr.Unavailablef("dataset not loaded") })
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"dataset not loaded"`)
}
