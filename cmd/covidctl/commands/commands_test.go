package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"covidsignal/internal/core/bundle"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/testkit"
	"covidsignal/internal/services/covid/domain"
)

const payload = `{"edges": [[0,1],[1,2],[2,0]], "time_periods": 2,
	"0": {"X": [[1,0],[0,1],[1,1]], "y": [1,2,3]},
	"1": {"X": [[2,0],[0,2],[2,2]], "y": [4,5,6]}}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	testkit.Serial(t)

	// flags are package state; reset between runs
	sourceURL, cacheDir, timeout, envFiles, verbose = "", "", 0, nil, false
	summaryJSON, exportPG, exportCH, exportFile, exportS3 = false, false, false, "", false
	t.Setenv("SERVICE_PGSQL_DBURL", "")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "")
	t.Setenv("SERVICE_S3_ENDPOINT", "")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func source(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "covid.json")
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))
	return "file://" + path
}

func TestSummary(t *testing.T) {
	src := source(t)

	out, err := run(t, "--source", src, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "summary", "--json")
	require.NoError(t, err)
	var got domain.DatasetOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, 2, got.Shape.Steps)
	require.Equal(t, 3, got.Shape.Nodes)
	require.Equal(t, 3, got.Shape.Edges)
	require.Equal(t, 2, got.Shape.Features)
	require.Equal(t, src, got.Load.Source)

	out, err = run(t, "--source", src, "summary")
	require.NoError(t, err)
	testkit.MustContain(t, out, "steps     2\n")
	testkit.MustContain(t, out, "edges     3\n")
}

func TestSummary_LoadFailure(t *testing.T) {
	_, err := run(t, "--source", "file:///definitely/not/here.json", "summary")
	testkit.MustCode(t, err, perr.ErrorCodeNetwork)
}

func TestExport(t *testing.T) {
	src := source(t)

	_, err := run(t, "--source", src, "export")
	testkit.MustCode(t, err, perr.ErrorCodeInvalidArgument)

	_, err = run(t, "--source", src, "export", "--pg")
	testkit.MustCode(t, err, perr.ErrorCodeUnavailable)

	path := filepath.Join(t.TempDir(), "covid.msgpack")
	out, err := run(t, "--source", src, "export", "--file", path)
	require.NoError(t, err)
	testkit.MustContain(t, out, "to file\n")

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	b, err := bundle.Read(f)
	require.NoError(t, err)
	require.Len(t, b.Steps, 2)
	require.Equal(t, []int64{0, 1, 2}, b.Src)
}
