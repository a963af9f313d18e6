package store

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestCHAdapter_Delegates(t *testing.T) {
	t.Parallel()

	f := &fakeCH{}
	a := newCHAdapter(f)
	rows := [][]any{{"id", uint32(1)}}
	require.NoError(t, a.Insert(context.Background(), "signal_observations", []string{"load_id", "t"}, rows))
	require.Equal(t, "signal_observations", f.table)
	require.Len(t, f.cols, 2)
	require.Len(t, f.rows, 1)

	got, err := a.Query(context.Background(), "SELECT 1")
	require.Error(t, err)
	require.Nil(t, got)

	require.NoError(t, a.Close())
	require.True(t, f.closed)
}

func TestCHAdapter_Tracing(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	a := newCHAdapter(&fakeCH{})
	require.NoError(t, a.Exec(context.Background(), "SELECT 1"))
	require.Zero(t, buf.Len())

	a.tracing(zerolog.New(&buf))
	require.NoError(t, a.Insert(context.Background(), "t", nil, [][]any{{1}, {2}}))
	line := buf.String()
	require.Contains(t, line, `"component":"ch"`)
	require.Contains(t, line, `"sql":"INSERT INTO t"`)
	require.Contains(t, line, `"rows":2`)
	require.Contains(t, line, `"message":"ch query"`)
}

func TestCHAdapter_NilPing(t *testing.T) {
	var a *chAdapter
	require.EqualError(t, a.Ping(context.Background()), "store: nil clickhouse adapter")
}
