//go:build integration_pg
// +build integration_pg

package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"covidsignal/internal/platform/store"
)

func startPostgres(t *testing.T) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	t.Cleanup(cancel)

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "postgres",
				"POSTGRES_DB":       "postgres",
			},
			WaitingFor: wait.ForAll(
				wait.ForListeningPort("5432/tcp"),
				wait.ForLog("database system is ready to accept connections"),
			).WithDeadline(2 * time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	mp, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	return fmt.Sprintf("postgres://postgres:postgres@%s:%s/postgres?sslmode=disable", host, mp.Port())
}

func TestPGSink_Integration_WriteAndList(t *testing.T) {
	dsn := startPostgres(t)
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	st, err := store.Open(ctx, store.Config{PG: store.PGConfig{Enabled: true, URL: dsn, MaxConns: 2}})
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close(context.Background()) })

	e := sampleExport(t)
	sink := NewPG(st.PG)
	require.NoError(t, sink.Write(ctx, e))
	// second write of the same load is a no-op
	require.NoError(t, sink.Write(ctx, e))

	loads, err := sink.Loads(ctx, 10)
	require.NoError(t, err)
	require.Len(t, loads, 1)
	require.Equal(t, e.Summary.LoadID, loads[0].LoadID)
	require.Equal(t, int64(2), loads[0].Steps)
	require.Equal(t, int64(3), loads[0].Nodes)
	require.Equal(t, int64(3), loads[0].Edges)
	require.Equal(t, int64(2), loads[0].Features)
	require.True(t, e.Summary.LoadedAt.Equal(loads[0].LoadedAt))

	n, err := store.Scalar[int64](ctx, st.PG, `SELECT count(*) FROM signal_steps WHERE load_id = $1::uuid`, e.Summary.LoadID)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	src, err := store.Scalar[[]int64](ctx, st.PG, `SELECT array_agg(src ORDER BY idx) FROM signal_edges WHERE load_id = $1::uuid`, e.Summary.LoadID)
	require.NoError(t, err)
	require.Equal(t, []int64{0, 1, 2}, src)
}
