package store

import (
	"context"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"covidsignal/internal/platform/testkit"
)

func TestOpen(t *testing.T) {
	chURL := "clickhouse://localhost:9000/default"
	cases := []struct {
		name    string
		cfg     Config
		wantErr string
		pg, ch  bool
	}{
		{name: "nothing enabled", cfg: Config{}},
		{name: "ch only dials lazily", cfg: Config{CH: CHConfig{Enabled: true, URL: chURL}}, ch: true},
		{name: "bad pg url", cfg: Config{PG: PGConfig{Enabled: true, URL: "://bad", MaxConns: 1}}, wantErr: "open pg"},
		{
			name:    "pg fails before ch",
			cfg:     Config{PG: PGConfig{Enabled: true, URL: "://bad"}, CH: CHConfig{Enabled: true, URL: chURL}},
			wantErr: "open pg",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			s, err := Open(ctx, tc.cfg, WithLogger(zerolog.Nop()))
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				require.Nil(t, s)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.pg, s.PG != nil)
			require.Equal(t, tc.ch, s.CH != nil)
			require.NoError(t, s.Close(ctx))
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SERVICE_PGSQL_DBURL", "postgres://u:p@db:5432/signals")
	t.Setenv("SERVICE_PGSQL_MAX_CONNS", "9")
	t.Setenv("SERVICE_PGSQL_LOG_SQL", "true")
	t.Setenv("SERVICE_CLICKHOUSE_DBURL", "")

	cfg := ConfigFromEnv("covidctl")
	require.Equal(t, "covidctl", cfg.AppName)
	require.True(t, cfg.PG.Enabled)
	require.EqualValues(t, 9, cfg.PG.MaxConns)
	require.True(t, cfg.PG.LogSQL)
	require.Equal(t, 500, cfg.PG.SlowQueryMs)
	require.Equal(t, 6, cfg.PG.ConnectRetries)
	require.Equal(t, 3*time.Second, cfg.PG.PingTimeout)
	require.False(t, cfg.CH.Enabled)
}

func TestOpen_PGUnreachable_GivesUpAfterRetries(t *testing.T) {
	testkit.Serial(t)

	var waits int
	testkit.Swap(t, &pingBackoff, func() backoff.BackOff {
		return countingBackOff{n: &waits}
	})

	cfg := Config{PG: PGConfig{
		Enabled:        true,
		URL:            "postgres://u:p@127.0.0.1:1/db?sslmode=disable&connect_timeout=1",
		ConnectRetries: 2,
		PingTimeout:    time.Second,
	}}
	_, err := Open(context.Background(), cfg)
	require.Error(t, err)
	testkit.MustContain(t, err.Error(), "after 2 attempts")
	require.Equal(t, 1, waits)
}

type countingBackOff struct{ n *int }

func (b countingBackOff) NextBackOff() time.Duration { *b.n++; return 0 }
func (countingBackOff) Reset() {}
