package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zerolog.Level{
		"trace":       zerolog.TraceLevel,
		"debug":       zerolog.DebugLevel,
		"info":        zerolog.InfoLevel,
		"WARN":        zerolog.WarnLevel,
		"warning":     zerolog.WarnLevel,
		"error":       zerolog.ErrorLevel,
		"fatal":       zerolog.FatalLevel,
		"panic":       zerolog.PanicLevel,
		"disabled":    zerolog.Disabled,
		"off":         zerolog.Disabled,
		"":            zerolog.InfoLevel,
		"  nonsense ": zerolog.InfoLevel,
	} {
		require.Equal(t, want, parseLevel(in), in)
	}
}

// Init is once per process, so every root logger assertion lives here
func TestInit_RootNamedAndScoped(t *testing.T) {
	var buf bytes.Buffer
	Init(Options{
		Level:        "debug",
		Format:       "json",
		Service:      "covid-test",
		Writer:       &buf,
		StaticFields: map[string]string{"build": "test"},
	})
	Init(Options{Level: "error"})

	Get().Debug().Msg("root-msg")
	Named("fetch").Info().Msg("named-msg")
	require.Same(t, Get(), Named(""))

	ctx := WithLoad(WithRequest(context.Background(), "req-9"), "load-1", "https://example.com/x.json")
	C(ctx).Info().Msg("ctx-msg")

	out := buf.String()
	for _, want := range []string{
		`"message":"root-msg"`,
		`"component":"fetch"`,
		`"request_id":"req-9"`,
		`"load_id":"load-1"`,
		`"source":"https://example.com/x.json"`,
		`"service":"covid-test"`,
		`"build":"test"`,
	} {
		require.Contains(t, out, want)
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "WARN")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_COMPONENT", "api")
	t.Setenv("LOG_CALLER", "yes")
	t.Setenv("LOG_SAMPLE_EVERY", "4")

	require.Equal(t, Options{
		Level:       "warn",
		Format:      "json",
		Service:     "covidsignal",
		Component:   "api",
		WithCaller:  true,
		SampleEvery: 4,
	}, FromEnv())
}

func TestScope(t *testing.T) {
	ctx := context.Background()
	require.Empty(t, RequestID(ctx))
	require.Empty(t, LoadID(ctx))
	require.Equal(t, ctx, WithLoad(WithRequest(ctx, ""), "", ""))

	ctx = WithLoad(WithRequest(ctx, "r1"), "l1", "")
	ctx = WithLoad(ctx, "", "file.json")
	require.Equal(t, "r1", RequestID(ctx))
	require.Equal(t, "l1", LoadID(ctx))
	require.Equal(t, "file.json", scopeOf(ctx).source)
}
