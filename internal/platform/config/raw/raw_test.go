package raw

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	t.Setenv("LOG_LEVEL", "  info ")
	t.Setenv("LOG_FORMAT", "")

	lc := New().Prefix("LOG_")
	require.Equal(t, "LOG_LEVEL", lc.Name("LEVEL"))
	require.Equal(t, "info", lc.Get("LEVEL", "debug"))
	require.Equal(t, "console", lc.Get("FORMAT", "console"))
	require.Equal(t, "d", lc.Prefix("X_").Get("MISSING", "d"))
}

func TestGetBool(t *testing.T) {
	t.Setenv("B_ONE", "1")
	t.Setenv("B_YES", " YES ")
	t.Setenv("B_NO", "no")
	c := New().Prefix("B_")

	for key, want := range map[string]bool{"ONE": true, "YES": true, "NO": false} {
		require.Equal(t, want, c.GetBool(key, !want), key)
	}
	require.True(t, c.GetBool("UNSET", true))
}

func TestGetInt(t *testing.T) {
	t.Setenv("N_OK", " 42 ")
	t.Setenv("N_NEG", "-3")
	t.Setenv("N_BAD", "4x")
	c := New().Prefix("N_")

	cases := []struct {
		key      string
		def, out int
	}{
		{"OK", 1, 42},
		{"NEG", 7, 7},
		{"BAD", 9, 9},
		{"UNSET", 5, 5},
	}
	for _, tc := range cases {
		require.Equal(t, tc.out, c.GetInt(tc.key, tc.def), tc.key)
	}
}
