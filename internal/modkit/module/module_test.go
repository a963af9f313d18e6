package module

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	phttp "covidsignal/internal/platform/net/http"
)

type summer interface{ Sum() int }

type fixedSum int

func (f fixedSum) Sum() int { return int(f) }

type stubModule struct {
	name  string
	ports any
}

func (m stubModule) Name() string             { return m.name }
func (m stubModule) Ports() any               { return m.ports }
func (m stubModule) MountRoutes(phttp.Router) {}

type bundle struct {
	Count  int
	Summer summer
}

type hidden struct {
	summer summer
}

func TestPortsOf(t *testing.T) {
	cases := []struct {
		name  string
		ports any
		want  int
		ok    bool
	}{
		{name: "nil", ports: nil},
		{name: "direct", ports: summer(fixedSum(42)), want: 42, ok: true},
		{name: "struct field", ports: bundle{Count: 1, Summer: fixedSum(7)}, want: 7, ok: true},
		{name: "pointer struct", ports: &bundle{Summer: fixedSum(9)}, want: 9, ok: true},
		{name: "nil pointer", ports: (*bundle)(nil)},
		{name: "unexported field", ports: hidden{summer: fixedSum(1)}},
		{name: "scalar", ports: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := PortsOf[summer](stubModule{name: tc.name, ports: tc.ports})
			require.Equal(t, tc.ok, ok)
			if ok {
				require.Equal(t, tc.want, got.Sum())
			}
		})
	}
}

func TestMustPortsOf(t *testing.T) {
	require.Equal(t, 5, MustPortsOf[summer](stubModule{name: "covid", ports: fixedSum(5)}).Sum())
	require.PanicsWithValue(t, "module covid: port *module.summer not found", func() {
		MustPortsOf[summer](stubModule{name: "covid"})
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("meta", 1)
	r.Register("covid", bundle{Count: 2})
	r.Register("covid", bundle{Count: 3})
	require.Equal(t, []string{"covid", "meta"}, r.Names())

	v, ok := r.Lookup("covid")
	require.True(t, ok)
	require.Equal(t, 3, v.(bundle).Count)

	r.Reset()
	require.Empty(t, r.Names())
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Register("covid", i)
			_, _ = r.Lookup("covid")
			_ = r.Names()
		}()
	}
	wg.Wait()
	require.Equal(t, []string{"covid"}, r.Names())
}

func TestDefaultRegistry(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	Register("covid", bundle{Count: 4})
	got, ok := PortsAs[bundle]("covid")
	require.True(t, ok)
	require.Equal(t, 4, got.Count)

	_, ok = PortsAs[int]("covid")
	require.False(t, ok)
	_, ok = PortsAs[bundle]("missing")
	require.False(t, ok)
}
