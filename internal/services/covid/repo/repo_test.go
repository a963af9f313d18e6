package repo

import (
	"bytes"
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"covidsignal/internal/core/bundle"
	"covidsignal/internal/core/signal"
	perr "covidsignal/internal/platform/errors"
	"covidsignal/internal/platform/store"
	"covidsignal/internal/platform/testkit"
	"covidsignal/internal/services/covid/domain"
)

func sampleExport(t *testing.T) domain.Export {
	t.Helper()
	x0, err := signal.MatrixFromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	x1, err := signal.MatrixFromRows([][]float64{{7, 8}, {9, 10}, {11, 12}})
	require.NoError(t, err)
	sig, err := signal.New(
		signal.EdgeIndex{{0, 1, 2}, {1, 2, 0}},
		[]float64{1, 1, 1},
		[]signal.Matrix{x0, x1},
		[]signal.Vector{{1, 0, 2}, {3, 1}},
	)
	require.NoError(t, err)
	return domain.Export{
		Summary: domain.Summary{
			LoadID:   "6f1c7f2e-8f0b-4d55-9a61-0c7a2d1e9b33",
			Source:   "https://example.test/covid.json",
			Bytes:    512,
			Steps:    2,
			Edges:    3,
			LoadedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		Signal: sig,
	}
}

type execCall struct {
	sql  string
	args []any
}

type recTag int64

func (r recTag) String() string      { return "INSERT" }
func (r recTag) RowsAffected() int64 { return int64(r) }

type recTx struct {
	calls    []execCall
	affected int64
	failOn   string
	txs      int
}

func (r *recTx) Exec(_ context.Context, sql string, args ...any) (store.CommandTag, error) {
	r.calls = append(r.calls, execCall{sql: sql, args: args})
	if r.failOn != "" && strings.Contains(sql, r.failOn) {
		return nil, errors.New("exec failed")
	}
	return recTag(r.affected), nil
}
func (r *recTx) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not used")
}
func (r *recTx) QueryRow(context.Context, string, ...any) store.Row { return nil }
func (r *recTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	r.txs++
	return fn(r)
}

func TestPGSink_Write(t *testing.T) {
	e := sampleExport(t)
	tx := &recTx{affected: 1}
	require.NoError(t, NewPG(tx).Write(context.Background(), e))

	require.Equal(t, 1, tx.txs)
	// schema, load, edges, one insert per step
	require.Len(t, tx.calls, 3+e.Signal.Len())
	testkit.MustContain(t, tx.calls[0].sql, "CREATE TABLE IF NOT EXISTS signal_loads")

	load := tx.calls[1]
	testkit.MustContain(t, load.sql, "INSERT INTO signal_loads")
	require.Equal(t, e.Summary.LoadID, load.args[0])
	require.Equal(t, 2, load.args[2]) // steps
	require.Equal(t, 3, load.args[3]) // nodes
	require.Equal(t, 3, load.args[4]) // edges
	require.Equal(t, 2, load.args[5]) // features

	edges := tx.calls[2]
	testkit.MustContain(t, edges.sql, "WITH ORDINALITY")
	require.Equal(t, []int64{0, 1, 2}, edges.args[1])
	require.Equal(t, []int64{1, 2, 0}, edges.args[2])

	step1 := tx.calls[4]
	require.Equal(t, 1, step1.args[1])
	var rows [][]float64
	require.NoError(t, sonic.UnmarshalString(step1.args[2].(string), &rows))
	require.Equal(t, [][]float64{{7, 8}, {9, 10}, {11, 12}}, rows)
	require.Equal(t, []float64{3, 1}, step1.args[3])
}

func TestPGSink_ExistingLoadIsSkipped(t *testing.T) {
	tx := &recTx{affected: 0}
	require.NoError(t, NewPG(tx).Write(context.Background(), sampleExport(t)))
	require.Len(t, tx.calls, 2)
}

func TestPGSink_Errors(t *testing.T) {
	testkit.MustCode(t, NewPG(nil).Write(context.Background(), sampleExport(t)), perr.ErrorCodeUnavailable)
	_, err := NewPG(nil).Loads(context.Background(), 10)
	testkit.MustCode(t, err, perr.ErrorCodeUnavailable)

	tx := &recTx{affected: 1, failOn: "signal_edges (load_id"}
	require.Error(t, NewPG(tx).Write(context.Background(), sampleExport(t)))
}

type fakeCH struct {
	ddl     []string
	inserts [][][]any
	err     error
}

func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.ddl = append(f.ddl, sql)
	return nil
}
func (f *fakeCH) Insert(_ context.Context, table string, cols []string, rows [][]any) error {
	if f.err != nil {
		return f.err
	}
	cp := make([][]any, len(rows))
	copy(cp, rows)
	f.inserts = append(f.inserts, cp)
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (store.Rows, error) { return nil, nil }
func (f *fakeCH) Close() error                                                { return nil }

func TestCHSink_WriteBatches(t *testing.T) {
	ch := &fakeCH{}
	require.NoError(t, NewCH(ch, 4).Write(context.Background(), sampleExport(t)))

	require.Len(t, ch.ddl, 1)
	testkit.MustContain(t, ch.ddl[0], "signal_observations")

	// 2 steps x 3 nodes in batches of 4
	require.Len(t, ch.inserts, 2)
	require.Len(t, ch.inserts[0], 4)
	require.Len(t, ch.inserts[1], 2)

	last := ch.inserts[1][1]
	require.Equal(t, uint32(1), last[2])
	require.Equal(t, uint32(2), last[3])
	require.Equal(t, []float64{11, 12}, last[4])
	// step 1 has only two targets
	require.True(t, math.IsNaN(last[5].(float64)))
}

func TestCHSink_Errors(t *testing.T) {
	testkit.MustCode(t, NewCH(nil, 0).Write(context.Background(), sampleExport(t)), perr.ErrorCodeUnavailable)
	require.Error(t, NewCH(&fakeCH{err: errors.New("too many parts")}, 0).Write(context.Background(), sampleExport(t)))
}

func TestFileSink_WritesReadableBundle(t *testing.T) {
	e := sampleExport(t)
	path := filepath.Join(t.TempDir(), "out", "covid.msgpack")
	require.NoError(t, FileSink{Path: path}.Write(context.Background(), e))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	b, err := bundle.Read(f)
	require.NoError(t, err)
	require.Equal(t, e.Summary.LoadID, b.LoadID)

	got, err := b.Signal()
	require.NoError(t, err)
	require.True(t, got.Equal(e.Signal))

	// no temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	testkit.MustCode(t, FileSink{}.Write(context.Background(), e), perr.ErrorCodeInvalidArgument)
}

type memPutter map[string][]byte

func (m memPutter) Put(_ context.Context, key string, content []byte, ct string) error {
	if ct != ContentType {
		return errors.New("wrong content type")
	}
	m[key] = bytes.Clone(content)
	return nil
}

func TestObjectSink_Write(t *testing.T) {
	e := sampleExport(t)
	objs := memPutter{}
	s := NewObject(objs, "")
	require.NoError(t, s.Write(context.Background(), e))

	key := "loads/" + e.Summary.LoadID + ".msgpack"
	require.Equal(t, key, s.Key(e.Summary.LoadID))
	data, ok := objs[key]
	require.True(t, ok)

	b, err := bundle.Unmarshal(data)
	require.NoError(t, err)
	got, err := b.Signal()
	require.NoError(t, err)
	require.True(t, got.Equal(e.Signal))

	testkit.MustCode(t, NewObject(nil, "x").Write(context.Background(), e), perr.ErrorCodeUnavailable)
}
