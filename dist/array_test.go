package dist

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRunner(t *testing.T) *engine.Runner {
	return engine.New(engine.WithWorkers(4), engine.WithLogger(logger.NewZap(zaptest.NewLogger(t))))
}

// seqBlock is a rows x cols block holding 1, 2, 3, ... in row-major order;
// cols == 0 gives a 1-D block of rows values.
func seqBlock(rows, cols int) *dense.Block {
	n := rows * cols
	if cols == 0 {
		n = rows
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = float64(i + 1)
	}
	if cols == 0 {
		return dense.MustNew(data, rows)
	}
	return dense.MustNew(data, rows, cols)
}

// testArray is seqBlock(7, 2) split into partitions of 3, 3 and 1 rows.
func testArray(t *testing.T, r *engine.Runner) (*Array, *dense.Block) {
	t.Helper()
	whole := seqBlock(7, 2)
	a, err := FromDense(context.Background(), r, whole, []int{3, 2}, zarr.Float64)
	require.NoError(t, err)
	return a, whole
}

// partitioned builds an array from explicit row ranges of b.
func partitioned(t *testing.T, r *engine.Runner, b *dense.Block, chunks []int, counts ...int) *Array {
	t.Helper()
	var blocks []*dense.Block
	start := 0
	for _, c := range counts {
		piece, err := b.SliceRows(start, start+c)
		require.NoError(t, err)
		blocks = append(blocks, piece)
		start += c
	}
	a, err := FromPartitions(r, engine.Distribute(blocks), b.Shape(), chunks, zarr.Float64, counts)
	require.NoError(t, err)
	return a
}

func requireLocal(t *testing.T, want *dense.Block, a *Array) {
	t.Helper()
	got, err := a.ToLocal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want.Shape(), got.Shape())
	if diff := cmp.Diff(want.Data(), got.Data()); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestFromDense(t *testing.T) {
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	assert.Equal(t, []int{7, 2}, a.Shape())
	assert.Equal(t, []int{3, 2}, a.Chunks())
	assert.Equal(t, 2, a.Ndim())
	assert.Equal(t, zarr.Float64, a.Dtype())
	assert.Equal(t, []int{3, 3, 1}, a.PartitionRowCounts())
	assert.Equal(t, 3, a.NumPartitions())
	assert.Equal(t, "dist.Array shape=[7 2] chunks=[3 2] dtype=<f8 partitions=[3 3 1]", a.String())
	requireLocal(t, whole, a)

	// narrower column chunks still give one partition per chunk row
	b, err := FromDense(context.Background(), r, seqBlock(5, 3), []int{2, 2}, zarr.Float64)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 1}, b.PartitionRowCounts())
	requireLocal(t, seqBlock(5, 3), b)

	_, err = FromDense(context.Background(), r, whole, []int{0, 2}, zarr.Float64)
	assert.True(t, errors.Is(err, errors.ErrInvalidShape))
	_, err = FromDense(context.Background(), r, whole, []int{3}, zarr.Float64)
	assert.True(t, errors.Is(err, errors.ErrInvalidShape))
}

func TestFromPartitionsChecksBookkeeping(t *testing.T) {
	r := newTestRunner(t)
	whole := seqBlock(4, 2)
	blocks := engine.Distribute([]*dense.Block{whole})

	_, err := FromPartitions(r, blocks, []int{4, 2}, []int{2, 2}, zarr.Float64, []int{2, 2})
	assert.True(t, errors.Is(err, errors.ErrPartitionSizeMismatch))
	_, err = FromPartitions(r, blocks, []int{4, 2}, []int{2, 2}, zarr.Float64, []int{3})
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	_, err = FromPartitions(r, blocks, []int{4, 2, 1}, []int{2, 2, 1}, zarr.Float64, []int{4})
	assert.True(t, errors.Is(err, errors.ErrInvalidShape))
}

func TestToLocalDetectsDrift(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	whole := seqBlock(4, 2)
	top, _ := whole.SliceRows(0, 3)
	bottom, _ := whole.SliceRows(3, 4)

	a, err := FromPartitions(r, engine.Distribute([]*dense.Block{top, bottom}), []int{4, 2}, []int{2, 2}, zarr.Float64, []int{2, 2})
	require.NoError(t, err)
	_, err = a.ToLocal(ctx)
	assert.True(t, errors.Is(err, errors.ErrPartitionSizeMismatch))

	wide := seqBlock(4, 3)
	b, err := FromPartitions(r, engine.Distribute([]*dense.Block{wide}), []int{4, 2}, []int{4, 2}, zarr.Float64, []int{4})
	require.NoError(t, err)
	_, err = b.ToLocal(ctx)
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
}

func TestZarrRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)
	store := zarr.NewMemoryStore()

	z, err := a.ToZarr(ctx, store, "arr", []int{3, 2})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 2}, z.Shape())
	assert.Equal(t, []int{3, 2}, z.Chunks())
	assert.ElementsMatch(t, []string{"arr/.zarray", "arr/0.0", "arr/1.0", "arr/2.0"}, store.Keys())

	back, err := FromZarr(ctx, r, store, "arr")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, back.PartitionRowCounts())
	assert.Equal(t, zarr.Float64, back.Dtype())
	requireLocal(t, whole, back)
}

func TestToZarrRealignsToStoreChunks(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	whole := seqBlock(7, 2)
	a := partitioned(t, r, whole, []int{3, 2}, 1, 4, 2)

	local, err := zarr.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	z, err := a.ToZarr(ctx, local, "nested/arr", []int{2, 1}, WithCompressor(&zarr.CompressionMeta{ID: "gzip"}), WithFillValue(-1))
	require.NoError(t, err)
	assert.Equal(t, "gzip", z.Meta().Compressor.ID)

	// the padded edge chunk carries the fill value
	edge, err := z.ReadChunk([]int{3, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{14, -1}, edge)

	back, err := FromZarr(ctx, r, local, "nested/arr")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 1}, back.PartitionRowCounts())
	requireLocal(t, whole, back)

	_, err = a.ToZarr(ctx, local, "bad", []int{2})
	assert.True(t, errors.Is(err, errors.ErrInvalidShape))
}

func TestFromZarrMissing(t *testing.T) {
	_, err := FromZarr(context.Background(), newTestRunner(t), zarr.NewMemoryStore(), "nothing")
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
}

func TestRepartition(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	b, err := a.Repartition(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2, 1}, b.PartitionRowCounts())
	assert.Equal(t, []int{2, 2}, b.Chunks())
	requireLocal(t, whole, b)

	same, err := a.Repartition(ctx, 3)
	require.NoError(t, err)
	assert.True(t, same.Partitions().Same(a.Partitions()))
}
