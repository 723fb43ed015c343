package dist

import (
	"context"
	"strings"
	"testing"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func add(x, y float64) float64 { return x + y }
func mul(x, y float64) float64 { return x * y }

func local(t *testing.T, whole, other *dense.Block, fn dense.BinaryFunc) *dense.Block {
	t.Helper()
	out, err := dense.Broadcast(whole, other, fn)
	require.NoError(t, err)
	return out
}

func TestClassify(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, _ := testArray(t, r)

	matchedArr, err := FromDense(ctx, r, seqBlock(7, 1), []int{3, 1}, zarr.Float64)
	require.NoError(t, err)
	otherCol, err := FromDense(ctx, r, seqBlock(7, 1), []int{2, 1}, zarr.Float64)
	require.NoError(t, err)
	flat, err := FromDense(ctx, r, seqBlock(2, 0), []int{1}, zarr.Float64)
	require.NoError(t, err)
	wide, err := FromDense(ctx, r, seqBlock(5, 3), []int{5, 3}, zarr.Float64)
	require.NoError(t, err)

	cases := []struct {
		b    Operand
		want strategy
	}{
		{nil, unary},
		{a, sameObject},
		{Local{Block: seqBlock(7, 1)}, columnVector},
		{Scalar(3), broadcast},
		{Local{Block: seqBlock(2, 0)}, broadcast},
		{matchedArr, matched},
		{otherCol, mismatchedColumn},
		{flat, materialize1D},
		{wide, unsupported},
		{Local{}, unsupported},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, classify(a, c.b), "%s", describe(c.b))
	}

	vec, err := FromDense(ctx, r, seqBlock(7, 0), []int{3}, zarr.Float64)
	require.NoError(t, err)
	assert.Equal(t, columnVector, classify(vec, Local{Block: seqBlock(7, 0)}))
	assert.Equal(t, broadcast, classify(vec, Local{Block: seqBlock(7, 1)}))
}

func TestUnary(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	neg, err := a.Unary(ctx, func(x float64) float64 { return -x })
	require.NoError(t, err)
	assert.Equal(t, a.PartitionRowCounts(), neg.PartitionRowCounts())
	requireLocal(t, whole.Map(func(x float64) float64 { return -x }), neg)
	requireLocal(t, whole, a)
}

func TestBinarySameObject(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	sq, err := a.Binary(ctx, mul, a)
	require.NoError(t, err)
	requireLocal(t, local(t, whole, whole, mul), sq)
}

func TestBinaryColumnVector(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)
	col := seqBlock(7, 1)

	out, err := a.Binary(ctx, add, Local{Block: col})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, out.PartitionRowCounts())
	requireLocal(t, local(t, whole, col, add), out)

	// 1-D against 1-D is cut along partitions too
	vec, err := FromDense(ctx, r, seqBlock(7, 0), []int{3}, zarr.Float64)
	require.NoError(t, err)
	out, err = vec.Binary(ctx, mul, Local{Block: seqBlock(7, 0)})
	require.NoError(t, err)
	requireLocal(t, local(t, seqBlock(7, 0), seqBlock(7, 0), mul), out)
}

func TestBinaryBroadcast(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	out, err := a.Binary(ctx, add, Scalar(10))
	require.NoError(t, err)
	requireLocal(t, whole.MapScalar(10, add), out)

	row := dense.MustNew([]float64{100, 200}, 2)
	out, err = a.Binary(ctx, add, Local{Block: row})
	require.NoError(t, err)
	requireLocal(t, local(t, whole, row, add), out)

	// a single column stretched to three columns
	col, err := FromDense(ctx, r, seqBlock(7, 1), []int{3, 1}, zarr.Float64)
	require.NoError(t, err)
	three := dense.MustNew([]float64{1, 2, 3}, 1, 3)
	out, err = col.Binary(ctx, mul, Local{Block: three})
	require.NoError(t, err)
	assert.Equal(t, []int{7, 3}, out.Shape())
	assert.Equal(t, []int{3, 3}, out.Chunks())
	requireLocal(t, local(t, seqBlock(7, 1), three, mul), out)

	_, err = a.Binary(ctx, add, Local{Block: dense.MustNew([]float64{1, 2, 3}, 3)})
	assert.True(t, errors.Is(err, errors.ErrShapeMismatch))
	_, err = a.Binary(ctx, add, Local{Block: seqBlock(7, 2)})
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
}

func TestBinaryMatchedPartitions(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)
	b, err := FromDense(ctx, r, seqBlock(7, 2).Map(func(x float64) float64 { return x * 10 }), []int{3, 2}, zarr.Float64)
	require.NoError(t, err)

	out, err := a.Binary(ctx, add, b)
	require.NoError(t, err)
	other, err := b.ToLocal(ctx)
	require.NoError(t, err)
	requireLocal(t, local(t, whole, other, add), out)
}

// A single distributed column partitioned differently from a is collected on
// the caller in full before it is cut along a's partitions. The result is
// right; the cost is one full copy of the column, which is logged.
func TestBinaryMismatchedColumnMaterialises(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.InfoLevel)
	r := engine.New(engine.WithLogger(logger.NewZap(zap.New(core))))
	a, whole := testArray(t, r)

	col := seqBlock(7, 1)
	b, err := FromDense(ctx, r, col, []int{2, 1}, zarr.Float64)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2, 2, 1}, b.PartitionRowCounts())

	out, err := a.Binary(ctx, add, b)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, out.PartitionRowCounts())
	requireLocal(t, local(t, whole, col, add), out)

	found := false
	for _, e := range logs.All() {
		if strings.Contains(e.Message, "materialising 7 rows") {
			found = true
		}
	}
	assert.True(t, found, "materialisation of the column is logged")
}

func TestBinaryDistributedVector(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	row := dense.MustNew([]float64{5, 7}, 2)
	b, err := FromDense(ctx, r, row, []int{1}, zarr.Float64)
	require.NoError(t, err)
	out, err := a.Binary(ctx, mul, b)
	require.NoError(t, err)
	requireLocal(t, local(t, whole, row, mul), out)

	// a 1-D operand with a's rows but another partitioning
	vec, err := FromDense(ctx, r, seqBlock(7, 0), []int{3}, zarr.Float64)
	require.NoError(t, err)
	other, err := FromDense(ctx, r, seqBlock(7, 0), []int{4}, zarr.Float64)
	require.NoError(t, err)
	out, err = vec.Binary(ctx, add, other)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 3, 1}, out.PartitionRowCounts())
	requireLocal(t, local(t, seqBlock(7, 0), seqBlock(7, 0), add), out)
}

func TestBinaryUnsupported(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, _ := testArray(t, r)
	wide, err := FromDense(ctx, r, seqBlock(5, 3), []int{5, 3}, zarr.Float64)
	require.NoError(t, err)

	_, err = a.Binary(ctx, add, wide)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
	_, err = a.Binary(ctx, add, nil)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
}

func TestBinaryOptions(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	out, err := a.Binary(ctx, mul, Scalar(2), WithDtype(zarr.Float32))
	require.NoError(t, err)
	assert.Equal(t, zarr.Float32, out.Dtype())
	assert.Equal(t, zarr.Float64, a.Dtype())

	before := a.Partitions()
	same, err := a.Binary(ctx, mul, Scalar(2), InPlace(), WithDtype(zarr.Int64))
	require.NoError(t, err)
	assert.Same(t, a, same)
	assert.Equal(t, zarr.Int64, a.Dtype())
	assert.False(t, a.Partitions().Same(before))
	requireLocal(t, whole.MapScalar(2, mul), a)

	col, err := FromDense(ctx, r, seqBlock(7, 1), []int{3, 1}, zarr.Float64)
	require.NoError(t, err)
	_, err = col.Binary(ctx, mul, Local{Block: dense.MustNew([]float64{1, 2}, 1, 2)}, InPlace())
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
	assert.Equal(t, []int{7, 1}, col.Shape())
}

func TestApply(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	out, err := a.Apply(ctx, func(x float64) float64 { return x + 1 }, nil)
	require.NoError(t, err)
	requireLocal(t, whole.MapScalar(1, add), out)

	out, err = a.Apply(ctx, dense.BinaryFunc(mul), []Operand{Scalar(3)})
	require.NoError(t, err)
	requireLocal(t, whole.MapScalar(3, mul), out)

	_, err = a.Apply(ctx, mul, nil)
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
	_, err = a.Apply(ctx, add, []Operand{Scalar(1), Scalar(2)})
	assert.True(t, errors.Is(err, errors.ErrUnsupportedOperation))
}

func TestAsarray(t *testing.T) {
	ctx := context.Background()
	r := newTestRunner(t)
	a, whole := testArray(t, r)

	got, err := Asarray(ctx, a)
	require.NoError(t, err)
	assert.True(t, got.Equal(whole))

	got, err = Asarray(ctx, Local{Block: whole})
	require.NoError(t, err)
	assert.Same(t, whole, got)

	got, err = Asarray(ctx, Scalar(4))
	require.NoError(t, err)
	assert.Equal(t, []float64{4}, got.Data())
}
