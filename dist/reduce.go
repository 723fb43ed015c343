package dist

import (
	"context"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
)

// Sum adds up values along axis. Axis 0 yields a single-partition array with
// one value per column; axis 1 yields a 1-D array of row sums partitioned like
// a. Other axes are unsupported.
func (a *Array) Sum(ctx context.Context, axis int) (*Array, error) {
	st := a.state.Load()
	switch axis {
	case 0:
		partials, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
			return x.SumAxis0(), nil
		})
		if err != nil {
			return nil, err
		}
		sums, err := engine.Collect(ctx, a.r, partials)
		if err != nil {
			return nil, err
		}
		total := make([]float64, a.width())
		for _, s := range sums {
			for j, v := range s.Data() {
				total[j] += v
			}
		}
		return a.single(dense.MustNew(total, len(total)), sumDtype(st.dtype))

	case 1:
		if a.Ndim() != 2 {
			return nil, errors.Newf(errors.ErrUnsupportedOperation, "sum along axis 1 of %d-D array", a.Ndim())
		}
		parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
			return x.SumAxis1()
		})
		if err != nil {
			return nil, err
		}
		return a.derive(parts, a.shape[:1], a.chunks[:1], sumDtype(st.dtype), a.counts)
	}
	return nil, errors.Newf(errors.ErrUnsupportedOperation, "sum along axis %d", axis)
}

// Mean averages the columns of a. Every partition reports its row count and
// column sums; the totals are combined on the caller. Only axis 0 is
// supported.
func (a *Array) Mean(ctx context.Context, axis int) (*Array, error) {
	if axis != 0 {
		return nil, errors.Newf(errors.ErrUnsupportedOperation, "mean along axis %d", axis)
	}
	type partial struct {
		rows int
		sums *dense.Block
	}
	partials, err := engine.Map(ctx, a.r, a.Partitions(), func(_ context.Context, x *dense.Block) (partial, error) {
		return partial{rows: x.Rows(), sums: x.SumAxis0()}, nil
	})
	if err != nil {
		return nil, err
	}
	collected, err := engine.Collect(ctx, a.r, partials)
	if err != nil {
		return nil, err
	}
	rows := 0
	mean := make([]float64, a.width())
	for _, p := range collected {
		rows += p.rows
		for j, v := range p.sums.Data() {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(rows)
	}
	return a.single(dense.MustNew(mean, len(mean)), zarr.Float64)
}

// single wraps a reduction result as a one-partition array.
func (a *Array) single(b *dense.Block, dtype zarr.Dtype) (*Array, error) {
	n := b.Rows()
	chunk := n
	if chunk == 0 {
		chunk = 1
	}
	return a.derive(engine.Distribute([]*dense.Block{b}), []int{n}, []int{chunk}, dtype, []int{n})
}

// sumDtype widens booleans the way counting them needs.
func sumDtype(dt zarr.Dtype) zarr.Dtype {
	if dt.BasicType == zarr.BTBoolean {
		return zarr.Int64
	}
	return dt
}
