package dist

import (
	"context"

	"github.com/qri-io/zarrdist/copartition"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
)

// vector materialises a 1-D or single-column selector.
func vector(ctx context.Context, sel Operand) (*dense.Block, error) {
	switch sel.(type) {
	case *Array, Local:
	default:
		return nil, errors.Newf(errors.ErrUnsupportedOperation, "selecting with %T", sel)
	}
	b, err := Asarray(ctx, sel)
	if err != nil {
		return nil, err
	}
	if b == nil || b.Width() != 1 {
		return nil, errors.New(errors.ErrShapeMismatch, "selector must be a vector")
	}
	return b, nil
}

// SelectRows keeps the rows whose mask entry is non-zero. The mask is cut
// along a's partitions, so every kept row stays in its partition and the
// result's partitions are no longer chunk sized; some may be empty.
func (a *Array) SelectRows(ctx context.Context, mask Operand) (*Array, error) {
	v, err := vector(ctx, mask)
	if err != nil {
		return nil, err
	}
	pieces, err := copartition.Split(a.counts, v.Bools())
	if err != nil {
		return nil, err
	}
	return selectRows(ctx, a, pieces, copartition.Counts(pieces), func(b *dense.Block, keep []bool) (*dense.Block, error) {
		return b.SelectRows(keep)
	})
}

// TakeRows keeps the rows at the given global indices, which must be
// non-decreasing.
func (a *Array) TakeRows(ctx context.Context, indices Operand) (*Array, error) {
	v, err := vector(ctx, indices)
	if err != nil {
		return nil, err
	}
	local, err := copartition.Locate(a.counts, v.Ints())
	if err != nil {
		return nil, err
	}
	counts := make([]int, len(local))
	for i, idx := range local {
		counts[i] = len(idx)
	}
	return selectRows(ctx, a, local, counts, func(b *dense.Block, idx []int) (*dense.Block, error) {
		return b.TakeRows(idx)
	})
}

// selectRows pairs partition i of a with selector i and keeps what pick
// returns. counts is the number of rows every selector keeps.
func selectRows[S any](ctx context.Context, a *Array, sel []S, counts []int, pick func(*dense.Block, S) (*dense.Block, error)) (*Array, error) {
	st := a.state.Load()
	parts, err := engine.ZipPartitions(ctx, a.r, st.parts, engine.Distribute(sel), func(_ context.Context, xs []*dense.Block, ss []S) ([]*dense.Block, error) {
		if len(xs) != 1 || len(ss) != 1 {
			return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "pairing %d blocks with %d selectors", len(xs), len(ss))
		}
		out, err := pick(xs[0], ss[0])
		if err != nil {
			return nil, err
		}
		return []*dense.Block{out}, nil
	})
	if err != nil {
		return nil, err
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	shape := a.Shape()
	shape[0] = total
	a.log.Debugf("row selection kept %d of %d rows, partitions %v", total, a.shape[0], counts)
	return a.derive(parts, shape, a.chunks, st.dtype, counts)
}

// SelectColumns keeps the columns of a 2-D array whose mask entry is
// non-zero. Row partitioning is unchanged.
func (a *Array) SelectColumns(ctx context.Context, mask Operand) (*Array, error) {
	if a.Ndim() != 2 {
		return nil, errors.New(errors.ErrUnsupportedOperation, "column selection on a 1-D array")
	}
	v, err := vector(ctx, mask)
	if err != nil {
		return nil, err
	}
	keep := v.Bools()
	if len(keep) != a.shape[1] {
		return nil, errors.Newf(errors.ErrShapeMismatch, "column mask of %d entries for %d columns", len(keep), a.shape[1])
	}
	kept := 0
	for _, k := range keep {
		if k {
			kept++
		}
	}

	st := a.state.Load()
	parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
		return x.SelectCols(keep)
	})
	if err != nil {
		return nil, err
	}
	chunk := kept
	if chunk == 0 {
		chunk = 1
	}
	return a.derive(parts, []int{a.shape[0], kept}, []int{a.chunks[0], chunk}, st.dtype, a.counts)
}

// AddAxis turns a 1-D array of n values into an (n, 1) column.
func (a *Array) AddAxis(ctx context.Context) (*Array, error) {
	if a.Ndim() != 1 {
		return nil, errors.Newf(errors.ErrUnsupportedOperation, "new axis on a %d-D array", a.Ndim())
	}
	st := a.state.Load()
	parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
		return x.AddAxis()
	})
	if err != nil {
		return nil, err
	}
	return a.derive(parts, []int{a.shape[0], 1}, []int{a.chunks[0], 1}, st.dtype, a.counts)
}

// Row returns row i, negative i counting from the end. It materialises the
// whole array first and is not meant for large arrays.
func (a *Array) Row(ctx context.Context, i int) (*dense.Block, error) {
	a.log.Debugf("materialising %s for row %d", a, i)
	local, err := a.ToLocal(ctx)
	if err != nil {
		return nil, err
	}
	return local.Row(i)
}

// Mask returns the rows whose mask entry is true as a local block. It
// materialises the whole array first and is not meant for large arrays; use
// SelectRows to keep the result distributed.
func (a *Array) Mask(ctx context.Context, mask []bool) (*dense.Block, error) {
	a.log.Debugf("materialising %s for a %d entry mask", a, len(mask))
	local, err := a.ToLocal(ctx)
	if err != nil {
		return nil, err
	}
	return local.SelectRows(mask)
}
