package dist

import (
	"context"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/copartition"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/realign"
)

// Operand is the second argument of an elementwise operation: a *Array, a
// Local block or a Scalar.
type Operand interface {
	operand()
}

// Scalar is a single value applied to every element.
type Scalar float64

// Local is an in-memory block held by the caller.
type Local struct {
	Block *dense.Block
}

func (*Array) operand() {}
func (Scalar) operand() {}
func (Local) operand()  {}

// Asarray materialises any operand as a local block; a scalar becomes a
// one-value vector.
func Asarray(ctx context.Context, op Operand) (*dense.Block, error) {
	switch o := op.(type) {
	case *Array:
		return o.ToLocal(ctx)
	case Local:
		return o.Block, nil
	case Scalar:
		return dense.MustNew([]float64{float64(o)}, 1), nil
	}
	return nil, errors.Newf(errors.ErrUnsupportedOperation, "operand %T", op)
}

// strategy is how a binary operation combines its operands, in the order
// the cases are tried.
type strategy int

const (
	unary strategy = iota
	sameObject
	columnVector
	broadcast
	matched
	mismatchedColumn
	materialize1D
	unsupported
)

func (s strategy) String() string {
	switch s {
	case unary:
		return "unary"
	case sameObject:
		return "same object"
	case columnVector:
		return "co-partitioned column vector"
	case broadcast:
		return "broadcast"
	case matched:
		return "matched partitions"
	case mismatchedColumn:
		return "materialised single column"
	case materialize1D:
		return "materialised 1-D operand"
	}
	return "unsupported"
}

// classify picks the strategy for a op b.
func classify(a *Array, b Operand) strategy {
	switch o := b.(type) {
	case nil:
		return unary
	case *Array:
		if o == a {
			return sameObject
		}
		sameRows := a.shape[0] == o.shape[0]
		if sameRows && o.Ndim() == a.Ndim() && equalInts(a.counts, o.counts) {
			return matched
		}
		if sameRows && o.Ndim() == 2 && o.shape[1] == 1 {
			return mismatchedColumn
		}
		if o.Ndim() == 1 {
			return materialize1D
		}
	case Local:
		if o.Block == nil {
			return unsupported
		}
		if isColumnOf(a, o.Block) {
			return columnVector
		}
		return broadcast
	case Scalar:
		return broadcast
	}
	return unsupported
}

// isColumnOf reports whether b holds one value per row of a and has to be
// cut along a's partitions rather than broadcast whole.
func isColumnOf(a *Array, b *dense.Block) bool {
	if b.Rows() != a.shape[0] || b.Width() != 1 {
		return false
	}
	return b.Ndim() == a.Ndim()
}

// OpOption configures an elementwise operation.
type OpOption func(*opConfig)

type opConfig struct {
	dtype   *zarr.Dtype
	inPlace bool
}

// WithDtype sets the dtype of the result; it defaults to the first operand's.
func WithDtype(dt zarr.Dtype) OpOption {
	return func(c *opConfig) { c.dtype = &dt }
}

// InPlace rebinds the first operand to the result instead of returning a new
// array. The result must keep the operand's shape.
func InPlace() OpOption {
	return func(c *opConfig) { c.inPlace = true }
}

// Unary applies fn to every element.
func (a *Array) Unary(ctx context.Context, fn dense.UnaryFunc, opts ...OpOption) (*Array, error) {
	st := a.state.Load()
	parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
		return x.Map(fn), nil
	})
	if err != nil {
		return nil, err
	}
	return a.result(st, parts, a.shape, opts)
}

// Binary combines a with b elementwise. How the operands meet depends on
// what b is, tried in this order:
//
//   - a itself: fn(x, x) per partition.
//   - a local vector with one value per row of a: cut along a's partitions and
//     combined partition by partition.
//   - a scalar or any other local block: broadcast against every partition.
//   - a distributed array of a's arity with a's partitioning: combined
//     partition by partition.
//   - a distributed single column with the same rows but another
//     partitioning: collected whole, then cut along a's partitions. This
//     moves the entire column to the caller.
//   - a distributed 1-D array: collected whole, then retried as a local
//     operand.
//
// Anything else fails with ErrUnsupportedOperation.
func (a *Array) Binary(ctx context.Context, fn dense.BinaryFunc, b Operand, opts ...OpOption) (*Array, error) {
	if b == nil {
		return nil, errors.New(errors.ErrUnsupportedOperation, "binary operation without a second operand")
	}
	st := a.state.Load()
	s := classify(a, b)
	a.log.Debugf("%s op %T: %s", a, b, s)

	switch s {
	case sameObject:
		parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
			return dense.Broadcast(x, x, fn)
		})
		if err != nil {
			return nil, err
		}
		return a.result(st, parts, a.shape, opts)

	case columnVector:
		return a.zipColumn(ctx, st, b.(Local).Block, fn, opts)

	case broadcast:
		return a.broadcast(ctx, st, b, fn, opts)

	case matched:
		o := b.(*Array)
		shape, err := a.resultShape(o.shape)
		if err != nil {
			return nil, err
		}
		parts, err := zipBlocks(ctx, a.r, st.parts, o.Partitions(), fn)
		if err != nil {
			return nil, err
		}
		return a.result(st, parts, shape, opts)

	case mismatchedColumn:
		o := b.(*Array)
		a.log.Infof("materialising %d rows of %s to match partitions %v", o.shape[0], o, a.counts)
		col, err := o.ToLocal(ctx)
		if err != nil {
			return nil, err
		}
		return a.zipColumn(ctx, st, col, fn, opts)

	case materialize1D:
		local, err := b.(*Array).ToLocal(ctx)
		if err != nil {
			return nil, err
		}
		return a.Binary(ctx, fn, Local{Block: local}, opts...)
	}
	return nil, errors.Newf(errors.ErrUnsupportedOperation, "no elementwise strategy for %s with %s", a, describe(b))
}

// Apply runs a unary function when called with no operand and a binary one
// when called with one.
func (a *Array) Apply(ctx context.Context, fn any, operands []Operand, opts ...OpOption) (*Array, error) {
	switch len(operands) {
	case 0:
		f, ok := fn.(dense.UnaryFunc)
		if !ok {
			if g, isFunc := fn.(func(float64) float64); isFunc {
				f, ok = g, true
			}
		}
		if ok {
			return a.Unary(ctx, f, opts...)
		}
	case 1:
		f, ok := fn.(dense.BinaryFunc)
		if !ok {
			if g, isFunc := fn.(func(float64, float64) float64); isFunc {
				f, ok = g, true
			}
		}
		if ok {
			return a.Binary(ctx, f, operands[0], opts...)
		}
	}
	return nil, errors.Newf(errors.ErrUnsupportedOperation, "%T applied to %d operands", fn, len(operands)+1)
}

// zipColumn cuts col along a's partitions and combines the pieces with a's
// blocks partition by partition.
func (a *Array) zipColumn(ctx context.Context, st *state, col *dense.Block, fn dense.BinaryFunc, opts []OpOption) (*Array, error) {
	shape, err := a.resultShape(col.Shape())
	if err != nil {
		return nil, err
	}
	pieces, err := copartition.Split(a.counts, col.Data())
	if err != nil {
		return nil, err
	}
	blocks := make([]*dense.Block, len(pieces))
	for i, p := range pieces {
		if col.Ndim() == 1 {
			blocks[i], err = dense.New(p, len(p))
		} else {
			blocks[i], err = dense.New(p, len(p), 1)
		}
		if err != nil {
			return nil, err
		}
	}
	parts, err := zipBlocks(ctx, a.r, st.parts, engine.Distribute(blocks), fn)
	if err != nil {
		return nil, err
	}
	return a.result(st, parts, shape, opts)
}

func (a *Array) broadcast(ctx context.Context, st *state, b Operand, fn dense.BinaryFunc, opts []OpOption) (*Array, error) {
	var (
		shape = a.shape
		apply func(x *dense.Block) (*dense.Block, error)
	)
	switch o := b.(type) {
	case Scalar:
		apply = func(x *dense.Block) (*dense.Block, error) { return x.MapScalar(float64(o), fn), nil }
	case Local:
		if o.Block.Ndim() == 2 && o.Block.Rows() != 1 {
			return nil, errors.Newf(errors.ErrUnsupportedOperation, "local block %v cannot be broadcast against row partitions", o.Block.Shape())
		}
		var err error
		if shape, err = a.resultShape(o.Block.Shape()); err != nil {
			return nil, err
		}
		apply = func(x *dense.Block) (*dense.Block, error) { return dense.Broadcast(x, o.Block, fn) }
	}
	parts, err := engine.Map(ctx, a.r, st.parts, func(_ context.Context, x *dense.Block) (*dense.Block, error) {
		return apply(x)
	})
	if err != nil {
		return nil, err
	}
	return a.result(st, parts, shape, opts)
}

func zipBlocks(ctx context.Context, r *engine.Runner, x, y realign.Blocks, fn dense.BinaryFunc) (realign.Blocks, error) {
	return engine.ZipPartitions(ctx, r, x, y, func(_ context.Context, xs, ys []*dense.Block) ([]*dense.Block, error) {
		if len(xs) != 1 || len(ys) != 1 {
			return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "zipping %d blocks with %d", len(xs), len(ys))
		}
		out, err := dense.Broadcast(xs[0], ys[0], fn)
		if err != nil {
			return nil, err
		}
		return []*dense.Block{out}, nil
	})
}

// resultShape is the shape of a op b under trailing-axis broadcasting. An
// operation that would change a's arity or row count cannot be carried out
// partition by partition.
func (a *Array) resultShape(b []int) ([]int, error) {
	n := len(a.shape)
	if len(b) > n {
		n = len(b)
	}
	out := make([]int, n)
	for i := 1; i <= n; i++ {
		x, y := 1, 1
		if i <= len(a.shape) {
			x = a.shape[len(a.shape)-i]
		}
		if i <= len(b) {
			y = b[len(b)-i]
		}
		switch {
		case x == y, y == 1:
			out[n-i] = x
		case x == 1:
			out[n-i] = y
		default:
			return nil, errors.Newf(errors.ErrShapeMismatch, "cannot broadcast %v with %v", a.shape, b)
		}
	}
	if len(out) != len(a.shape) || out[0] != a.shape[0] {
		return nil, errors.Newf(errors.ErrUnsupportedOperation, "broadcasting %v with %v changes the row layout", a.shape, b)
	}
	return out, nil
}

// result wraps parts, computed from st, as the outcome of an elementwise
// operation, rebinding a when the operation was asked to run in place.
func (a *Array) result(st *state, parts realign.Blocks, shape []int, opts []OpOption) (*Array, error) {
	var cfg opConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	dtype := st.dtype
	if cfg.dtype != nil {
		dtype = *cfg.dtype
	}
	if cfg.inPlace {
		if !equalInts(shape, a.shape) {
			return nil, errors.Newf(errors.ErrUnsupportedOperation, "in-place result %v does not fit %v", shape, a.shape)
		}
		a.state.Store(&state{parts: parts, dtype: dtype})
		return a, nil
	}
	chunks := a.Chunks()
	if len(shape) == 2 && shape[1] != a.shape[1] {
		chunks[1] = shape[1]
	}
	return a.derive(parts, shape, chunks, dtype, a.counts)
}

func describe(op Operand) string {
	switch o := op.(type) {
	case *Array:
		return o.String()
	case Local:
		if o.Block != nil {
			return "local " + o.Block.String()
		}
	}
	return "operand"
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
