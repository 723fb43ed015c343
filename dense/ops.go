package dense

import (
	"github.com/qri-io/zarrdist/errors"
)

// UnaryFunc is applied elementwise.
type UnaryFunc func(x float64) float64

// BinaryFunc combines two elements.
type BinaryFunc func(x, y float64) float64

// Map applies fn to every value.
func (b *Block) Map(fn UnaryFunc) *Block {
	data := make([]float64, len(b.data))
	for i, v := range b.data {
		data[i] = fn(v)
	}
	return &Block{shape: b.Shape(), data: data}
}

// MapScalar combines every value with s.
func (b *Block) MapScalar(s float64, fn BinaryFunc) *Block {
	data := make([]float64, len(b.data))
	for i, v := range b.data {
		data[i] = fn(v, s)
	}
	return &Block{shape: b.Shape(), data: data}
}

// as2D views a shape as (rows, cols), a 1-D shape of n becoming (1, n) the
// way trailing-axis broadcasting aligns it.
func as2D(shape []int) (int, int) {
	if len(shape) == 1 {
		return 1, shape[0]
	}
	return shape[0], shape[1]
}

func broadcastDim(x, y int) (int, bool) {
	switch {
	case x == y:
		return x, true
	case x == 1:
		return y, true
	case y == 1:
		return x, true
	}
	return 0, false
}

// Broadcast combines a and b elementwise after aligning trailing axes and
// stretching size-1 axes.
func Broadcast(a, b *Block, fn BinaryFunc) (*Block, error) {
	ar, ac := as2D(a.shape)
	br, bc := as2D(b.shape)
	rows, ok := broadcastDim(ar, br)
	if !ok {
		return nil, errors.Newf(errors.ErrShapeMismatch, "cannot broadcast %v with %v", a.shape, b.shape)
	}
	cols, ok := broadcastDim(ac, bc)
	if !ok {
		return nil, errors.Newf(errors.ErrShapeMismatch, "cannot broadcast %v with %v", a.shape, b.shape)
	}
	stride := func(n, full int) int {
		if n == 1 && full != 1 {
			return 0
		}
		return 1
	}
	ars, acs := stride(ar, rows), stride(ac, cols)
	brs, bcs := stride(br, rows), stride(bc, cols)

	data := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			x := a.data[(i*ars)*ac+j*acs]
			y := b.data[(i*brs)*bc+j*bcs]
			data[i*cols+j] = fn(x, y)
		}
	}
	shape := []int{rows, cols}
	if a.Ndim() == 1 && b.Ndim() == 1 {
		shape = []int{cols}
	}
	return &Block{shape: shape, data: data}, nil
}

// SumAxis0 sums down the rows, giving one value per column.
func (b *Block) SumAxis0() *Block {
	w := b.Width()
	out := make([]float64, w)
	for i := 0; i < b.Rows(); i++ {
		for j := 0; j < w; j++ {
			out[j] += b.data[i*w+j]
		}
	}
	return &Block{shape: []int{w}, data: out}
}

// SumAxis1 sums across each row of a 2-D block.
func (b *Block) SumAxis1() (*Block, error) {
	if b.Ndim() != 2 {
		return nil, errors.New(errors.ErrUnsupportedOperation, "row sums of a 1-D block")
	}
	w := b.shape[1]
	out := make([]float64, b.Rows())
	for i := range out {
		for _, v := range b.data[i*w : (i+1)*w] {
			out[i] += v
		}
	}
	return &Block{shape: []int{b.Rows()}, data: out}, nil
}
