// Package dense holds the row-major in-memory block that every partition of
// a distributed array carries.
package dense

import (
	"fmt"

	"github.com/qri-io/zarrdist/errors"
)

// Block is a dense row-major array of one or two dimensions. A 1-D block of
// length n is treated as n rows of width 1.
type Block struct {
	shape []int
	data  []float64
}

// New returns a block of the given shape backed by data. data is not copied.
func New(data []float64, shape ...int) (*Block, error) {
	if len(shape) < 1 || len(shape) > 2 {
		return nil, errors.Newf(errors.ErrInvalidShape, "blocks have 1 or 2 dimensions, got %d", len(shape))
	}
	n := 1
	for _, d := range shape {
		if d < 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "negative dimension in %v", shape)
		}
		n *= d
	}
	if n != len(data) {
		return nil, errors.Newf(errors.ErrShapeMismatch, "shape %v needs %d values, got %d", shape, n, len(data))
	}
	return &Block{shape: append([]int(nil), shape...), data: data}, nil
}

// MustNew is New that panics. It is meant for literals in tests and examples.
func MustNew(data []float64, shape ...int) *Block {
	b, err := New(data, shape...)
	if err != nil {
		panic(err)
	}
	return b
}

// Zeros allocates a zero-filled block.
func Zeros(shape ...int) *Block {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return MustNew(make([]float64, n), shape...)
}

// Column builds an (n, 1) block from values.
func Column(values []float64) *Block {
	return MustNew(values, len(values), 1)
}

// FromBools builds a 1-D 0/1 block from a boolean vector.
func FromBools(v []bool) *Block {
	data := make([]float64, len(v))
	for i, b := range v {
		if b {
			data[i] = 1
		}
	}
	return MustNew(data, len(v))
}

func (b *Block) Shape() []int    { return append([]int(nil), b.shape...) }
func (b *Block) Ndim() int       { return len(b.shape) }
func (b *Block) Data() []float64 { return b.data }
func (b *Block) Len() int        { return len(b.data) }

// Rows is the extent of axis 0.
func (b *Block) Rows() int { return b.shape[0] }

// Width is the number of values per row; 1 for 1-D blocks.
func (b *Block) Width() int {
	if len(b.shape) == 1 {
		return 1
	}
	return b.shape[1]
}

// At returns the value at row i, column j.
func (b *Block) At(i, j int) float64 {
	return b.data[i*b.Width()+j]
}

// Bools interprets the block as a boolean vector, non-zero meaning true.
func (b *Block) Bools() []bool {
	out := make([]bool, len(b.data))
	for i, v := range b.data {
		out[i] = v != 0
	}
	return out
}

// Ints truncates every value to an int.
func (b *Block) Ints() []int {
	out := make([]int, len(b.data))
	for i, v := range b.data {
		out[i] = int(v)
	}
	return out
}

// Equal reports whether both blocks have the same shape and values.
func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	if len(b.shape) != len(o.shape) || len(b.data) != len(o.data) {
		return false
	}
	for i := range b.shape {
		if b.shape[i] != o.shape[i] {
			return false
		}
	}
	for i := range b.data {
		if b.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func (b *Block) String() string {
	return fmt.Sprintf("Block%v%v", b.shape, b.data)
}

func (b *Block) withRows(rows int, data []float64) *Block {
	shape := append([]int(nil), b.shape...)
	shape[0] = rows
	return &Block{shape: shape, data: data}
}

// SliceRows returns rows [start, stop). The result shares storage with b.
func (b *Block) SliceRows(start, stop int) (*Block, error) {
	if start < 0 || stop > b.Rows() || start > stop {
		return nil, errors.Newf(errors.ErrShapeMismatch, "rows [%d, %d) outside block of %d rows", start, stop, b.Rows())
	}
	w := b.Width()
	return b.withRows(stop-start, b.data[start*w:stop*w]), nil
}

// SliceCols returns columns [start, stop) of a 2-D block as a copy.
func (b *Block) SliceCols(start, stop int) (*Block, error) {
	if b.Ndim() != 2 {
		return nil, errors.New(errors.ErrUnsupportedOperation, "column slice of a 1-D block")
	}
	if start < 0 || stop > b.shape[1] || start > stop {
		return nil, errors.Newf(errors.ErrShapeMismatch, "columns [%d, %d) outside block of %d columns", start, stop, b.shape[1])
	}
	w, nw := b.shape[1], stop-start
	data := make([]float64, 0, b.Rows()*nw)
	for i := 0; i < b.Rows(); i++ {
		data = append(data, b.data[i*w+start:i*w+stop]...)
	}
	return &Block{shape: []int{b.Rows(), nw}, data: data}, nil
}

// Concat stacks blocks along axis 0. All blocks must share arity and width.
func Concat(blocks ...*Block) (*Block, error) {
	if len(blocks) == 0 {
		return nil, errors.New(errors.ErrShapeMismatch, "nothing to concatenate")
	}
	if len(blocks) == 1 {
		return blocks[0], nil
	}
	first := blocks[0]
	rows, n := 0, 0
	for _, bl := range blocks {
		if bl.Ndim() != first.Ndim() || bl.Width() != first.Width() {
			return nil, errors.Newf(errors.ErrShapeMismatch, "cannot concatenate %v with %v", bl.shape, first.shape)
		}
		rows += bl.Rows()
		n += len(bl.data)
	}
	data := make([]float64, 0, n)
	for _, bl := range blocks {
		data = append(data, bl.data...)
	}
	return first.withRows(rows, data), nil
}

// HConcat joins 2-D blocks with equal row counts along axis 1.
func HConcat(blocks ...*Block) (*Block, error) {
	if len(blocks) == 0 {
		return nil, errors.New(errors.ErrShapeMismatch, "nothing to concatenate")
	}
	if len(blocks) == 1 {
		return blocks[0], nil
	}
	rows, width := blocks[0].Rows(), 0
	for _, bl := range blocks {
		if bl.Ndim() != 2 || bl.Rows() != rows {
			return nil, errors.Newf(errors.ErrShapeMismatch, "cannot join %v beside %d rows", bl.shape, rows)
		}
		width += bl.shape[1]
	}
	data := make([]float64, 0, rows*width)
	for i := 0; i < rows; i++ {
		for _, bl := range blocks {
			w := bl.shape[1]
			data = append(data, bl.data[i*w:(i+1)*w]...)
		}
	}
	return &Block{shape: []int{rows, width}, data: data}, nil
}

// SelectRows keeps the rows whose mask entry is true.
func (b *Block) SelectRows(mask []bool) (*Block, error) {
	if len(mask) != b.Rows() {
		return nil, errors.Newf(errors.ErrShapeMismatch, "mask of %d entries for %d rows", len(mask), b.Rows())
	}
	w := b.Width()
	data := make([]float64, 0, len(b.data))
	kept := 0
	for i, keep := range mask {
		if keep {
			data = append(data, b.data[i*w:(i+1)*w]...)
			kept++
		}
	}
	return b.withRows(kept, data), nil
}

// TakeRows gathers rows by local index, in the given order.
func (b *Block) TakeRows(idx []int) (*Block, error) {
	w := b.Width()
	data := make([]float64, 0, len(idx)*w)
	for _, i := range idx {
		if i < 0 || i >= b.Rows() {
			return nil, errors.Newf(errors.ErrShapeMismatch, "row %d outside block of %d rows", i, b.Rows())
		}
		data = append(data, b.data[i*w:(i+1)*w]...)
	}
	return b.withRows(len(idx), data), nil
}

// SelectCols keeps the columns of a 2-D block whose mask entry is true.
func (b *Block) SelectCols(mask []bool) (*Block, error) {
	if b.Ndim() != 2 {
		return nil, errors.New(errors.ErrUnsupportedOperation, "column selection on a 1-D block")
	}
	if len(mask) != b.shape[1] {
		return nil, errors.Newf(errors.ErrShapeMismatch, "column mask of %d entries for %d columns", len(mask), b.shape[1])
	}
	var cols []int
	for j, keep := range mask {
		if keep {
			cols = append(cols, j)
		}
	}
	w := b.shape[1]
	data := make([]float64, 0, b.Rows()*len(cols))
	for i := 0; i < b.Rows(); i++ {
		for _, j := range cols {
			data = append(data, b.data[i*w+j])
		}
	}
	return &Block{shape: []int{b.Rows(), len(cols)}, data: data}, nil
}

// AddAxis turns a 1-D block of n values into an (n, 1) block.
func (b *Block) AddAxis() (*Block, error) {
	if b.Ndim() != 1 {
		return nil, errors.Newf(errors.ErrUnsupportedOperation, "new axis on a %d-D block", b.Ndim())
	}
	return &Block{shape: []int{b.shape[0], 1}, data: b.data}, nil
}

// Row returns row i as a 1-D block, or a one-value block for 1-D input.
func (b *Block) Row(i int) (*Block, error) {
	if i < 0 {
		i += b.Rows()
	}
	if i < 0 || i >= b.Rows() {
		return nil, errors.Newf(errors.ErrShapeMismatch, "row %d outside block of %d rows", i, b.Rows())
	}
	w := b.Width()
	return &Block{shape: []int{w}, data: append([]float64(nil), b.data[i*w:(i+1)*w]...)}, nil
}
