package chunkio

import (
	"context"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/errors"
)

// StoreSink writes chunk row blocks into an existing zarr array. The array's
// recorded geometry decides where rows land, never the caller's.
type StoreSink struct {
	Store zarr.Store
	Path  string
}

// WriteChunk writes block as rows [c*index, c*(index+1)) of the array, c
// being the store's chunk row size. The block must hold exactly c rows,
// except at the last index where it holds the remainder, and must be as wide
// as the array.
func (s StoreSink) WriteChunk(ctx context.Context, index int, block *dense.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	z, err := zarr.Open(s.Store, s.Path, zarr.ModeReadWrite)
	if err != nil {
		return errors.WithCode(err, errors.ErrStoreUnavailable, "opening chunk sink")
	}
	meta := z.Meta()
	grid, err := zarr.ChunkGrid(meta.Shape, meta.Chunks)
	if err != nil {
		return err
	}
	if index < 0 || index >= grid[0] {
		return errors.Newf(errors.ErrChunkShapeMismatch, "chunk row %d outside grid %v", index, grid)
	}

	p := zarr.Project(meta.Shape, meta.Chunks, append([]int{index}, make([]int, len(grid)-1)...))
	if want := p.Extent()[0]; block.Rows() != want {
		return errors.Newf(errors.ErrChunkShapeMismatch, "chunk row %d needs %d rows, block has %d", index, want, block.Rows())
	}
	if block.Ndim() != len(meta.Shape) {
		return errors.Newf(errors.ErrChunkShapeMismatch, "%d-D block for a %d-D array", block.Ndim(), len(meta.Shape))
	}
	if len(meta.Shape) == 1 {
		return z.WriteChunk([]int{index}, pad(block, meta))
	}

	if block.Width() != meta.Shape[1] {
		return errors.Newf(errors.ErrChunkShapeMismatch, "block is %d columns wide, array has %d", block.Width(), meta.Shape[1])
	}
	for col := 0; col < grid[1]; col++ {
		start, stop := zarr.ChunkExtent(meta.Chunks, []int{index, col}, 1)
		if stop > meta.Shape[1] {
			stop = meta.Shape[1]
		}
		part, err := block.SliceCols(start, stop)
		if err != nil {
			return err
		}
		if err := z.WriteChunk([]int{index, col}, pad(part, meta)); err != nil {
			return err
		}
	}
	return nil
}

// pad lays b out in a full chunk, filling cells past b's extent with the
// array's fill value.
func pad(b *dense.Block, meta zarr.ArrayMeta) []float64 {
	out := make([]float64, meta.ChunkLen())
	fill := meta.Fill()
	if fill != 0 {
		for i := range out {
			out[i] = fill
		}
	}
	cw := 1
	if len(meta.Chunks) == 2 {
		cw = meta.Chunks[1]
	}
	w := b.Width()
	data := b.Data()
	for i := 0; i < b.Rows(); i++ {
		copy(out[i*cw:i*cw+w], data[i*w:(i+1)*w])
	}
	return out
}
