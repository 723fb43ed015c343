// Package chunkio reads and writes single chunks of an array, whether the
// array lives in memory or in a zarr store. Callers only deal with one chunk
// coordinate or one chunk row index at a time.
package chunkio

import (
	"context"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/errors"
)

// Source is anything chunks can be read from.
type Source interface {
	// Shape is the full extent of the source array.
	Shape() []int
	// ReadChunk returns the valid part of the chunk at coord, clamped to
	// Shape.
	ReadChunk(ctx context.Context, chunks, coord []int) (*dense.Block, error)
}

// DenseSource serves chunks by slicing an in-memory block.
type DenseSource struct {
	Block *dense.Block
}

var _ Source = DenseSource{}

func (s DenseSource) Shape() []int { return s.Block.Shape() }

func (s DenseSource) ReadChunk(_ context.Context, chunks, coord []int) (*dense.Block, error) {
	if len(chunks) != s.Block.Ndim() || len(coord) != s.Block.Ndim() {
		return nil, errors.Newf(errors.ErrInvalidShape, "chunk %v of shape %v for a %d-D block", coord, chunks, s.Block.Ndim())
	}
	p := zarr.Project(s.Block.Shape(), chunks, coord)
	rows, err := s.Block.SliceRows(p.Start[0], p.Stop[0])
	if err != nil {
		return nil, err
	}
	if s.Block.Ndim() == 1 {
		return rows, nil
	}
	return rows.SliceCols(p.Start[1], p.Stop[1])
}

// StoreSource serves chunks out of a zarr array. Every read opens the array
// read-only, so a StoreSource can be shared by concurrent partition tasks.
type StoreSource struct {
	Store zarr.Store
	Path  string

	shape []int
}

var _ Source = (*StoreSource)(nil)

// OpenStoreSource opens the array at path once to learn its geometry.
func OpenStoreSource(store zarr.Store, path string) (*StoreSource, *zarr.Array, error) {
	z, err := zarr.Open(store, path, zarr.ModeRead)
	if err != nil {
		return nil, nil, err
	}
	return &StoreSource{Store: store, Path: path, shape: z.Shape()}, z, nil
}

func (s *StoreSource) Shape() []int { return append([]int(nil), s.shape...) }

// ReadChunk returns the stored chunk at coord, trimmed to the array's valid
// extent. chunks must equal the store's own chunk shape.
func (s *StoreSource) ReadChunk(ctx context.Context, chunks, coord []int) (*dense.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	z, err := zarr.Open(s.Store, s.Path, zarr.ModeRead)
	if err != nil {
		return nil, err
	}
	stored := z.Chunks()
	if !equalInts(stored, chunks) {
		return nil, errors.Newf(errors.ErrChunkShapeMismatch, "store %q has chunks %v, asked for %v", s.Path, stored, chunks)
	}
	values, err := z.ReadChunk(coord)
	if err != nil {
		return nil, err
	}
	full, err := dense.New(values, stored...)
	if err != nil {
		return nil, err
	}
	return trim(full, zarr.Project(z.Shape(), stored, coord))
}

// trim drops the padding a stored edge chunk carries past the array's extent.
func trim(full *dense.Block, p zarr.ChunkProjection) (*dense.Block, error) {
	ext := p.Extent()
	b, err := full.SliceRows(0, ext[0])
	if err != nil {
		return nil, err
	}
	if full.Ndim() == 2 && ext[1] != full.Width() {
		return b.SliceCols(0, ext[1])
	}
	return b, nil
}

// ReadRowBlock reads every chunk in chunk row row and joins them side by
// side, giving the rows [chunks[0]*row, chunks[0]*(row+1)) clamped to the
// source's extent.
func ReadRowBlock(ctx context.Context, src Source, chunks []int, row int) (*dense.Block, error) {
	shape := src.Shape()
	grid, err := zarr.ChunkGrid(shape, chunks)
	if err != nil {
		return nil, err
	}
	if row < 0 || row >= grid[0] {
		return nil, errors.Newf(errors.ErrInvalidShape, "chunk row %d outside grid %v", row, grid)
	}
	if len(grid) == 1 {
		return src.ReadChunk(ctx, chunks, []int{row})
	}
	if grid[1] == 0 {
		return dense.Zeros(zarr.Project(shape, chunks, []int{row, 0}).Extent()[0], 0), nil
	}
	parts := make([]*dense.Block, grid[1])
	for col := range parts {
		if parts[col], err = src.ReadChunk(ctx, chunks, []int{row, col}); err != nil {
			return nil, err
		}
	}
	return dense.HConcat(parts...)
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
