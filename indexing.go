package zarr

import (
	"strconv"
	"strings"

	"github.com/qri-io/zarrdist/errors"
)

// ChunkGrid returns the number of chunks along each axis, counting trailing
// partial chunks.
func ChunkGrid(shape, chunks []int) ([]int, error) {
	if len(shape) != len(chunks) {
		return nil, errors.Newf(errors.ErrInvalidShape, "shape %v and chunks %v differ in arity", shape, chunks)
	}
	grid := make([]int, len(shape))
	for i := range shape {
		if shape[i] < 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "negative dimension in shape %v", shape)
		}
		if chunks[i] <= 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "non-positive chunk dimension in %v", chunks)
		}
		grid[i] = (shape[i] + chunks[i] - 1) / chunks[i]
	}
	return grid, nil
}

// ChunkIndices enumerates the coordinate of every chunk covering shape, the
// outer dimension varying slowest.
func ChunkIndices(shape, chunks []int) ([][]int, error) {
	grid, err := ChunkGrid(shape, chunks)
	if err != nil {
		return nil, err
	}
	total := 1
	for _, g := range grid {
		total *= g
	}
	if total == 0 {
		return nil, nil
	}

	out := make([][]int, 0, total)
	coord := make([]int, len(grid))
	for {
		out = append(out, append([]int(nil), coord...))
		// odometer increment, innermost axis first
		ax := len(coord) - 1
		for ; ax >= 0; ax-- {
			coord[ax]++
			if coord[ax] < grid[ax] {
				break
			}
			coord[ax] = 0
		}
		if ax < 0 {
			return out, nil
		}
	}
}

// ChunkExtent returns the half-open range chunk coord covers along axis. stop
// is not clamped to the array's extent.
func ChunkExtent(chunks, coord []int, axis int) (start, stop int) {
	return chunks[axis] * coord[axis], chunks[axis] * (coord[axis] + 1)
}

// ChunkKey generates the store key of a chunk, e.g. [1, 4] with separator "."
// gives "1.4". A zero-dimensional array has the single key "0".
func ChunkKey(coord []int, separator string) string {
	if len(coord) == 0 {
		return "0"
	}
	if len(coord) == 1 {
		return strconv.Itoa(coord[0])
	}

	var sb strings.Builder
	for i, idx := range coord {
		if i > 0 {
			sb.WriteString(separator)
		}
		sb.WriteString(strconv.Itoa(idx))
	}
	return sb.String()
}

// ChunkProjection is the part of a chunk that lies inside the array: for each
// axis the clamped [Start, Stop) range in array space. Stop-Start is the
// number of valid items the chunk holds along that axis.
type ChunkProjection struct {
	Coords []int
	Start  []int
	Stop   []int
}

// Project clamps the extent of coord to shape.
func Project(shape, chunks, coord []int) ChunkProjection {
	p := ChunkProjection{
		Coords: append([]int(nil), coord...),
		Start:  make([]int, len(coord)),
		Stop:   make([]int, len(coord)),
	}
	for ax := range coord {
		start, stop := ChunkExtent(chunks, coord, ax)
		if stop > shape[ax] {
			stop = shape[ax]
		}
		if start > stop {
			start = stop
		}
		p.Start[ax], p.Stop[ax] = start, stop
	}
	return p
}

// Extent returns the valid item count along every axis.
func (p ChunkProjection) Extent() []int {
	ext := make([]int, len(p.Start))
	for i := range ext {
		ext[i] = p.Stop[i] - p.Start[i]
	}
	return ext
}
