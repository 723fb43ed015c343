// Package copartition fits a per-row vector to an existing partitioning, so
// it can be combined row by row with a distributed array without moving the
// array's data.
package copartition

import (
	"github.com/qri-io/zarrdist/errors"
)

// Split cuts v into len(counts) contiguous pieces, piece i holding counts[i]
// values. Pieces share storage with v.
func Split[T any](counts []int, v []T) ([][]T, error) {
	total := 0
	for i, c := range counts {
		if c < 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "negative row count %d for partition %d", c, i)
		}
		total += c
	}
	if total != len(v) {
		return nil, errors.Newf(errors.ErrShapeMismatch, "vector of %d values for partitions holding %d rows", len(v), total)
	}

	pieces := make([][]T, 0, len(counts))
	start := 0
	for _, c := range counts {
		pieces = append(pieces, v[start:start+c:start+c])
		start += c
	}
	return pieces, nil
}

// Counts returns the number of true entries in every piece of a split mask.
func Counts(pieces [][]bool) []int {
	out := make([]int, len(pieces))
	for i, p := range pieces {
		for _, keep := range p {
			if keep {
				out[i]++
			}
		}
	}
	return out
}

// Locate converts global row indices into per-partition local indices. The
// indices must be non-decreasing so every kept row stays in its partition
// and in order.
func Locate(counts []int, indices []int) ([][]int, error) {
	total := 0
	for _, c := range counts {
		total += c
	}
	out := make([][]int, len(counts))
	part, base := 0, 0
	prev := -1
	for _, idx := range indices {
		if idx < 0 || idx >= total {
			return nil, errors.Newf(errors.ErrShapeMismatch, "row %d outside %d rows", idx, total)
		}
		if idx < prev {
			return nil, errors.Newf(errors.ErrUnsupportedOperation, "row %d follows row %d; only non-decreasing indices keep partitions intact", idx, prev)
		}
		prev = idx
		for idx >= base+counts[part] {
			base += counts[part]
			part++
		}
		out[part] = append(out[part], idx-base)
	}
	return out, nil
}
