// Package realign converts an arbitrary row partitioning of a distributed
// array into one aligned to a fixed chunk row size, preserving global row
// order and moving only the rows that have to change partition.
package realign

import (
	"github.com/qri-io/zarrdist/errors"
)

// Fragment is a row range [Start, Stop) local to input partition Input.
type Fragment struct {
	Input int
	Start int
	Stop  int
}

// Rows is the number of rows the fragment carries.
func (f Fragment) Rows() int { return f.Stop - f.Start }

// Output describes one output block: the fragments that, concatenated in
// order, make it up.
type Output struct {
	Index     int
	Rows      int
	Fragments []Fragment
}

// TargetCounts is the row count of every block of an array of total rows cut
// into blocks of target rows; the last block holds the remainder.
func TargetCounts(total, target int) []int {
	if total <= 0 || target <= 0 {
		return nil
	}
	n := (total + target - 1) / target
	out := make([]int, n)
	for i := range out {
		out[i] = target
	}
	if rem := total % target; rem != 0 {
		out[n-1] = rem
	}
	return out
}

// Plan computes, for every output block of target rows, which input row
// ranges it is made of. It walks the input and output boundaries once, in
// step. Inputs with no rows contribute no fragments and zero-row trailing
// outputs are never produced.
func Plan(counts []int, target int) ([]Output, error) {
	if target <= 0 {
		return nil, errors.Newf(errors.ErrInvalidShape, "target block size %d", target)
	}
	total := 0
	for i, c := range counts {
		if c < 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "negative row count %d for partition %d", c, i)
		}
		total += c
	}

	outs := TargetCounts(total, target)
	plan := make([]Output, len(outs))
	in, inStart := 0, 0 // current input and its global first row
	for j, rows := range outs {
		lo := j * target
		hi := lo + rows
		plan[j] = Output{Index: j, Rows: rows}
		for lo < hi {
			// skip inputs that end at or before lo, empty ones included
			for inStart+counts[in] <= lo {
				inStart += counts[in]
				in++
			}
			stop := inStart + counts[in]
			if stop > hi {
				stop = hi
			}
			plan[j].Fragments = append(plan[j].Fragments, Fragment{
				Input: in,
				Start: lo - inStart,
				Stop:  stop - inStart,
			})
			lo = stop
		}
	}
	return plan, nil
}

// Aligned reports whether counts already is the layout Plan would produce
// for target, so realigning would move nothing.
func Aligned(counts []int, target int) bool {
	total := 0
	for _, c := range counts {
		total += c
	}
	want := TargetCounts(total, target)
	if len(want) != len(counts) {
		return false
	}
	for i := range want {
		if want[i] != counts[i] {
			return false
		}
	}
	return true
}

// byInput inverts a plan: for every input partition, the fragments it sends
// and the output each one goes to, in row order.
func byInput(plan []Output, numInputs int) [][]routed {
	out := make([][]routed, numInputs)
	for _, o := range plan {
		for _, f := range o.Fragments {
			out[f.Input] = append(out[f.Input], routed{Fragment: f, Output: o.Index})
		}
	}
	return out
}

type routed struct {
	Fragment
	Output int
}
