package engine

import (
	"context"

	"github.com/qri-io/zarrdist/errors"
)

// Keyed tags a value with the index of the partition it must land in.
type Keyed[T any] struct {
	Key   int
	Value T
}

// Exchange redistributes keyed values into n partitions by key. Values that
// share a key keep the order of their source partitions, then their order
// within a source partition. A value whose key equals its source partition
// index stays where it is; every other value counts as moved.
//
// Exchange blocks until every value has been placed and exposes no partial
// results: it either returns the full new set or an error.
func Exchange[T any](ctx context.Context, r *Runner, ps PartitionSet[Keyed[T]], n int) (PartitionSet[T], error) {
	// every source buckets its values by key, keeping their order
	buckets := make([][][]T, len(ps.parts))
	moved := make([]int, len(ps.parts))
	err := r.run(ctx, "exchange", len(ps.parts), func(ctx context.Context, src int) error {
		b := make([][]T, n)
		for _, kv := range ps.parts[src] {
			if kv.Key < 0 || kv.Key >= n {
				return errors.Newf(errors.ErrPartitionSizeMismatch, "partition %d sends to %d of %d partitions", src, kv.Key, n)
			}
			b[kv.Key] = append(b[kv.Key], kv.Value)
			if kv.Key != src {
				moved[src]++
			}
		}
		buckets[src] = b
		return nil
	})
	if err != nil {
		return PartitionSet[T]{}, err
	}

	sizes := make([]int, n)
	for _, b := range buckets {
		for dst, vs := range b {
			sizes[dst] += len(vs)
		}
	}
	out := make([][]T, n)
	total, nmoved := 0, 0
	for dst := range out {
		out[dst] = make([]T, 0, sizes[dst])
		total += sizes[dst]
	}
	for src, b := range buckets {
		for dst, vs := range b {
			out[dst] = append(out[dst], vs...)
		}
		nmoved += moved[src]
	}

	r.metrics.ExchangedValues.Add(float64(total))
	r.metrics.MovedValues.Add(float64(nmoved))
	r.log.Debugf("exchange placed %d values into %d partitions, %d moved", total, n, nmoved)
	return PartitionSet[T]{parts: out}, nil
}
