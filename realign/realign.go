package realign

import (
	"context"

	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
)

// Blocks is a partition set where every partition holds one row block.
type Blocks = engine.PartitionSet[*dense.Block]

// Realign returns parts re-cut into blocks of target rows, the last holding
// the remainder, together with the new per-partition row counts. counts are
// the declared row counts of parts.
//
// When parts already has that layout the very same partition set is
// returned. When there are no rows at all the result has no partitions. When target covers every row the partitions are coalesced
// without a keyed exchange. Otherwise every input partition tags its row
// ranges with their destination and the engine's exchange groups them; an
// output whose rows all come from the input at the same position never
// leaves it.
func Realign(ctx context.Context, r *engine.Runner, parts Blocks, counts []int, target int) (Blocks, []int, error) {
	log := r.Logger().WithPrefix("realign")
	if len(counts) != parts.NumPartitions() {
		return Blocks{}, nil, errors.Newf(errors.ErrPartitionSizeMismatch, "%d row counts for %d partitions", len(counts), parts.NumPartitions())
	}
	if target <= 0 {
		return Blocks{}, nil, errors.Newf(errors.ErrInvalidShape, "target block size %d", target)
	}
	if Aligned(counts, target) {
		log.Debugf("%d partitions already aligned to %d rows", len(counts), target)
		return parts, append([]int(nil), counts...), nil
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return drain(ctx, r, parts, counts)
	}
	if total <= target {
		return coalesce(ctx, r, parts, counts)
	}

	plan, err := Plan(counts, target)
	if err != nil {
		return Blocks{}, nil, err
	}
	routes := byInput(plan, len(counts))
	moved := 0
	for _, o := range plan {
		for _, f := range o.Fragments {
			if f.Input != o.Index {
				moved += f.Rows()
			}
		}
	}
	log.Debugf("realigning %d partitions (%d rows) into %d blocks of %d, %d rows change partition", len(counts), total, len(plan), target, moved)

	tagged, err := engine.MapPartitionsWithIndex(ctx, r, parts, func(_ context.Context, i int, items []*dense.Block) ([]engine.Keyed[*dense.Block], error) {
		b, err := single(i, items, counts[i])
		if err != nil {
			return nil, err
		}
		out := make([]engine.Keyed[*dense.Block], 0, len(routes[i]))
		for _, rt := range routes[i] {
			piece, err := b.SliceRows(rt.Start, rt.Stop)
			if err != nil {
				return nil, err
			}
			out = append(out, engine.Keyed[*dense.Block]{Key: rt.Output, Value: piece})
		}
		return out, nil
	})
	if err != nil {
		return Blocks{}, nil, err
	}

	grouped, err := engine.Exchange(ctx, r, tagged, len(plan))
	if err != nil {
		return Blocks{}, nil, errors.Wrap(err, "exchanging row fragments")
	}
	r.Metrics().MovedRows.Add(float64(moved))

	newCounts := make([]int, len(plan))
	for j, o := range plan {
		newCounts[j] = o.Rows
	}
	out, err := engine.MapPartitionsWithIndex(ctx, r, grouped, func(_ context.Context, j int, frags []*dense.Block) ([]*dense.Block, error) {
		b, err := dense.Concat(frags...)
		if err != nil {
			return nil, err
		}
		if b.Rows() != newCounts[j] {
			return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "block %d assembled %d rows, planned %d", j, b.Rows(), newCounts[j])
		}
		return []*dense.Block{b}, nil
	})
	if err != nil {
		return Blocks{}, nil, err
	}
	return out, newCounts, nil
}

// drain checks that every partition is empty, as declared, and returns a set
// with no partitions at all: an array without rows has no blocks.
func drain(ctx context.Context, r *engine.Runner, parts Blocks, counts []int) (Blocks, []int, error) {
	err := engine.ForeachPartition(ctx, r, parts, func(_ context.Context, i int, items []*dense.Block) error {
		_, err := single(i, items, counts[i])
		return err
	})
	if err != nil {
		return Blocks{}, nil, err
	}
	r.Logger().WithPrefix("realign").Debugf("dropping %d empty partitions", len(counts))
	return engine.Distribute[*dense.Block](nil), []int{}, nil
}

// coalesce gathers every row into a single partition.
func coalesce(ctx context.Context, r *engine.Runner, parts Blocks, counts []int) (Blocks, []int, error) {
	checked, err := engine.MapPartitionsWithIndex(ctx, r, parts, func(_ context.Context, i int, items []*dense.Block) ([]*dense.Block, error) {
		b, err := single(i, items, counts[i])
		if err != nil {
			return nil, err
		}
		return []*dense.Block{b}, nil
	})
	if err != nil {
		return Blocks{}, nil, err
	}

	total, moved := 0, 0
	for i, c := range counts {
		total += c
		if i > 0 {
			moved += c
		}
	}
	r.Logger().WithPrefix("realign").Debugf("coalescing %d partitions (%d rows) into one", len(counts), total)

	out, err := engine.MapPartitions(ctx, r, engine.Coalesce(checked), func(_ context.Context, blocks []*dense.Block) ([]*dense.Block, error) {
		b, err := dense.Concat(blocks...)
		if err != nil {
			return nil, err
		}
		return []*dense.Block{b}, nil
	})
	if err != nil {
		return Blocks{}, nil, err
	}
	r.Metrics().MovedRows.Add(float64(moved))
	return out, []int{total}, nil
}

// single unwraps the one block partition i must hold and checks it against
// its declared row count.
func single(i int, items []*dense.Block, declared int) (*dense.Block, error) {
	if len(items) != 1 {
		return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "partition %d holds %d blocks, want 1", i, len(items))
	}
	if items[0].Rows() != declared {
		return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "partition %d holds %d rows, declared %d", i, items[0].Rows(), declared)
	}
	return items[0], nil
}
