// Package engine runs partition-level work for distributed arrays. Every
// partition is processed by its own task; tasks share no mutable state and
// the first failing task cancels its siblings and fails the operation.
//
// Partition sets are opaque handles. Their order is the order they were
// declared in and every operation preserves it.
package engine

import (
	"context"
	"runtime"

	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
	"golang.org/x/sync/errgroup"
)

// Runner schedules per-partition tasks on a bounded pool of goroutines.
type Runner struct {
	workers int
	log     logger.Logger
	metrics *Metrics
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of partitions processed at once. n <= 0
// means runtime.GOMAXPROCS(0).
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

func WithLogger(l logger.Logger) Option {
	return func(r *Runner) { r.log = logger.OrNop(l) }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Runner) {
		if m != nil {
			r.metrics = m
		}
	}
}

func New(opts ...Option) *Runner {
	r := &Runner{
		log:     logger.NopLogger,
		metrics: NewMetrics(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r
}

func (r *Runner) Logger() logger.Logger { return r.log }
func (r *Runner) Metrics() *Metrics     { return r.metrics }
func (r *Runner) Workers() int          { return r.workers }

// run calls fn for every partition index in [0, n).
func (r *Runner) run(ctx context.Context, op string, n int, fn func(ctx context.Context, i int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, i); err != nil {
				return errors.Wrapf(err, "%s: partition %d", op, i)
			}
			r.metrics.Tasks.WithLabelValues(op).Inc()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		r.log.Debugf("%s failed over %d partitions: %v", op, n, err)
		return err
	}
	return nil
}

// PartitionSet is an ordered set of partitions, each holding a sequence of
// items.
type PartitionSet[T any] struct {
	parts [][]T
}

// NumPartitions returns the number of partitions in the set.
func (p PartitionSet[T]) NumPartitions() int { return len(p.parts) }

// Same reports whether p and o are the same handle, not merely equal
// contents.
func (p PartitionSet[T]) Same(o PartitionSet[T]) bool {
	if len(p.parts) != len(o.parts) {
		return false
	}
	if len(p.parts) == 0 {
		return true
	}
	return &p.parts[0] == &o.parts[0]
}

// Distribute places each item in its own partition.
func Distribute[T any](items []T) PartitionSet[T] {
	parts := make([][]T, len(items))
	for i, it := range items {
		parts[i] = []T{it}
	}
	return PartitionSet[T]{parts: parts}
}

// MapPartitions replaces every partition with fn of its items.
func MapPartitions[T, U any](ctx context.Context, r *Runner, ps PartitionSet[T], fn func(ctx context.Context, items []T) ([]U, error)) (PartitionSet[U], error) {
	return MapPartitionsWithIndex(ctx, r, ps, func(ctx context.Context, _ int, items []T) ([]U, error) {
		return fn(ctx, items)
	})
}

// MapPartitionsWithIndex is MapPartitions with the partition index passed to fn.
func MapPartitionsWithIndex[T, U any](ctx context.Context, r *Runner, ps PartitionSet[T], fn func(ctx context.Context, idx int, items []T) ([]U, error)) (PartitionSet[U], error) {
	out := make([][]U, len(ps.parts))
	err := r.run(ctx, "map", len(ps.parts), func(ctx context.Context, i int) error {
		res, err := fn(ctx, i, ps.parts[i])
		out[i] = res
		return err
	})
	if err != nil {
		return PartitionSet[U]{}, err
	}
	return PartitionSet[U]{parts: out}, nil
}

// Map applies fn to every item, keeping partition boundaries.
func Map[T, U any](ctx context.Context, r *Runner, ps PartitionSet[T], fn func(ctx context.Context, item T) (U, error)) (PartitionSet[U], error) {
	return MapPartitions(ctx, r, ps, func(ctx context.Context, items []T) ([]U, error) {
		out := make([]U, len(items))
		for i, it := range items {
			v, err := fn(ctx, it)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	})
}

// ZipPartitions combines partition i of a with partition i of b. Both sets
// must have the same number of partitions.
func ZipPartitions[A, B, U any](ctx context.Context, r *Runner, a PartitionSet[A], b PartitionSet[B], fn func(ctx context.Context, a []A, b []B) ([]U, error)) (PartitionSet[U], error) {
	if len(a.parts) != len(b.parts) {
		return PartitionSet[U]{}, errors.Newf(errors.ErrPartitionSizeMismatch, "cannot zip %d partitions with %d", len(a.parts), len(b.parts))
	}
	out := make([][]U, len(a.parts))
	err := r.run(ctx, "zip", len(a.parts), func(ctx context.Context, i int) error {
		res, err := fn(ctx, a.parts[i], b.parts[i])
		out[i] = res
		return err
	})
	if err != nil {
		return PartitionSet[U]{}, err
	}
	return PartitionSet[U]{parts: out}, nil
}

// ForeachPartition runs a side-effecting fn on every partition.
func ForeachPartition[T any](ctx context.Context, r *Runner, ps PartitionSet[T], fn func(ctx context.Context, idx int, items []T) error) error {
	return r.run(ctx, "foreach", len(ps.parts), func(ctx context.Context, i int) error {
		return fn(ctx, i, ps.parts[i])
	})
}

// CollectPartitions returns the items of every partition, in partition order.
func CollectPartitions[T any](ctx context.Context, r *Runner, ps PartitionSet[T]) ([][]T, error) {
	out := make([][]T, len(ps.parts))
	err := r.run(ctx, "collect", len(ps.parts), func(ctx context.Context, i int) error {
		out[i] = append([]T(nil), ps.parts[i]...)
		return nil
	})
	return out, err
}

// Collect returns every item in partition order.
func Collect[T any](ctx context.Context, r *Runner, ps PartitionSet[T]) ([]T, error) {
	parts, err := CollectPartitions(ctx, r, ps)
	if err != nil {
		return nil, err
	}
	var out []T
	for _, p := range parts {
		out = append(out, p...)
	}
	return out, nil
}

// Coalesce merges every partition into one, keeping item order. It moves
// whole partitions and needs no keyed exchange.
func Coalesce[T any](ps PartitionSet[T]) PartitionSet[T] {
	var all []T
	for _, p := range ps.parts {
		all = append(all, p...)
	}
	return PartitionSet[T]{parts: [][]T{all}}
}
