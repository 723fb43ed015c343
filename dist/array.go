// Package dist is a numeric array whose rows are spread over the partitions
// of an engine.Runner. Each partition holds one dense block with a contiguous
// range of rows; the array records how many rows every partition holds and
// keeps that bookkeeping in step with every operation.
package dist

import (
	"context"
	"fmt"
	"sync/atomic"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/chunkio"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
	"github.com/qri-io/zarrdist/realign"
)

// Array is a distributed 1-D or 2-D array. Shape, chunk shape and partition
// row counts never change once the array exists. The partition set and dtype
// are held together and are only ever replaced as a whole, so a reader never
// sees a half-updated array.
type Array struct {
	r      *engine.Runner
	log    logger.Logger
	shape  []int
	chunks []int
	counts []int

	state atomic.Pointer[state]
}

type state struct {
	parts realign.Blocks
	dtype zarr.Dtype
}

// FromPartitions wraps an existing partition set. counts declares the number
// of rows every partition holds and must add up to shape[0]; the blocks are
// checked against it when the array is materialised.
func FromPartitions(r *engine.Runner, parts realign.Blocks, shape, chunks []int, dtype zarr.Dtype, counts []int) (*Array, error) {
	if len(shape) < 1 || len(shape) > 2 {
		return nil, errors.Newf(errors.ErrInvalidShape, "arrays have 1 or 2 dimensions, got shape %v", shape)
	}
	if _, err := zarr.ChunkGrid(shape, chunks); err != nil {
		return nil, err
	}
	if len(counts) != parts.NumPartitions() {
		return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "%d row counts for %d partitions", len(counts), parts.NumPartitions())
	}
	total := 0
	for i, c := range counts {
		if c < 0 {
			return nil, errors.Newf(errors.ErrInvalidShape, "negative row count %d for partition %d", c, i)
		}
		total += c
	}
	if total != shape[0] {
		return nil, errors.Newf(errors.ErrShapeMismatch, "partitions hold %d rows, shape %v declares %d", total, shape, shape[0])
	}

	a := &Array{
		r:      r,
		log:    r.Logger().WithPrefix("dist"),
		shape:  append([]int(nil), shape...),
		chunks: append([]int(nil), chunks...),
		counts: append([]int(nil), counts...),
	}
	a.state.Store(&state{parts: parts, dtype: dtype})
	return a, nil
}

// FromDense splits b into one partition per chunk row block.
func FromDense(ctx context.Context, r *engine.Runner, b *dense.Block, chunks []int, dtype zarr.Dtype) (*Array, error) {
	return fromSource(ctx, r, chunkio.DenseSource{Block: b}, chunks, dtype)
}

// FromZarr reads the array at path with one partition per stored chunk row
// block. Every partition task opens the store on its own.
func FromZarr(ctx context.Context, r *engine.Runner, store zarr.Store, path string) (*Array, error) {
	src, z, err := chunkio.OpenStoreSource(store, path)
	if err != nil {
		return nil, err
	}
	return fromSource(ctx, r, src, z.Chunks(), z.Dtype())
}

func fromSource(ctx context.Context, r *engine.Runner, src chunkio.Source, chunks []int, dtype zarr.Dtype) (*Array, error) {
	shape := src.Shape()
	grid, err := zarr.ChunkGrid(shape, chunks)
	if err != nil {
		return nil, err
	}
	rows := make([]int, grid[0])
	for i := range rows {
		rows[i] = i
	}
	parts, err := engine.Map(ctx, r, engine.Distribute(rows), func(ctx context.Context, row int) (*dense.Block, error) {
		return chunkio.ReadRowBlock(ctx, src, chunks, row)
	})
	if err != nil {
		return nil, err
	}
	return FromPartitions(r, parts, shape, chunks, dtype, realign.TargetCounts(shape[0], chunks[0]))
}

func (a *Array) Shape() []int  { return append([]int(nil), a.shape...) }
func (a *Array) Chunks() []int { return append([]int(nil), a.chunks...) }
func (a *Array) Ndim() int     { return len(a.shape) }
func (a *Array) Dtype() zarr.Dtype {
	return a.state.Load().dtype
}

// PartitionRowCounts returns the declared row count of every partition, in
// partition order.
func (a *Array) PartitionRowCounts() []int { return append([]int(nil), a.counts...) }

func (a *Array) NumPartitions() int { return len(a.counts) }

// Partitions returns the current partition set handle.
func (a *Array) Partitions() realign.Blocks { return a.state.Load().parts }

func (a *Array) Runner() *engine.Runner { return a.r }

func (a *Array) String() string {
	return fmt.Sprintf("dist.Array shape=%v chunks=%v dtype=%s partitions=%v", a.shape, a.chunks, a.Dtype(), a.counts)
}

// width is the number of values per row, 1 for 1-D arrays.
func (a *Array) width() int {
	if len(a.shape) == 1 {
		return 1
	}
	return a.shape[1]
}

// derive builds an array sharing a's runner.
func (a *Array) derive(parts realign.Blocks, shape, chunks []int, dtype zarr.Dtype, counts []int) (*Array, error) {
	return FromPartitions(a.r, parts, shape, chunks, dtype, counts)
}

// ToLocal collects every partition, in order, into one block. It fails with
// ErrPartitionSizeMismatch when a partition disagrees with its declared row
// count and with ErrShapeMismatch when the total disagrees with the shape.
func (a *Array) ToLocal(ctx context.Context) (*dense.Block, error) {
	parts, err := engine.CollectPartitions(ctx, a.r, a.Partitions())
	if err != nil {
		return nil, err
	}
	if len(parts) != len(a.counts) {
		return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "collected %d partitions, declared %d", len(parts), len(a.counts))
	}
	blocks := make([]*dense.Block, 0, len(parts))
	for i, p := range parts {
		rows := 0
		for _, b := range p {
			rows += b.Rows()
		}
		if rows != a.counts[i] {
			return nil, errors.Newf(errors.ErrPartitionSizeMismatch, "partition %d holds %d rows, declared %d", i, rows, a.counts[i])
		}
		blocks = append(blocks, p...)
	}
	if len(blocks) == 0 {
		return dense.Zeros(a.shape...), nil
	}
	out, err := dense.Concat(blocks...)
	if err != nil {
		return nil, errors.WithCode(err, errors.ErrShapeMismatch, "concatenating partitions")
	}
	if out.Rows() != a.shape[0] || out.Width() != a.width() {
		return nil, errors.Newf(errors.ErrShapeMismatch, "materialised %v, declared %v", out.Shape(), a.shape)
	}
	return out, nil
}

// Repartition realigns the rows into partitions of chunkRows rows, the last
// holding the remainder.
func (a *Array) Repartition(ctx context.Context, chunkRows int) (*Array, error) {
	st := a.state.Load()
	parts, counts, err := realign.Realign(ctx, a.r, st.parts, a.counts, chunkRows)
	if err != nil {
		return nil, err
	}
	chunks := a.Chunks()
	chunks[0] = chunkRows
	return a.derive(parts, a.shape, chunks, st.dtype, counts)
}

// ExportOption configures ToZarr.
type ExportOption func(*zarr.ArrayMeta)

// WithCompressor compresses every chunk written.
func WithCompressor(c *zarr.CompressionMeta) ExportOption {
	return func(m *zarr.ArrayMeta) { m.Compressor = c }
}

// WithFillValue sets the value padding cells past the array's edge.
func WithFillValue(v float64) ExportOption {
	return func(m *zarr.ArrayMeta) { m.FillValue = v }
}

// ToZarr writes the array to path with the given chunk shape, replacing any
// array already there. Partitions are first realigned to chunks[0] rows, the
// array geometry is written once, then every partition writes exactly one
// chunk row block.
func (a *Array) ToZarr(ctx context.Context, store zarr.Store, path string, chunks []int, opts ...ExportOption) (*zarr.Array, error) {
	if _, err := zarr.ChunkGrid(a.shape, chunks); err != nil {
		return nil, err
	}
	st := a.state.Load()
	parts, counts, err := realign.Realign(ctx, a.r, st.parts, a.counts, chunks[0])
	if err != nil {
		return nil, err
	}

	meta := zarr.NewArrayMeta(a.shape, chunks, st.dtype)
	for _, opt := range opts {
		opt(meta)
	}
	if _, err := zarr.Create(store, path, meta, zarr.ModeWrite); err != nil {
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, fmt.Sprintf("creating %q", path))
	}
	a.log.Debugf("writing %d chunk rows %v to %q", len(counts), counts, path)

	sink := chunkio.StoreSink{Store: store, Path: path}
	err = engine.ForeachPartition(ctx, a.r, parts, func(ctx context.Context, i int, blocks []*dense.Block) error {
		if len(blocks) != 1 {
			return errors.Newf(errors.ErrPartitionSizeMismatch, "partition %d holds %d blocks at write time, want 1", i, len(blocks))
		}
		return sink.WriteChunk(ctx, i, blocks[0])
	})
	if err != nil {
		return nil, err
	}
	return zarr.Open(store, path, zarr.ModeRead)
}
