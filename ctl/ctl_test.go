package ctl

import (
	"bytes"
	"context"
	"strings"
	"testing"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/dense"
	"github.com/qri-io/zarrdist/dist"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore writes a 7x2 array holding 1..14 at "arr" in a fresh directory.
func testStore(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Store = t.TempDir()
	cfg.LogLevel = "error"

	data := make([]float64, 14)
	for i := range data {
		data[i] = float64(i + 1)
	}
	ctx := context.Background()
	a, err := dist.FromDense(ctx, engine.New(), dense.MustNew(data, 7, 2), []int{3, 2}, zarr.Float64)
	require.NoError(t, err)
	store, err := zarr.NewLocalStore(cfg.Store)
	require.NoError(t, err)
	_, err = a.ToZarr(ctx, store, "arr", []int{3, 2})
	require.NoError(t, err)
	return cfg
}

func newTestIO() (*CmdIO, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return NewCmdIO(strings.NewReader(""), stdout, stderr), stdout, stderr
}

func TestInfoCommand(t *testing.T) {
	cfg := testStore(t)
	cio, stdout, _ := newTestIO()

	cmd := NewInfoCommand(cio, cfg)
	cmd.Path = "arr"
	require.NoError(t, cmd.Run(context.Background()))
	out := stdout.String()
	assert.Contains(t, out, "shape:      [7 2]")
	assert.Contains(t, out, "store:      LocalStore")
	assert.Contains(t, out, "dtype:      <f8 (float)")
	assert.Contains(t, out, "compressor: none")
	assert.Contains(t, out, "partitions: [3 3 1]")

	cmd.Path = "missing"
	assert.True(t, errors.Is(cmd.Run(context.Background()), errors.ErrStoreUnavailable))
}

func TestRechunkCommand(t *testing.T) {
	ctx := context.Background()
	cfg := testStore(t)
	cfg.Compressor = "gzip"
	cfg.Metrics = true
	cio, stdout, stderr := newTestIO()

	cmd := NewRechunkCommand(cio, cfg)
	cmd.Path, cmd.OutPath, cmd.ChunkRows = "arr", "arr2", 2
	require.NoError(t, cmd.Run(ctx))
	assert.Contains(t, stdout.String(), "chunks=[2 2]")
	assert.Contains(t, stderr.String(), "zarrdist_engine_moved_rows_total")
	assert.Contains(t, stderr.String(), `zarrdist_engine_partition_tasks_total{op="exchange"}`)

	info, _, _ := newTestIO()
	infoOut := info.Stdout.(*bytes.Buffer)
	ic := NewInfoCommand(info, cfg)
	ic.Path = "arr2"
	require.NoError(t, ic.Run(ctx))
	assert.Contains(t, infoOut.String(), "compressor: gzip")
	assert.Contains(t, infoOut.String(), "partitions: [2 2 2 1]")

	cmd.ChunkRows = 0
	assert.True(t, errors.Is(cmd.Run(ctx), errors.ErrInvalidShape))
}

func TestReduceCommand(t *testing.T) {
	ctx := context.Background()
	cfg := testStore(t)

	for _, c := range []struct {
		op   string
		axis int
		want string
	}{
		{"sum", 0, "49 56\n"},
		{"sum", 1, "3 7 11 15 19 23 27\n"},
		{"mean", 0, "7 8\n"},
	} {
		cio, stdout, _ := newTestIO()
		cmd := NewReduceCommand(cio, cfg, c.op)
		cmd.Path, cmd.Axis = "arr", c.axis
		require.NoError(t, cmd.Run(ctx), "%s %d", c.op, c.axis)
		assert.Equal(t, c.want, stdout.String())
	}

	cio, _, _ := newTestIO()
	cmd := NewReduceCommand(cio, cfg, "mean")
	cmd.Path, cmd.Axis = "arr", 1
	assert.True(t, errors.Is(cmd.Run(ctx), errors.ErrUnsupportedOperation))
	cmd.Op = "max"
	assert.True(t, errors.Is(cmd.Run(ctx), errors.ErrUnsupportedOperation))
}

func TestConfigCommand(t *testing.T) {
	cio, stdout, _ := newTestIO()
	require.NoError(t, NewConfigCommand(cio, nil).Run(context.Background()))
	assert.Contains(t, stdout.String(), `store = "."`)
	assert.Contains(t, stdout.String(), "workers = 0")
}

func TestInvalidConfig(t *testing.T) {
	cfg := testStore(t)
	cfg.Compressor = "snappy"
	cio, _, _ := newTestIO()
	cmd := NewInfoCommand(cio, cfg)
	cmd.Path = "arr"
	assert.Error(t, cmd.Run(context.Background()))
}
