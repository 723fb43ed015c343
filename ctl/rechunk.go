package ctl

import (
	"context"
	"fmt"

	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/dist"
	"github.com/qri-io/zarrdist/errors"
)

// RechunkCommand copies a stored array to a new path with a different chunk
// row size, realigning its partitions on the way.
type RechunkCommand struct {
	Config    *config.Config
	Path      string
	OutPath   string
	ChunkRows int

	*CmdIO
}

func NewRechunkCommand(cio *CmdIO, cfg *config.Config) *RechunkCommand {
	return &RechunkCommand{CmdIO: cio, Config: cfg}
}

// Run executes the rechunk command.
func (cmd *RechunkCommand) Run(ctx context.Context) error {
	if cmd.Path == "" || cmd.OutPath == "" {
		return errors.New(errors.ErrInvalidShape, "input and output paths required")
	}
	if cmd.ChunkRows <= 0 {
		return errors.Newf(errors.ErrInvalidShape, "chunk rows must be positive, got %d", cmd.ChunkRows)
	}
	e, err := setup(cmd.Config)
	if err != nil {
		return err
	}

	a, err := dist.FromZarr(ctx, e.runner, e.store, cmd.Path)
	if err != nil {
		return errors.Wrapf(err, "reading %q", cmd.Path)
	}
	chunks := a.Chunks()
	chunks[0] = cmd.ChunkRows
	e.log.Infof("rechunking %s to %v", a, chunks)

	z, err := a.ToZarr(ctx, e.store, cmd.OutPath, chunks, dist.WithCompressor(e.cfg.Compression()))
	if err != nil {
		return errors.Wrapf(err, "writing %q", cmd.OutPath)
	}
	fmt.Fprintln(cmd.Stdout, z.Info())
	return e.finish(cmd.Stderr)
}
