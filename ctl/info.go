package ctl

import (
	"context"
	"fmt"

	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/realign"
)

// InfoCommand prints the geometry of a stored array and the partitioning it
// is read with.
type InfoCommand struct {
	Config *config.Config
	Path   string

	*CmdIO
}

func NewInfoCommand(cio *CmdIO, cfg *config.Config) *InfoCommand {
	return &InfoCommand{CmdIO: cio, Config: cfg}
}

// Run executes the info command.
func (cmd *InfoCommand) Run(_ context.Context) error {
	if cmd.Path == "" {
		return errors.New(errors.ErrInvalidShape, "array path required")
	}
	e, err := setup(cmd.Config)
	if err != nil {
		return err
	}
	z, err := zarr.Open(e.store, cmd.Path, zarr.ModeRead)
	if err != nil {
		return errors.Wrapf(err, "opening %q", cmd.Path)
	}
	meta := z.Meta()
	compressor := "none"
	if meta.Compressor != nil {
		compressor = meta.Compressor.ID
	}
	fmt.Fprintf(cmd.Stdout, "store:      %s %s\n", e.store.Type(), e.cfg.Store)
	fmt.Fprintf(cmd.Stdout, "path:       %s\n", z.Path())
	fmt.Fprintf(cmd.Stdout, "shape:      %v\n", meta.Shape)
	fmt.Fprintf(cmd.Stdout, "chunks:     %v\n", meta.Chunks)
	fmt.Fprintf(cmd.Stdout, "dtype:      %s (%s)\n", meta.Dtype, meta.Dtype.BasicType.Human())
	fmt.Fprintf(cmd.Stdout, "compressor: %s\n", compressor)
	if len(meta.Shape) > 0 {
		fmt.Fprintf(cmd.Stdout, "partitions: %v\n", realign.TargetCounts(meta.Shape[0], meta.Chunks[0]))
	}
	return nil
}
