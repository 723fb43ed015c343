package ctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/dist"
	"github.com/qri-io/zarrdist/errors"
)

// ReduceCommand prints the sum or mean of a stored array along an axis.
type ReduceCommand struct {
	Config *config.Config
	Path   string
	// Op is "sum" or "mean".
	Op   string
	Axis int

	*CmdIO
}

func NewReduceCommand(cio *CmdIO, cfg *config.Config, op string) *ReduceCommand {
	return &ReduceCommand{CmdIO: cio, Config: cfg, Op: op}
}

// Run executes the reduction.
func (cmd *ReduceCommand) Run(ctx context.Context) error {
	if cmd.Path == "" {
		return errors.New(errors.ErrInvalidShape, "array path required")
	}
	e, err := setup(cmd.Config)
	if err != nil {
		return err
	}
	a, err := dist.FromZarr(ctx, e.runner, e.store, cmd.Path)
	if err != nil {
		return errors.Wrapf(err, "reading %q", cmd.Path)
	}

	var out *dist.Array
	switch cmd.Op {
	case "sum":
		out, err = a.Sum(ctx, cmd.Axis)
	case "mean":
		out, err = a.Mean(ctx, cmd.Axis)
	default:
		return errors.Newf(errors.ErrUnsupportedOperation, "reduction %q", cmd.Op)
	}
	if err != nil {
		return errors.Wrapf(err, "%s along axis %d", cmd.Op, cmd.Axis)
	}
	local, err := out.ToLocal(ctx)
	if err != nil {
		return err
	}

	values := make([]string, 0, local.Len())
	for _, v := range local.Data() {
		values = append(values, fmt.Sprintf("%g", v))
	}
	fmt.Fprintln(cmd.Stdout, strings.Join(values, " "))
	return e.finish(cmd.Stderr)
}
