package cmd

import (
	"context"

	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/ctl"
	"github.com/spf13/cobra"
)

func newInfoCommand(cio *ctl.CmdIO, cfg *config.Config) *cobra.Command {
	info := ctl.NewInfoCommand(cio, cfg)
	c := &cobra.Command{
		Use:   "info",
		Short: "Print the geometry of a stored array.",
		Long: `info prints the shape, chunk shape, dtype and compressor of a stored array
and the row count of every partition it is read into.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return info.Run(context.Background())
		},
	}
	c.Flags().StringVarP(&info.Path, "path", "p", "", "Array path inside the store.")
	return c
}

func newRechunkCommand(cio *ctl.CmdIO, cfg *config.Config) *cobra.Command {
	rechunk := ctl.NewRechunkCommand(cio, cfg)
	c := &cobra.Command{
		Use:   "rechunk",
		Short: "Copy a stored array with a new chunk row size.",
		Long: `rechunk reads a stored array, realigns its partitions to the requested
chunk row size and writes it to a new path, one chunk row block per partition.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rechunk.Run(context.Background())
		},
	}
	flags := c.Flags()
	flags.StringVarP(&rechunk.Path, "path", "p", "", "Array path inside the store.")
	flags.StringVarP(&rechunk.OutPath, "out-path", "o", "", "Path of the rechunked copy.")
	flags.IntVar(&rechunk.ChunkRows, "chunk-rows", 0, "Rows per chunk of the copy.")
	return c
}

func newReduceCommand(cio *ctl.CmdIO, cfg *config.Config, op, short string) *cobra.Command {
	reduce := ctl.NewReduceCommand(cio, cfg, op)
	c := &cobra.Command{
		Use:   op,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return reduce.Run(context.Background())
		},
	}
	c.Flags().StringVarP(&reduce.Path, "path", "p", "", "Array path inside the store.")
	c.Flags().IntVar(&reduce.Axis, "axis", 0, "Axis to reduce along.")
	return c
}

func newConfigCommand(cio *ctl.CmdIO, cfg *config.Config) *cobra.Command {
	conf := ctl.NewConfigCommand(cio, cfg)
	return &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration.",
		Long: `config prints the configuration, after flags, environment and config file
are applied, as TOML.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.Run(context.Background())
		},
	}
}
