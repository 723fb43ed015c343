// Package cmd wires the zarrdist commands to the command line.
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/ctl"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "ZARRDIST"

// NewRootCommand returns the zarrdist command with every subcommand attached.
func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cfg := config.NewConfig()
	cio := ctl.NewCmdIO(stdin, stdout, stderr)

	rc := &cobra.Command{
		Use:   "zarrdist",
		Short: "zarrdist reads, rechunks and reduces zarr arrays partition by partition.",
		Long: `zarrdist treats a zarr array as rows spread over independent partitions.

Every command reads arrays from the store directory, processes each chunk row
block on its own worker and writes results back one chunk at a time.
`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			if err := setAllConfig(v, cmd.Flags()); err != nil {
				return err
			}
			return cfg.Validate()
		},
	}
	flags := rc.PersistentFlags()
	flags.StringP("config", "c", "", "Configuration file to read from.")
	flags.StringVarP(&cfg.Store, "store", "s", cfg.Store, "Directory holding zarr arrays.")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "Partitions processed at once; 0 uses every CPU.")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn or error.")
	flags.StringVar(&cfg.Compressor, "compressor", cfg.Compressor, "Compressor for written chunks: gzip, zstd or empty.")
	flags.BoolVar(&cfg.Metrics, "metrics", cfg.Metrics, "Print engine counters to stderr when done.")

	rc.AddCommand(newInfoCommand(cio, cfg))
	rc.AddCommand(newRechunkCommand(cio, cfg))
	rc.AddCommand(newReduceCommand(cio, cfg, "sum", "Sum a stored array along an axis."))
	rc.AddCommand(newReduceCommand(cio, cfg, "mean", "Average the columns of a stored array."))
	rc.AddCommand(newConfigCommand(cio, cfg))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig takes a FlagSet to be the definition of all configuration
// options, as well as their defaults. It then reads from the command line, the
// environment, and a config file (if specified), and applies the configuration
// in that priority order. Since each flag in the set contains a pointer to
// where its value should be stored, setAllConfig can directly modify the value
// of each config variable.
//
// setAllConfig looks for environment variables which are capitalized versions
// of the flag names with dashes replaced by underscores, and prefixed with
// envPrefix plus an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	validTags := make(map[string]bool)
	flags.VisitAll(func(f *pflag.Flag) {
		validTags[f.Name] = true
	})

	if c := v.GetString("config"); c != "" {
		v.SetConfigFile(c)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading configuration file '%s': %v", c, err)
		}
		for _, key := range v.AllKeys() {
			if !validTags[key] {
				return fmt.Errorf("invalid option in configuration file: %v", key)
			}
		}
	}

	var flagErr error
	flags.VisitAll(func(f *pflag.Flag) {
		if flagErr != nil || f.Changed {
			return
		}
		flagErr = f.Value.Set(v.GetString(f.Name))
	})
	return flagErr
}
