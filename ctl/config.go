package ctl

import (
	"context"
	"fmt"

	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/errors"
)

// ConfigCommand prints the effective configuration as TOML.
type ConfigCommand struct {
	Config *config.Config

	*CmdIO
}

func NewConfigCommand(cio *CmdIO, cfg *config.Config) *ConfigCommand {
	return &ConfigCommand{CmdIO: cio, Config: cfg}
}

// Run prints out the config.
func (cmd *ConfigCommand) Run(_ context.Context) error {
	cfg := cmd.Config
	if cfg == nil {
		cfg = config.NewConfig()
	}
	buf, err := cfg.Marshal()
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	fmt.Fprintln(cmd.Stdout, string(buf))
	return nil
}
