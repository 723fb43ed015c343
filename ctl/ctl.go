// Package ctl implements the zarrdist commands independently of the command
// line parser.
package ctl

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	zarr "github.com/qri-io/zarrdist"
	"github.com/qri-io/zarrdist/config"
	"github.com/qri-io/zarrdist/engine"
	"github.com/qri-io/zarrdist/errors"
	"github.com/qri-io/zarrdist/logger"
)

// CmdIO holds standard unix inputs and outputs.
type CmdIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewCmdIO returns a new instance of CmdIO with inputs and outputs set to the
// arguments.
func NewCmdIO(stdin io.Reader, stdout, stderr io.Writer) *CmdIO {
	return &CmdIO{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}
}

// env is what every command needs to touch arrays.
type env struct {
	cfg      *config.Config
	store    zarr.Store
	runner   *engine.Runner
	log      logger.Logger
	registry *prometheus.Registry
}

func setup(cfg *config.Config) (*env, error) {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validating config")
	}
	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}
	store, err := zarr.NewLocalStore(cfg.Store)
	if err != nil {
		return nil, errors.WithCode(err, errors.ErrStoreUnavailable, "opening store")
	}
	reg := prometheus.NewRegistry()
	r := engine.New(
		engine.WithWorkers(cfg.Workers),
		engine.WithLogger(log),
		engine.WithMetrics(engine.NewMetrics(reg)),
	)
	return &env{cfg: cfg, store: store, runner: r, log: log, registry: reg}, nil
}

// writeMetrics prints every non-zero counter of reg, one per line, sorted.
func writeMetrics(w io.Writer, reg prometheus.Gatherer) error {
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gathering metrics")
	}
	var lines []string
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			v := m.GetCounter().GetValue()
			if v == 0 {
				continue
			}
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			lines = append(lines, fmt.Sprintf("%s %g", name, v))
		}
	}
	sort.Strings(lines)
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

// finish prints the engine counters when the config asks for them.
func (e *env) finish(w io.Writer) error {
	if !e.cfg.Metrics {
		return nil
	}
	return writeMetrics(w, e.registry)
}
