package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	"github.com/sirupsen/logrus"
	"github.com/zeebo/atomicref/internal/stress"
)

// configFlags are the flags shared by the commands that build a
// stress.Config.
type configFlags struct {
	path  string
	debug bool
	cfg   stress.Config
}

// logger returns the logger the commands report through.
func (c *configFlags) logger() *logrus.Logger {
	log := logrus.New()
	if c.debug {
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}

func (c *configFlags) setFlags(f *flag.FlagSet) {
	c.cfg = stress.DefaultConfig()
	f.StringVar(&c.path, "config", "", "TOML file to read the configuration from. flags override it.")
	f.BoolVar(&c.debug, "debug", false, "enable debug logging.")
	f.IntVar(&c.cfg.Readers, "readers", c.cfg.Readers, "number of reading goroutines.")
	f.IntVar(&c.cfg.Writers, "writers", c.cfg.Writers, "number of writing goroutines.")
	f.IntVar(&c.cfg.Iterations, "iterations", c.cfg.Iterations, "swaps performed by each writer.")
	f.IntVar(&c.cfg.HoldLoads, "hold", c.cfg.HoldLoads, "loaded handles each reader keeps alive.")
	f.IntVar(&c.cfg.PayloadWords, "words", c.cfg.PayloadWords, "size of each value in 32 bit words.")
	f.Uint64Var(&c.cfg.Seed, "seed", c.cfg.Seed, "random seed.")
}

// load returns the effective configuration: defaults, then the file, then
// any flags set explicitly.
func (c *configFlags) load(f *flag.FlagSet) (stress.Config, error) {
	if c.path == "" {
		return c.cfg, nil
	}
	cfg, err := stress.LoadConfig(c.path)
	if err != nil {
		return cfg, err
	}
	f.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "readers":
			cfg.Readers = c.cfg.Readers
		case "writers":
			cfg.Writers = c.cfg.Writers
		case "iterations":
			cfg.Iterations = c.cfg.Iterations
		case "hold":
			cfg.HoldLoads = c.cfg.HoldLoads
		case "words":
			cfg.PayloadWords = c.cfg.PayloadWords
		case "seed":
			cfg.Seed = c.cfg.Seed
		}
	})
	return cfg, nil
}

// Run implements subcommands.Command for the "run" command.
type Run struct {
	configFlags
}

// Name implements subcommands.Command.
func (*Run) Name() string {
	return "run"
}

// Synopsis implements subcommands.Command.
func (*Run) Synopsis() string {
	return "runs a stress test"
}

// Usage implements subcommands.Command.
func (*Run) Usage() string {
	return `run [flags]
`
}

// SetFlags implements subcommands.Command.
func (r *Run) SetFlags(f *flag.FlagSet) {
	r.setFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (r *Run) Execute(ctx context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}

	log := r.logger()
	cfg, err := r.load(f)
	if err != nil {
		log.WithError(err).Error("loading config")
		return subcommands.ExitFailure
	}
	log.WithField("config", cfg).Debug("effective config")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	rep, err := stress.Run(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("stress run failed")
		return subcommands.ExitFailure
	}
	log.WithField("rate", float64(rep.Loads+rep.Swaps)/rep.Elapsed.Seconds()).Info("ok")
	return subcommands.ExitSuccess
}
