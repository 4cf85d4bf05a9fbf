package main

import (
	"context"
	"flag"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/google/subcommands"
)

// Config implements subcommands.Command for the "config" command.
type Config struct {
	configFlags
}

// Name implements subcommands.Command.
func (*Config) Name() string {
	return "config"
}

// Synopsis implements subcommands.Command.
func (*Config) Synopsis() string {
	return "prints the effective configuration as TOML"
}

// Usage implements subcommands.Command.
func (*Config) Usage() string {
	return `config [flags]
`
}

// SetFlags implements subcommands.Command.
func (c *Config) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
}

// Execute implements subcommands.Command.Execute.
func (c *Config) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	log := c.logger()
	cfg, err := c.load(f)
	if err != nil {
		log.WithError(err).Error("loading config")
		return subcommands.ExitFailure
	}
	if err := toml.NewEncoder(os.Stdout).Encode(cfg); err != nil {
		log.WithError(err).Error("encoding config")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
