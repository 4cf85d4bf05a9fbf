// Binary atomicref-stress runs concurrent load/swap stress tests against
// atomicref.Option.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(new(Run), "")
	subcommands.Register(new(Config), "")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
