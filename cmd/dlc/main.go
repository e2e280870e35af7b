// dlc inspects and mutates a disklru cache directory.
//
// Usage:
//
//	dlc [-C <dir>] [--config <path>] <command> [args]
//
// Run 'dlc --help' for the command list.
package main

import (
	"os"

	"github.com/calvinalkan/diskcache/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Stdin, os.Stdout, os.Stderr, os.Args, os.Environ()))
}
