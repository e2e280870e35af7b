package cli

import (
	"fmt"

	flag "github.com/spf13/pflag"
)

func cmdRm() *Command {
	return &Command{
		Flags: flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage: "rm <key>",
		Short: "Remove a cached entry",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			if len(args) > 1 {
				return errTooManyArgs
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			ok, err := cache.Remove(args[0])
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%w: %s", errKeyNotFound, args[0])
			}

			return nil
		},
	}
}
