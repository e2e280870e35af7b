package cli

import (
	"errors"
	"fmt"
	"strconv"

	flag "github.com/spf13/pflag"
)

var (
	errKeyRequired   = errors.New("key is required")
	errKeyNotFound   = errors.New("key not found")
	errBadIndexArg   = errors.New("index must be a non-negative integer")
	errTooManyArgs   = errors.New("too many arguments")
	errValueRequired = errors.New("at least one value is required")
)

func cmdGet() *Command {
	return &Command{
		Flags: flag.NewFlagSet("get", flag.ContinueOnError),
		Usage: "get <key> [index]",
		Short: "Print a cached value",
		Long: "Print the value at <index> (default 0) for <key>.\n" +
			"Fails with exit code 1 if the entry does not exist.",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			if len(args) > 2 {
				return errTooManyArgs
			}

			index := 0

			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 0 {
					return fmt.Errorf("%w: %q", errBadIndexArg, args[1])
				}

				index = n
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			snap, ok, err := cache.Read(args[0])
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%w: %s", errKeyNotFound, args[0])
			}

			defer snap.Close()

			value, err := snap.GetString(index)
			if err != nil {
				return err
			}

			o.Printf("%s", value)

			return nil
		},
	}
}
