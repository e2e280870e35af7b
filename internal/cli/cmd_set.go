package cli

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

var (
	errValueCountMismatch = errors.New("value count mismatch")
	errEntryBusy          = errors.New("entry is being edited")
)

func cmdSet() *Command {
	flags := flag.NewFlagSet("set", flag.ContinueOnError)
	index := flags.IntP("index", "i", -1, "update only this value index")

	return &Command{
		Flags: flags,
		Usage: "set [-i <index>] <key> <value>...",
		Short: "Store values under a key",
		Long: "Store values under <key>. Without -i, one value per configured\n" +
			"index is required. With -i, update a single value of an existing\n" +
			"entry and keep the others.",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) == 0 {
				return errKeyRequired
			}

			key, values := args[0], args[1:]
			if len(values) == 0 {
				return errValueRequired
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			if *index < 0 && len(values) != cache.ValueCount() {
				return fmt.Errorf("%w: got %d values, cache holds %d per key",
					errValueCountMismatch, len(values), cache.ValueCount())
			}

			if *index >= 0 && len(values) != 1 {
				return fmt.Errorf("%w: -i takes exactly one value", errValueCountMismatch)
			}

			ed, ok, err := cache.Edit(key)
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%w: %s", errEntryBusy, key)
			}

			if *index >= 0 {
				if err := ed.Set(*index, values[0]); err != nil {
					_ = ed.Abort()

					return err
				}
			} else {
				for i, v := range values {
					if err := ed.Set(i, v); err != nil {
						_ = ed.Abort()

						return err
					}
				}
			}

			return ed.Commit()
		},
	}
}
