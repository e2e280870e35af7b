package cli

import (
	flag "github.com/spf13/pflag"
)

func cmdRebuild() *Command {
	return &Command{
		Flags: flag.NewFlagSet("rebuild", flag.ContinueOnError),
		Usage: "rebuild",
		Short: "Compact the journal to the live entry set",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			if err := cache.RebuildJournal(); err != nil {
				return err
			}

			o.Println("journal rebuilt:", cache.Len(), "entries")

			return nil
		},
	}
}
