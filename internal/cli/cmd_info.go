package cli

import (
	"strconv"

	flag "github.com/spf13/pflag"
)

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func cmdInfo() *Command {
	return &Command{
		Flags: flag.NewFlagSet("info", flag.ContinueOnError),
		Usage: "info",
		Short: "Show cache directory, size, and limits",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			o.Println("dir:        ", cache.Dir())
			o.Println("value count:", cache.ValueCount())
			o.Println("max size:   ", formatInt(cache.MaxSize()))
			o.Println("size:       ", formatInt(cache.Size()))
			o.Println("entries:    ", cache.Len())

			if a.Sources.Global != "" {
				o.Println("global config: ", a.Sources.Global)
			}

			if a.Sources.Project != "" {
				o.Println("project config:", a.Sources.Project)
			}

			return nil
		},
	}
}
