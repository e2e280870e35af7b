package cli

import (
	"strings"

	flag "github.com/spf13/pflag"
)

func cmdLs() *Command {
	flags := flag.NewFlagSet("ls", flag.ContinueOnError)
	long := flags.BoolP("long", "l", false, "show lengths and entry state")

	return &Command{
		Flags: flags,
		Usage: "ls [-l]",
		Short: "List entries in LRU order",
		Long: "List entries, least recently used first. With -l, each line\n" +
			"shows the per-value byte lengths and whether an edit is open.",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			for _, e := range cache.Entries() {
				if e.Editing {
					o.Warn("entry " + e.Key + " has an open edit")
				}

				if !*long {
					o.Println(e.Key)

					continue
				}

				var b strings.Builder

				b.WriteString(e.Key)

				for _, n := range e.Lengths {
					b.WriteByte(' ')
					b.WriteString(formatInt(n))
				}

				if e.Editing {
					b.WriteString(" (editing)")
				} else if !e.Readable {
					b.WriteString(" (creating)")
				}

				o.Println(b.String())
			}

			return nil
		},
	}
}
