package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diskcache/pkg/disklru"
)

const shellHelp = `Commands:
  get <key> [index]        Print a value
  set <key> <value>...     Store values (one per index)
  seti <key> <i> <value>   Update a single value
  rm <key>                 Remove an entry
  ls                       List entries in LRU order
  len                      Count entries
  size                     Show committed size in bytes
  rebuild                  Compact the journal
  help                     Show this help
  exit / quit / q          Exit`

func cmdShell() *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell",
		Short: "Interactive session against the cache",
		Long:  "Open the cache once and run commands against it interactively.",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			cache, closer, err := a.OpenCache()
			if err != nil {
				return err
			}
			defer func() { _ = closer() }()

			line := liner.NewLiner()
			defer func() { _ = line.Close() }()

			line.SetCtrlCAborts(true)

			o.Println("dlc shell -", cache.Dir())
			o.Println("Type 'help' for commands.")

			for {
				input, err := line.Prompt("dlc> ")
				if err != nil {
					if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
						return nil
					}

					return err
				}

				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}

				line.AppendHistory(input)

				if input == "exit" || input == "quit" || input == "q" {
					return nil
				}

				if err := shellDispatch(cache, o, strings.Fields(input)); err != nil {
					o.ErrPrintln("error:", err)
				}
			}
		},
	}
}

var errShellUsage = errors.New("usage error, type 'help'")

func shellDispatch(cache *disklru.Cache, o *IO, fields []string) error {
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help":
		o.Println(shellHelp)

		return nil

	case "get":
		if len(args) < 1 || len(args) > 2 {
			return errShellUsage
		}

		index := 0

		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 0 {
				return fmt.Errorf("%w: %q", errBadIndexArg, args[1])
			}

			index = n
		}

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

		o.Println(value)

		return nil

	case "set":
		if len(args) < 1+cache.ValueCount() {
			return fmt.Errorf("%w: set needs %d values", errShellUsage, cache.ValueCount())
		}

		return shellSet(cache, args[0], -1, args[1:])

	case "seti":
		if len(args) != 3 {
			return errShellUsage
		}

		index, err := strconv.Atoi(args[1])
		if err != nil || index < 0 {
			return fmt.Errorf("%w: %q", errBadIndexArg, args[1])
		}

		return shellSet(cache, args[0], index, args[2:])

	case "rm":
		if len(args) != 1 {
			return errShellUsage
		}

		ok, err := cache.Remove(args[0])
		if err != nil {
			return err
		}

		if !ok {
			return fmt.Errorf("%w: %s", errKeyNotFound, args[0])
		}

		return nil

	case "ls":
		for _, e := range cache.Entries() {
			o.Println(e.Key)
		}

		return nil

	case "len":
		o.Println(cache.Len())

		return nil

	case "size":
		o.Println(cache.Size())

		return nil

	case "rebuild":
		return cache.RebuildJournal()

	default:
		return fmt.Errorf("%w: unknown command %q", errShellUsage, cmd)
	}
}

func shellSet(cache *disklru.Cache, key string, index int, values []string) error {
	ed, ok, err := cache.Edit(key)
	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("%w: %s", errEntryBusy, key)
	}

	if index >= 0 {
		if err := ed.Set(index, values[0]); err != nil {
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
}
