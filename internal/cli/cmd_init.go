package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/diskcache/pkg/fs"
)

var errConfigExists = errors.New("config file already exists")

func cmdInit() *Command {
	flags := flag.NewFlagSet("init", flag.ContinueOnError)
	dir := flags.String("dir", "", "cache directory (default "+DefaultConfig().Dir+")")
	values := flags.Int("values", 0, "values per entry")
	maxSize := flags.Int64("max-size", 0, "size bound in bytes")

	return &Command{
		Flags: flags,
		Usage: "init [flags]",
		Short: "Write a project config and create the cache",
		Long: "Write " + ConfigFileName + " into the working directory and open\n" +
			"the cache once so the directory and journal exist.",
		Exec: func(a *App, o *IO, args []string) error {
			if len(args) > 0 {
				return errTooManyArgs
			}

			cfg := a.Config
			cfg = mergeConfig(cfg, Config{Dir: *dir, ValueCount: *values, MaxSize: *maxSize})

			if err := validateConfig(cfg); err != nil {
				return err
			}

			path := filepath.Join(a.WorkDir, ConfigFileName)

			fsys := fs.NewReal()

			exists, err := fsys.Exists(path)
			if err != nil {
				return err
			}

			if exists {
				return fmt.Errorf("%w: %s", errConfigExists, path)
			}

			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return err
			}

			if err := fsys.WriteFileAtomic(path, append(data, '\n'), 0o644); err != nil {
				return err
			}

			// Open once so the directory and journal exist on disk.
			a.Config = cfg

			_, closer, err := a.OpenCache()
			if err != nil {
				return err
			}

			if err := closer(); err != nil {
				return err
			}

			o.Println("initialized cache at", a.CacheDir())

			return nil
		},
	}
}
