package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/calvinalkan/diskcache/pkg/disklru"
	"github.com/calvinalkan/diskcache/pkg/fs"
)

// App carries the resolved environment a command executes in.
type App struct {
	Config  Config
	Sources ConfigSources
	WorkDir string
	Stdin   io.Reader
}

// CacheDir returns the cache directory resolved against WorkDir.
func (a *App) CacheDir() string {
	dir := a.Config.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(a.WorkDir, dir)
	}

	return dir
}

// errCacheBusy is returned when another dlc process holds the cache lock.
var errCacheBusy = errors.New("cache directory is in use by another process")

// OpenCache opens the configured cache behind an advisory lock so two dlc
// invocations do not share one directory. The returned closer releases
// both the cache and the lock.
func (a *App) OpenCache() (*disklru.Cache, func() error, error) {
	dir := a.CacheDir()

	locker := fs.NewLocker(fs.NewReal())

	lock, err := locker.TryLock(dir + ".lock")
	if err != nil {
		if errors.Is(err, fs.ErrWouldBlock) {
			return nil, nil, errCacheBusy
		}

		return nil, nil, err
	}

	cache, err := disklru.Open(disklru.Options{
		Dir:        dir,
		ValueCount: a.Config.ValueCount,
		MaxSize:    a.Config.MaxSize,
	})
	if err != nil {
		_ = lock.Close()

		return nil, nil, err
	}

	closer := func() error {
		closeErr := cache.Close()
		lockErr := lock.Close()

		if closeErr != nil {
			return closeErr
		}

		return lockErr
	}

	return cache, closer, nil
}

// globalFlags holds flags that apply before command dispatch.
type globalFlags struct {
	workDir    string
	configPath string
	remaining  []string
}

var errFlagRequiresArg = errors.New("flag requires an argument")

func parseGlobalFlags(args []string) (globalFlags, error) {
	var flags globalFlags

	i := 0
	for i < len(args) {
		arg := args[i]

		switch arg {
		case "-C", "--chdir":
			if i+1 >= len(args) {
				return globalFlags{}, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
			}

			flags.workDir = args[i+1]
			i += 2

		case "--config":
			if i+1 >= len(args) {
				return globalFlags{}, fmt.Errorf("%w: %s", errFlagRequiresArg, arg)
			}

			flags.configPath = args[i+1]
			i += 2

		default:
			flags.remaining = append(flags.remaining, args[i:]...)

			return flags, nil
		}
	}

	return flags, nil
}

// commands returns the command registry in help order.
func commands() []*Command {
	return []*Command{
		cmdInit(),
		cmdGet(),
		cmdSet(),
		cmdRm(),
		cmdLs(),
		cmdInfo(),
		cmdRebuild(),
		cmdShell(),
	}
}

func printUsage(o *IO) {
	o.Println("Usage: dlc [-C <dir>] [--config <path>] <command> [args]")
	o.Println()
	o.Println("A disk-backed LRU cache tool.")
	o.Println()
	o.Println("Commands:")

	for _, c := range commands() {
		o.Println(c.HelpLine())
	}

	o.Println()
	o.Println("Run 'dlc <command> --help' for command details.")
}

// Run is the main entry point. Returns exit code.
func Run(in io.Reader, out, errOut io.Writer, args []string, env []string) int {
	o := NewIO(out, errOut)

	if len(args) < 2 {
		printUsage(o)

		return 0
	}

	flags, err := parseGlobalFlags(args[1:])
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	workDir := flags.workDir
	if workDir == "" {
		workDir, err = os.Getwd()
		if err != nil {
			o.ErrPrintln("error: cannot get working directory:", err)

			return 1
		}
	}

	if len(flags.remaining) == 0 {
		printUsage(o)

		return 0
	}

	name := flags.remaining[0]
	if name == "-h" || name == "--help" {
		printUsage(o)

		return 0
	}

	cfg, sources, err := LoadConfig(workDir, flags.configPath, env)
	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	app := &App{
		Config:  cfg,
		Sources: sources,
		WorkDir: workDir,
		Stdin:   in,
	}

	for _, c := range commands() {
		if c.Name() == name {
			return c.Run(app, o, flags.remaining[1:])
		}
	}

	o.ErrPrintln("error: unknown command:", name)
	printUsage(o)

	return 1
}
