package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

// Config holds all configuration options for the dlc tool.
type Config struct {
	Dir        string `json:"dir"`
	ValueCount int    `json:"value_count"` //nolint:tagliatelle // snake_case for config file
	MaxSize    int64  `json:"max_size"`    //nolint:tagliatelle // snake_case for config file
}

// ConfigSources tracks which config files were loaded.
type ConfigSources struct {
	Global  string // Path to global config if loaded, empty otherwise
	Project string // Path to project config if loaded, empty otherwise
}

// ConfigFileName is the default project config file name.
const ConfigFileName = ".dlc.json"

// Config errors.
var (
	errConfigFileNotFound = errors.New("config file not found")
	errConfigInvalid      = errors.New("invalid config file")
	errDirEmpty           = errors.New("dir cannot be empty")
	errBadValueCount      = errors.New("value_count must be >= 1")
	errBadMaxSize         = errors.New("max_size must be > 0")
)

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Dir:        ".dlcache",
		ValueCount: 1,
		MaxSize:    1 << 30,
	}
}

// globalConfigPath returns the path to the global config file.
// Uses $XDG_CONFIG_HOME/dlc/config.json if set, otherwise
// ~/.config/dlc/config.json. Returns empty string if the home directory
// cannot be determined.
func globalConfigPath(env []string) string {
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "XDG_CONFIG_HOME="); ok && after != "" {
			return filepath.Join(after, "dlc", "config.json")
		}
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dlc", "config.json")
	}

	home, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(home, ".config", "dlc", "config.json")
	}

	return ""
}

// LoadConfig loads configuration with the following precedence (highest
// wins):
//  1. Defaults
//  2. Global user config ($XDG_CONFIG_HOME/dlc/config.json)
//  3. Project config: the explicit configPath if non-empty (it must exist),
//     otherwise .dlc.json in workDir if present. An explicit configPath
//     replaces .dlc.json; the two are never both read.
func LoadConfig(workDir, configPath string, env []string) (Config, ConfigSources, error) {
	cfg := DefaultConfig()

	var sources ConfigSources

	if globalPath := globalConfigPath(env); globalPath != "" {
		globalCfg, ok, err := readConfigFile(globalPath)
		if err != nil {
			return Config{}, ConfigSources{}, err
		}

		if ok {
			sources.Global = globalPath
			cfg = mergeConfig(cfg, globalCfg)
		}
	}

	projectPath := configPath
	explicit := configPath != ""

	if projectPath == "" {
		projectPath = filepath.Join(workDir, ConfigFileName)
	}

	projectCfg, ok, err := readConfigFile(projectPath)
	if err != nil {
		return Config{}, ConfigSources{}, err
	}

	if !ok && explicit {
		return Config{}, ConfigSources{}, fmt.Errorf("%w: %s", errConfigFileNotFound, projectPath)
	}

	if ok {
		sources.Project = projectPath
		cfg = mergeConfig(cfg, projectCfg)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, ConfigSources{}, err
	}

	return cfg, sources, nil
}

// readConfigFile reads and parses a HuJSON config file.
// Returns ok=false if the file does not exist.
func readConfigFile(path string) (Config, bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from config resolution
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, false, nil
		}

		return Config{}, false, fmt.Errorf("reading config %s: %w", path, err)
	}

	std, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	var cfg Config

	if err := json.Unmarshal(std, &cfg); err != nil {
		return Config{}, false, fmt.Errorf("%w: %s: %v", errConfigInvalid, path, err)
	}

	return cfg, true, nil
}

// mergeConfig overlays non-zero fields of overlay onto base.
func mergeConfig(base, overlay Config) Config {
	if overlay.Dir != "" {
		base.Dir = overlay.Dir
	}

	if overlay.ValueCount != 0 {
		base.ValueCount = overlay.ValueCount
	}

	if overlay.MaxSize != 0 {
		base.MaxSize = overlay.MaxSize
	}

	return base
}

func validateConfig(cfg Config) error {
	if cfg.Dir == "" {
		return errDirEmpty
	}

	if cfg.ValueCount < 1 {
		return errBadValueCount
	}

	if cfg.MaxSize <= 0 {
		return errBadMaxSize
	}

	return nil
}
