// Package paths resolves where coursealloc keeps its configuration file and
// its session data.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "coursealloc"

// DefaultDataDirName is the CWD-relative data directory used when nothing
// else is configured.
const DefaultDataDirName = ".coursealloc-db"

// ConfigFileName is the configuration file inside the config directory.
const ConfigFileName = "config.yaml"

// Environment overrides.
const (
	EnvConfigDir = "COURSEALLOC_CONFIG_DIR"
	EnvDataDir   = "COURSEALLOC_DATA_DIR"
)

// Overridable in tests.
var (
	homeDir       = os.UserHomeDir
	userConfigDir = os.UserConfigDir
	goos          = runtime.GOOS
)

// DefaultConfigDir returns the per-user configuration directory:
// $XDG_CONFIG_HOME/coursealloc or ~/.config/coursealloc on Linux, and
// os.UserConfigDir()/coursealloc elsewhere.
func DefaultConfigDir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DefaultDataDir returns the per-user data directory:
// $XDG_DATA_HOME/coursealloc or ~/.local/share/coursealloc on Linux, and
// os.UserConfigDir()/coursealloc elsewhere.
func DefaultDataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, homeRel string) (string, error) {
	if goos != "linux" {
		dir, err := userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv(env); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, homeRel, appName), nil
}

// ResolveConfigDir picks the configuration directory:
// flag > COURSEALLOC_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if dir := first(flag, os.Getenv(EnvConfigDir)); dir != "" {
		return filepath.Abs(dir)
	}
	return DefaultConfigDir()
}

// ResolveDataDir picks the data directory:
// flag > config file value > COURSEALLOC_DATA_DIR > $(CWD)/.coursealloc-db.
func ResolveDataDir(flag, configValue string) (string, error) {
	if dir := first(flag, configValue, os.Getenv(EnvDataDir)); dir != "" {
		return filepath.Abs(dir)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, DefaultDataDirName), nil
}

// ConfigFile returns the path of config.yaml inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
