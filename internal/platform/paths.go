// Package platform resolves per-user file locations.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const defaultAppName = "gantt"

// Paths are the per-user locations of the config file, the document database and
// rendered exports.
type Paths struct {
	ConfigPath string
	DataDir    string
	DBPath     string
	ExportDir  string
}

// Options selects the app directory name; DevMode appends "-dev".
type Options struct {
	AppName string
	DevMode bool
}

// envOverrides names the variables that replace the config and data base dirs per OS.
var envOverrides = map[string][2]string{
	"linux":   {"XDG_CONFIG_HOME", "XDG_DATA_HOME"},
	"windows": {"APPDATA", "LOCALAPPDATA"},
}

// DefaultPaths resolves paths for the stock app name.
func DefaultPaths() (Paths, error) {
	return DefaultPathsWithOptions(Options{})
}

// DefaultPathsWithOptions resolves paths from the running OS and its environment.
func DefaultPathsWithOptions(opts Options) (Paths, error) {
	name := strings.TrimSpace(opts.AppName)
	if name == "" {
		name = defaultAppName
	}
	if opts.DevMode {
		name += "-dev"
	}

	configBase, err := os.UserConfigDir()
	if err != nil {
		return Paths{}, fmt.Errorf("user config dir: %w", err)
	}
	dataBase, err := userDataDir(runtime.GOOS, configBase)
	if err != nil {
		return Paths{}, err
	}

	env := make(map[string]string, 4)
	for _, keys := range envOverrides {
		for _, k := range keys {
			env[k] = os.Getenv(k)
		}
	}
	return PathsFor(runtime.GOOS, env, configBase, dataBase, name)
}

// userDataDir picks the OS data base dir; the stdlib only knows the config dir.
func userDataDir(goos, configBase string) (string, error) {
	if goos != "linux" {
		return configBase, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("user home dir: %w", err)
	}
	return filepath.Join(home, ".local", "share"), nil
}

// PathsFor resolves paths for goos given an explicit environment. XDG and Windows
// app-data variables take precedence over the user base dirs; other systems use
// the base dirs unchanged.
func PathsFor(goos string, env map[string]string, userConfigDir, userDataDir, appName string) (Paths, error) {
	if userConfigDir == "" || userDataDir == "" {
		return Paths{}, errors.New("empty base dirs")
	}
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return Paths{}, errors.New("empty app name")
	}

	configBase, dataBase := userConfigDir, userDataDir
	if keys, ok := envOverrides[goos]; ok {
		if v := strings.TrimSpace(env[keys[0]]); v != "" {
			configBase = v
		}
		if v := strings.TrimSpace(env[keys[1]]); v != "" {
			dataBase = v
		}
	}

	dataDir := filepath.Join(dataBase, appName)
	return Paths{
		ConfigPath: filepath.Join(configBase, appName, "config.toml"),
		DataDir:    dataDir,
		DBPath:     filepath.Join(dataDir, appName+".db"),
		ExportDir:  filepath.Join(dataDir, "exports"),
	}, nil
}
