// Package config loads tdlineage's run settings the way BeadsLog's
// internal/config loads bd's: a viper.Viper instance seeded with defaults,
// overridable by an optional TOML file and by TDLINEAGE_*-prefixed
// environment variables, with command-line flags taking final precedence
// (bound by the caller via BindPFlag on the Viper that Load returns, before
// Resolve).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

// Settings is the resolved configuration for one CLI invocation.
type Settings struct {
	// Soft selects the soft error-handling mode: a parse or runtime failure
	// yields {"error": ..., "type": ...} on stdout with exit code 0, instead
	// of aborting with a non-zero exit.
	Soft bool

	// Dialect is passed through to the parser and into the Report's
	// _meta.dialect field.
	Dialect string

	// Verbose turns on the logrus diagnostic lines (statement counts,
	// warning counts).
	Verbose bool
}

// fileNames are searched, in order, in the current working directory and
// then the user's home directory — mirroring BeadsLog's project-then-home
// search order for its own config.yaml.
var fileNames = []string{"tdlineage.toml", ".tdlineage.toml"}

// Load builds a Viper instance with defaults, an optional on-disk TOML
// file, and TDLINEAGE_* environment variables layered in increasing
// precedence. Callers bind cobra flags on top with v.BindPFlag before
// calling Resolve.
func Load() *viper.Viper {
	v := viper.New()

	v.SetDefault("soft", false)
	v.SetDefault("dialect", "teradata")
	v.SetDefault("verbose", false)

	v.SetEnvPrefix("TDLINEAGE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path, ok := findConfigFile(); ok {
		if data, err := decodeTOML(path); err == nil {
			_ = v.MergeConfigMap(data)
		}
	}

	return v
}

// findConfigFile looks for a tdlineage config file in cwd, then $HOME,
// returning the first one found.
func findConfigFile() (string, bool) {
	dirs := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, home)
	}

	for _, dir := range dirs {
		for _, name := range fileNames {
			p := filepath.Join(dir, name)
			if _, err := os.Stat(p); err == nil {
				return p, true
			}
		}
	}

	return "", false
}

// decodeTOML reads a tdlineage.toml file with BurntSushi/toml directly
// (rather than through viper's own codec), so a malformed file surfaces the
// TOML library's own parse error rather than viper's generic one.
func decodeTOML(path string) (map[string]any, error) {
	var out map[string]any

	_, err := toml.DecodeFile(path, &out)

	return out, err
}

// Resolve reads the final layered values out of v into a Settings value.
func Resolve(v *viper.Viper) Settings {
	return Settings{
		Soft:    v.GetBool("soft"),
		Dialect: v.GetString("dialect"),
		Verbose: v.GetBool("verbose"),
	}
}
