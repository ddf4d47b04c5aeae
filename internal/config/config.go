// Package config loads the process-wide configuration spec.md §6
// describes (ignore markers, cache root), following the same
// read-a-YAML-file-into-a-struct shape as the teacher pack's sqlcode
// CLI config loader, via gopkg.in/yaml.v3.
package config

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/gostyler/pkg/ignore"
)

// Config is the optional on-disk configuration file, conventionally
// named .gostyler.yaml in a project root.
type Config struct {
	IgnoreStart string `yaml:"ignore_start"`
	IgnoreStop  string `yaml:"ignore_stop"`
	CacheRoot   string `yaml:"cache_root"`
}

// Default returns the conventional markers and a cache root under the
// user's cache directory, used when no config file is present.
func Default() Config {
	root, err := os.UserCacheDir()
	if err != nil {
		root = os.TempDir()
	}
	return Config{
		IgnoreStart: `(?i)^#+\s*styler:\s*off\s*$`,
		IgnoreStop:  `(?i)^#+\s*styler:\s*on\s*$`,
		CacheRoot:   root + "/gostyler",
	}
}

// Load reads path as YAML and overlays it onto Default(); a missing
// file is not an error, callers just get the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Markers compiles the configured ignore-marker patterns.
func (c Config) Markers() (ignore.Markers, error) {
	start, err := regexp.Compile(c.IgnoreStart)
	if err != nil {
		return ignore.Markers{}, err
	}
	stop, err := regexp.Compile(c.IgnoreStop)
	if err != nil {
		return ignore.Markers{}, err
	}
	return ignore.Markers{Start: start, Stop: stop}, nil
}
