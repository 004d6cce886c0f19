// Package config loads the detector's one configurable value — the
// background detection interval — from a TOML file, mirroring the
// embed-default-and-override pattern used elsewhere in this codebase for
// checked-in configuration.
package config

import (
	"embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"deadlockwatch/pkg/dlerror"
)

//go:embed default.toml
var defaultConfigFS embed.FS

// Config is the detector's configuration. Per spec, the detection
// interval is the only configurable input.
type Config struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Interval returns the configured interval as a time.Duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load reads configuration from path, or from the embedded default if path
// is empty or does not exist.
func Load(path string) (Config, error) {
	var data []byte
	var err error

	if path == "" || !fileExists(path) {
		data, err = defaultConfigFS.ReadFile("default.toml")
		if err != nil {
			return Config{}, dlerror.Wrap(err, dlerror.CodeConfigLoad, "config")
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return Config{}, dlerror.Wrap(err, dlerror.CodeConfigLoad, "config")
		}
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, dlerror.Wrap(err, dlerror.CodeConfigLoad, "config")
	}

	if cfg.IntervalSeconds <= 0 {
		return Config{}, dlerror.New(dlerror.ErrCategoryMisuse, dlerror.CodeInvalidInterval,
			fmt.Sprintf("interval_seconds must be >= 1, got %d", cfg.IntervalSeconds))
	}

	return cfg, nil
}

// LoadDefault loads the embedded default configuration.
func LoadDefault() (Config, error) {
	return Load("")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
