package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valerio/go-ctrlflow/ctrlflow/input"
	"github.com/valerio/go-ctrlflow/ctrlflow/timing"
)

// Backend names accepted in configuration.
const (
	BackendTerminal = "terminal"
	BackendSDL2     = "sdl2"
	BackendHeadless = "headless"
)

// Config holds the application configuration, as read from a YAML file.
type Config struct {
	WaitTime      time.Duration     `yaml:"wait_time"`       // WaitUntil deadline offset (default 100ms)
	PollSleepTime time.Duration     `yaml:"poll_sleep_time"` // Poll throttle (default 100ms)
	Backend       string            `yaml:"backend"`         // terminal, sdl2 or headless
	Title         string            `yaml:"title"`           // Window title
	LogLevel      string            `yaml:"log_level"`       // debug, info, warn, error
	LogFormat     string            `yaml:"log_format"`      // text, json
	Keys          map[string]string `yaml:"keys"`            // Extra key bindings: key name -> action name
}

// Default returns the reference configuration.
func Default() Config {
	return Config{
		WaitTime:      timing.DefaultWaitTime,
		PollSleepTime: timing.DefaultPollSleepTime,
		Backend:       BackendTerminal,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// Load reads path over the defaults. Fields missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.WaitTime <= 0 {
		return errors.New("wait_time must be positive")
	}
	if c.PollSleepTime <= 0 {
		return errors.New("poll_sleep_time must be positive")
	}

	switch strings.ToLower(c.Backend) {
	case BackendTerminal, BackendSDL2, BackendHeadless:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if _, err := c.Keymap(); err != nil {
		return err
	}
	return nil
}

// Keymap returns the default bindings with the configured overrides applied.
func (c Config) Keymap() (input.Keymap, error) {
	return input.DefaultKeymap.Merge(c.Keys)
}
