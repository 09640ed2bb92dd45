// Package config loads the application configuration: the YAML file
// declaring which datasources exist and an optional INI profile file
// supplying per-profile cloud settings.
package config

import (
	"fmt"
	"os"
	"time"
)

// DefaultLoopInterval is used when neither the app nor a source sets one.
const DefaultLoopInterval = 0.2 // seconds

// Config is the root configuration.
type Config struct {
	Dlscope *Dlscope `yaml:"dlscope"`
}

// Dlscope holds the application-level settings.
type Dlscope struct {
	// LoopInterval is the default background fetch interval in seconds.
	LoopInterval float64 `yaml:"loopInterval"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"logLevel"`

	// Sources declares the datasources to register at startup.
	Sources []Source `yaml:"sources"`
}

// Source declares one datasource. Kind selects the backend; the remaining
// fields apply to the kinds that use them.
type Source struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Description string `yaml:"description"`

	// LoopInterval overrides the app default for this source, in seconds.
	LoopInterval float64 `yaml:"loopInterval"`

	// directory, sqlite
	Path       string   `yaml:"path"`
	Extensions []string `yaml:"extensions"`

	// noise
	Shape []int `yaml:"shape"`

	// webcam (simulated grabber)
	Width    int `yaml:"width"`
	Height   int `yaml:"height"`
	Buffered int `yaml:"buffered"`

	// s3
	Bucket  string `yaml:"bucket"`
	Prefix  string `yaml:"prefix"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`

	// websocket
	URL string `yaml:"url"`
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Dlscope: &Dlscope{
			LoopInterval: DefaultLoopInterval,
			LogLevel:     "info",
		},
	}
}

// Load reads the configuration from path. A missing file keeps the current
// settings unless force is set.
func (c *Config) Load(path string, force bool) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !force {
			return nil
		}
		return fmt.Errorf("config file does not exist: %s", path)
	}
	if err := LoadYAML(path, c); err != nil {
		return fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	if c.Dlscope == nil {
		c.Dlscope = NewConfig().Dlscope
	}
	c.Dlscope.Validate()
	return nil
}

// Save writes the configuration to path.
func (c *Config) Save(path string) error {
	return SaveYAML(path, c)
}

// Validate fills in defaults for missing settings.
func (d *Dlscope) Validate() {
	if d.LoopInterval <= 0 {
		d.LoopInterval = DefaultLoopInterval
	}
	switch d.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		d.LogLevel = "info"
	}
}

// Interval returns the effective loop interval for a source as a duration.
func (d *Dlscope) Interval(src Source) time.Duration {
	seconds := src.LoopInterval
	if seconds <= 0 {
		seconds = d.LoopInterval
	}
	return time.Duration(seconds * float64(time.Second))
}
