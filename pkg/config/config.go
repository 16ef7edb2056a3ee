// Package config loads command line defaults from .semdiff.yaml and
// SEMDIFF_* environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Color modes.
const (
	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

// Config holds the settings shared by all commands.
type Config struct {
	Policy          string  `mapstructure:"policy"`
	PolicyFile      string  `mapstructure:"policyFile"`
	Format          string  `mapstructure:"format"`
	Color           string  `mapstructure:"color"`
	FailOn          string  `mapstructure:"failOn"`
	Workers         int     `mapstructure:"workers"`
	MaxDepth        int     `mapstructure:"maxDepth"`
	RenameThreshold float64 `mapstructure:"renameThreshold"`
	LogLevel        string  `mapstructure:"logLevel"`
	Verbose         bool    `mapstructure:"verbose"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Policy:          "default",
		Format:          FormatText,
		Color:           ColorAuto,
		Workers:         runtime.GOMAXPROCS(0),
		MaxDepth:        32,
		RenameThreshold: 0.8,
		LogLevel:        "warn",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("policy", d.Policy)
	v.SetDefault("policyFile", d.PolicyFile)
	v.SetDefault("format", d.Format)
	v.SetDefault("color", d.Color)
	v.SetDefault("failOn", d.FailOn)
	v.SetDefault("workers", d.Workers)
	v.SetDefault("maxDepth", d.MaxDepth)
	v.SetDefault("renameThreshold", d.RenameThreshold)
	v.SetDefault("logLevel", d.LogLevel)
	v.SetDefault("verbose", d.Verbose)
}

// Load reads the config file at path, or .semdiff.yaml in the working
// directory when path is empty. A missing .semdiff.yaml yields the defaults;
// a missing explicit path is an error. Environment variables such as
// SEMDIFF_FORMAT override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SEMDIFF")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(".semdiff")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks enumerated fields and numeric bounds.
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case FormatText, FormatMarkdown, FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("format %q: want text, markdown or json", c.Format))
	}
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		errs = append(errs, fmt.Errorf("color %q: want auto, always or never", c.Color))
	}
	switch c.FailOn {
	case "", "major", "minor", "patch":
	default:
		errs = append(errs, fmt.Errorf("failOn %q: want major, minor or patch", c.FailOn))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxDepth < 1 {
		errs = append(errs, fmt.Errorf("maxDepth must be positive, got %d", c.MaxDepth))
	}
	if c.RenameThreshold <= 0 || c.RenameThreshold > 1 {
		errs = append(errs, fmt.Errorf("renameThreshold must be in (0, 1], got %v", c.RenameThreshold))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
