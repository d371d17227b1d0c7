// Package config loads server settings from built-in defaults, an optional
// YAML or TOML file and MCP_IMAGEMAGICK_* environment variables, in that
// order of precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/mcp-imagemagick/internal/converter"
	"github.com/ironsheep/mcp-imagemagick/internal/imaging"
	"github.com/ironsheep/mcp-imagemagick/internal/server"
	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "mcp_imagemagick"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the merged settings.
type Config struct {
	// ConfigFile is the file the settings were read from, if any.
	ConfigFile string `yaml:"-" toml:"-" ignored:"true"`

	LogLevel            string   `yaml:"log_level" toml:"log_level" split_words:"true"`
	LogFormat           string   `yaml:"log_format" toml:"log_format" split_words:"true"`
	MaxMessageBytes     int      `yaml:"max_message_bytes" toml:"max_message_bytes" split_words:"true"`
	Verify              string   `yaml:"verify" toml:"verify" split_words:"true"`
	ImagemagickCommands []string `yaml:"imagemagick_commands" toml:"imagemagick_commands" split_words:"true"`
	DarktableCommand    string   `yaml:"darktable_command" toml:"darktable_command" split_words:"true"`
	ProtocolVersion     string   `yaml:"protocol_version" toml:"protocol_version" split_words:"true"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		MaxMessageBytes:     server.DefaultMaxMessageBytes,
		Verify:              imaging.VerifyNone.String(),
		ImagemagickCommands: append([]string(nil), converter.DefaultImageMagickCommands...),
		DarktableCommand:    converter.DefaultDarktableCommand,
		ProtocolVersion:     server.DefaultProtocolVersion,
	}
}

// Load builds a Config from defaults, the file at path and the environment.
// An empty path falls back to MCP_IMAGEMAGICK_CONFIG_FILE; when that is unset
// too no file is read.
func Load(path string) (*Config, error) {
	if path == "" {
		var boot struct {
			ConfigFile string `split_words:"true"`
		}
		if err := envconfig.Process(EnvPrefix, &boot); err != nil {
			return nil, fmt.Errorf("failed to process environment variables: %w", err)
		}
		path = boot.ConfigFile
	}

	cfg := Default()
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}

	// Unset variables leave file and default values in place.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(c)
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(c)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	}
	if err != nil {
		return fmt.Errorf("failed to unmarshal config file '%s': %w", path, err)
	}
	return nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log_level %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log_format %q", c.LogFormat))
	}
	if c.MaxMessageBytes <= 0 {
		errs = append(errs, fmt.Errorf("max_message_bytes must be positive, got %d", c.MaxMessageBytes))
	}
	if _, err := imaging.ParseVerifyMode(c.Verify); err != nil {
		errs = append(errs, err)
	}
	if len(c.ImagemagickCommands) == 0 {
		errs = append(errs, errors.New("imagemagick_commands must not be empty"))
	}
	for _, name := range c.ImagemagickCommands {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("imagemagick_commands contains an empty name"))
			break
		}
	}
	if strings.TrimSpace(c.DarktableCommand) == "" {
		errs = append(errs, errors.New("darktable_command must not be empty"))
	}
	if c.ProtocolVersion == "" {
		errs = append(errs, errors.New("protocol_version must not be empty"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// SlogLevel returns the slog.Level for LogLevel, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// VerifyMode returns the parsed Verify setting. Call Validate first.
func (c *Config) VerifyMode() imaging.VerifyMode {
	mode, err := imaging.ParseVerifyMode(c.Verify)
	if err != nil {
		return imaging.VerifyNone
	}
	return mode
}
