package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/mcp-imagemagick/internal/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "LOG_LEVEL", "LOG_FORMAT", "MAX_MESSAGE_BYTES", "VERIFY",
		"IMAGEMAGICK_COMMANDS", "DARKTABLE_COMMAND", "PROTOCOL_VERSION",
	} {
		name := "MCP_IMAGEMAGICK_" + key
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 1024*1024, cfg.MaxMessageBytes)
	assert.Equal(t, "none", cfg.Verify, "a clean exit is success unless verification is enabled")
	assert.Equal(t, []string{"convert7", "magick"}, cfg.ImagemagickCommands)
	assert.Equal(t, "darktable-cli", cfg.DarktableCommand)
	assert.Equal(t, "2024-11-01", cfg.ProtocolVersion)
	assert.NoError(t, cfg.Validate())

	cfg.ImagemagickCommands[0] = "changed"
	assert.Equal(t, "convert7", Default().ImagemagickCommands[0])
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server.yaml", `
log_level: debug
verify: decode
imagemagick_commands: [magick]
darktable_command: /opt/darktable/bin/darktable-cli
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "decode", cfg.Verify)
	assert.Equal(t, []string{"magick"}, cfg.ImagemagickCommands)
	assert.Equal(t, "/opt/darktable/bin/darktable-cli", cfg.DarktableCommand)
	assert.Equal(t, "text", cfg.LogFormat, "unset keys keep defaults")
}

func TestLoad_TOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server.toml", `
log_format = "json"
max_message_bytes = 4096
protocol_version = "2025-03-26"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4096, cfg.MaxMessageBytes)
	assert.Equal(t, "2025-03-26", cfg.ProtocolVersion)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EmptyYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "empty.yml", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server.yaml", "log_level: debug\nverify: header\n")
	t.Setenv("MCP_IMAGEMAGICK_LOG_LEVEL", "error")
	t.Setenv("MCP_IMAGEMAGICK_IMAGEMAGICK_COMMANDS", "magick,convert")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "header", cfg.Verify)
	assert.Equal(t, []string{"magick", "convert"}, cfg.ImagemagickCommands)
}

func TestLoad_FileFromEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "server.yaml", "verify: exists\n")
	t.Setenv("MCP_IMAGEMAGICK_CONFIG_FILE", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "exists", cfg.Verify)
	assert.Equal(t, path, cfg.ConfigFile)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	tests := []struct {
		name string
		path func(t *testing.T) string
	}{
		{"missing file", func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.yaml") }},
		{"malformed yaml", func(t *testing.T) string { return writeConfig(t, "bad.yaml", "log_level: [") }},
		{"unknown yaml key", func(t *testing.T) string { return writeConfig(t, "typo.yaml", "log_levle: debug\n") }},
		{"malformed toml", func(t *testing.T) string { return writeConfig(t, "bad.toml", "log_level = ") }},
		{"unknown toml key", func(t *testing.T) string { return writeConfig(t, "typo.toml", "verfiy = \"none\"\n") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			assert.Error(t, err)
		})
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("MCP_IMAGEMAGICK_MAX_MESSAGE_BYTES", "lots")

	_, err := Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"log level", func(c *Config) { c.LogLevel = "loud" }},
		{"log format", func(c *Config) { c.LogFormat = "xml" }},
		{"message size", func(c *Config) { c.MaxMessageBytes = 0 }},
		{"verify mode", func(c *Config) { c.Verify = "pixels" }},
		{"no imagemagick commands", func(c *Config) { c.ImagemagickCommands = nil }},
		{"blank imagemagick command", func(c *Config) { c.ImagemagickCommands = []string{"magick", " "} }},
		{"darktable command", func(c *Config) { c.DarktableCommand = "" }},
		{"protocol version", func(c *Config) { c.ProtocolVersion = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
	}
	for level, want := range tests {
		cfg := &Config{LogLevel: level}
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}

func TestVerifyMode(t *testing.T) {
	cfg := Default()
	assert.Equal(t, imaging.VerifyNone, cfg.VerifyMode())

	cfg.Verify = "Decode"
	assert.Equal(t, imaging.VerifyDecode, cfg.VerifyMode())
}
