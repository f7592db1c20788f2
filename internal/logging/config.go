package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level, parsed from strings including
	// "trace". Default: info.
	Level string `koanf:"level"`

	// Format is "json" or "console". Default: json.
	Format string `koanf:"format"`

	// Caller annotates entries with file:line. Default: true.
	Caller bool `koanf:"caller"`

	// Stacktrace is the level at which stacktraces attach.
	// Default: error.
	Stacktrace string `koanf:"stacktrace"`

	// Fields are constant fields attached to every entry.
	Fields map[string]string `koanf:"fields"`
}

// NewDefaultConfig returns config with production-ready defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Level:      "info",
		Format:     "json",
		Caller:     true,
		Stacktrace: "error",
		Fields: map[string]string{
			"service": "decisiond",
		},
	}
}

// Validate checks config for errors.
func (c *Config) Validate() error {
	if c.Format != "json" && c.Format != "console" {
		return fmt.Errorf("format must be 'json' or 'console', got %q", c.Format)
	}
	if _, err := LevelFromString(c.Level); err != nil {
		return fmt.Errorf("invalid level %q: %w", c.Level, err)
	}
	if c.Stacktrace != "" {
		if _, err := LevelFromString(c.Stacktrace); err != nil {
			return fmt.Errorf("invalid stacktrace level %q: %w", c.Stacktrace, err)
		}
	}
	return nil
}

// level returns the parsed minimum level.
func (c *Config) level() zapcore.Level {
	l, err := LevelFromString(c.Level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return l
}

// stacktraceLevel returns the parsed stacktrace level.
func (c *Config) stacktraceLevel() zapcore.Level {
	if c.Stacktrace == "" {
		return zapcore.ErrorLevel
	}
	l, err := LevelFromString(c.Stacktrace)
	if err != nil {
		return zapcore.ErrorLevel
	}
	return l
}
