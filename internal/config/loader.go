package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/fyrsmithlabs/decisiond/internal/logging"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// LoadWithFile loads configuration from a YAML file, then overrides
// with environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, BANDIT_ALGORITHM, etc.)
//  2. YAML config file (~/.config/decisiond/config.yaml)
//  3. Hardcoded defaults
//
// The configPath parameter specifies the YAML file to load. If empty,
// the default path is used and a missing file is not an error.
//
// # Environment Variable Mapping
//
// Environment variables use underscore separator and are uppercased.
// The transformer splits on the first underscore into section and
// field name:
//
//	SERVER_PORT -> server.port
//	BANDIT_EXPLORATION_RATE -> bandit.exploration_rate
//	DECISION_CACHE_TTL -> decision.cache_ttl
func LoadWithFile(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "decisiond", "config.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables. The known-sections filter
	// keeps unrelated environment noise (PATH, HOME, ...) out of the
	// config tree.
	if err := k.Load(env.Provider("", ".", envTransformer), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// configSections are the recognized top-level sections for env
// mapping.
var configSections = map[string]bool{
	"server":    true,
	"logging":   true,
	"bandit":    true,
	"embedding": true,
	"decision":  true,
	"store":     true,
	"events":    true,
	"features":  true,
}

// envTransformer maps SECTION_FIELD_NAME to section.field_name,
// dropping variables whose section is not a config section.
func envTransformer(s string) string {
	lower := strings.ToLower(s)
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) != 2 || !configSections[parts[0]] {
		return ""
	}
	return parts[0] + "." + parts[1]
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8097
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = Duration(10 * time.Second)
	}

	if cfg.Logging.Level == "" {
		fields := cfg.Logging.Fields
		cfg.Logging = *logging.NewDefaultConfig()
		if len(fields) > 0 {
			cfg.Logging.Fields = fields
		}
	}

	cfg.Bandit.ApplyDefaults()
	cfg.Embedding.ApplyDefaults()

	if cfg.Decision.CacheTTL == 0 {
		cfg.Decision.CacheTTL = Duration(5 * time.Minute)
	}

	if cfg.Store.Provider == "" {
		cfg.Store.Provider = "memory"
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = defaultStorePath()
	}

	if cfg.Events.SubjectPrefix == "" {
		cfg.Events.SubjectPrefix = "decisiond.events"
	}
}

// defaultStorePath is ~/.config/decisiond/embeddings, or a relative
// fallback when the home directory is unavailable.
func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "decisiond-embeddings"
	}
	return filepath.Join(home, ".config", "decisiond", "embeddings")
}
