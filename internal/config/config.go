// Package config provides configuration loading for decisiond.
package config

import (
	"fmt"

	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/embedding"
	"github.com/fyrsmithlabs/decisiond/internal/logging"
)

// Config is the root configuration for the decisiond daemon.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Logging   logging.Config   `koanf:"logging"`
	Bandit    bandit.Config    `koanf:"bandit"`
	Embedding embedding.Config `koanf:"embedding"`
	Decision  DecisionConfig   `koanf:"decision"`
	Store     StoreConfig      `koanf:"store"`
	Events    EventsConfig     `koanf:"events"`
	Features  FeaturesConfig   `koanf:"features"`
}

// ServerConfig holds the HTTP wrapper settings.
type ServerConfig struct {
	// Port is the listen port. Default: 8097.
	Port int `koanf:"port"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout Duration `koanf:"shutdown_timeout"`
}

// DecisionConfig holds the decision engine settings.
type DecisionConfig struct {
	// DisableBandit turns off bandit-backed scoring. Phrased as a
	// disable flag so the zero value keeps the bandit on.
	DisableBandit bool `koanf:"disable_bandit"`

	// DisableEmbedding turns off embedding similarity scoring.
	DisableEmbedding bool `koanf:"disable_embedding"`

	// CacheTTL bounds the decision cache. Default: 5m.
	CacheTTL Duration `koanf:"cache_ttl"`
}

// StoreConfig selects the embedding store backend.
type StoreConfig struct {
	// Provider is "memory" (default) or "chromem".
	Provider string `koanf:"provider"`

	// Path is the chromem persistence directory.
	// Default: "~/.config/decisiond/embeddings"
	Path string `koanf:"path"`

	// Compress enables gzip for chromem storage. Note the zero value
	// is false; set explicitly if compression is desired.
	Compress bool `koanf:"compress"`
}

// EventsConfig holds event publishing settings.
type EventsConfig struct {
	// NATSURL enables the NATS event sink when non-empty.
	NATSURL string `koanf:"nats_url"`

	// SubjectPrefix prefixes NATS subjects.
	// Default: "decisiond.events"
	SubjectPrefix string `koanf:"subject_prefix"`
}

// FeaturesConfig holds feature provider settings.
type FeaturesConfig struct {
	// Fixture is an optional YAML file of per-user feature snapshots
	// loaded into the static provider at startup. Each top-level key
	// is a user id mapping to named values in their natural units.
	Fixture string `koanf:"fixture"`
}

// Validate validates the full configuration.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be in 1-65535, got %d", c.Server.Port)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Bandit.Validate(); err != nil {
		return fmt.Errorf("bandit: %w", err)
	}
	if err := c.Embedding.Validate(); err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	switch c.Store.Provider {
	case "memory", "chromem":
	default:
		return fmt.Errorf("store provider must be 'memory' or 'chromem', got %q", c.Store.Provider)
	}
	return nil
}
