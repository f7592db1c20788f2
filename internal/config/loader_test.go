package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fyrsmithlabs/decisiond/internal/bandit"
	"github.com/fyrsmithlabs/decisiond/internal/embedding"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadWithFile_Defaults(t *testing.T) {
	cfg, err := LoadWithFile(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, 8097, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, bandit.Thompson, cfg.Bandit.Algorithm)
	assert.Equal(t, 64, cfg.Embedding.Dim)
	assert.Equal(t, embedding.Hourly, cfg.Embedding.Staleness)
	assert.Equal(t, 5*time.Minute, cfg.Decision.CacheTTL.Duration())
	assert.Equal(t, "memory", cfg.Store.Provider)
	assert.Equal(t, "decisiond.events", cfg.Events.SubjectPrefix)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Decision.DisableBandit, "bandit is on by default")
}

func TestLoadWithFile_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
  shutdown_timeout: 30s

bandit:
  algorithm: ucb
  exploration_rate: 0.2
  min_pulls: 5

embedding:
  dim: 128
  staleness: daily

decision:
  disable_embedding: true
  cache_ttl: 1m

store:
  provider: chromem
  path: /tmp/embeddings

events:
  nats_url: nats://localhost:4222
`)

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout.Duration())
	assert.Equal(t, bandit.UCB, cfg.Bandit.Algorithm)
	assert.Equal(t, 0.2, cfg.Bandit.ExplorationRate)
	assert.Equal(t, 5, cfg.Bandit.MinPulls)
	assert.Equal(t, 128, cfg.Embedding.Dim)
	assert.Equal(t, embedding.Daily, cfg.Embedding.Staleness)
	assert.True(t, cfg.Decision.DisableEmbedding)
	assert.Equal(t, time.Minute, cfg.Decision.CacheTTL.Duration())
	assert.Equal(t, "chromem", cfg.Store.Provider)
	assert.Equal(t, "/tmp/embeddings", cfg.Store.Path)
	assert.Equal(t, "nats://localhost:4222", cfg.Events.NATSURL)
}

func TestLoadWithFile_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
bandit:
  algorithm: ucb
`)

	t.Setenv("SERVER_PORT", "7001")
	t.Setenv("BANDIT_EXPLORATION_RATE", "0.25")

	cfg, err := LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, 7001, cfg.Server.Port, "environment wins over the file")
	assert.Equal(t, bandit.UCB, cfg.Bandit.Algorithm, "file values without env override survive")
	assert.Equal(t, 0.25, cfg.Bandit.ExplorationRate)
}

func TestLoadWithFile_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "bad port", yaml: "server:\n  port: 99999\n"},
		{name: "bad algorithm", yaml: "bandit:\n  algorithm: genetic\n"},
		{name: "bad store provider", yaml: "store:\n  provider: postgres\n"},
		{name: "bad staleness", yaml: "embedding:\n  staleness: fortnightly\n"},
		{name: "bad log level", yaml: "logging:\n  level: verbose\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadWithFile(writeConfig(t, tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoadWithFile_MalformedYAML(t *testing.T) {
	_, err := LoadWithFile(writeConfig(t, "server: [not a map"))
	assert.Error(t, err)
}

func TestLoadWithFile_MissingExplicitFileIsIgnored(t *testing.T) {
	cfg, err := LoadWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err, "a missing config file falls back to defaults")
	assert.Equal(t, 8097, cfg.Server.Port)
}

func TestEnvTransformer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "SERVER_PORT", want: "server.port"},
		{in: "BANDIT_EXPLORATION_RATE", want: "bandit.exploration_rate"},
		{in: "DECISION_CACHE_TTL", want: "decision.cache_ttl"},
		{in: "EVENTS_NATS_URL", want: "events.nats_url"},
		{in: "PATH", want: ""},
		{in: "HOME", want: ""},
		{in: "SOME_RANDOM_VAR", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envTransformer(tt.in))
		})
	}
}

func TestDuration_TextRoundTrip(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("90s")))
	assert.Equal(t, 90*time.Second, d.Duration())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))
}
