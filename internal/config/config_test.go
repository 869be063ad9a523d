package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.API.Port)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 4, cfg.Workflow.Workers)
	assert.Equal(t, "@hourly", cfg.Orchestrator.StrategySchedule)
	assert.Equal(t, "@every 1m", cfg.Orchestrator.SweepSchedule)
}

func TestLoadOverlaysFileOnDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  port: 9090
store:
  backend: neo4j
  neo4j:
    uri: bolt://graph:7687
    username: neo4j
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, "neo4j", cfg.Store.Backend)
	assert.Equal(t, "bolt://graph:7687", cfg.Store.Neo4j.URI)
	// Fields the file does not mention keep their defaults.
	assert.Equal(t, "0.0.0.0", cfg.API.Host)
}

func TestLoadHonorsConfigPathEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  port: 7000\n"), 0o644))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load("ignored.yaml")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.API.Port)
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.API.Port = 0 }},
		{"unknown backend", func(c *Config) { c.Store.Backend = "dynamo" }},
		{"neo4j without uri", func(c *Config) { c.Store.Backend = "neo4j"; c.Store.Neo4j.URI = "" }},
		{"history without dsn", func(c *Config) { c.History.Enabled = true }},
		{"empty sweep schedule", func(c *Config) { c.Orchestrator.SweepSchedule = "" }},
		{"billing without key", func(c *Config) { c.Billing.Enabled = true }},
		{"notify without channel", func(c *Config) { c.Notify.Enabled = true; c.Notify.Token = "x" }},
		{"insights without key", func(c *Config) { c.Insights.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
