package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/plateiq/internal/events"
	"github.com/plateiq/internal/orchestrator"
	"github.com/plateiq/internal/store"
	"github.com/plateiq/internal/workflow"
)

// Config represents the overall application configuration
type Config struct {
	API          APIConfig                 `yaml:"api"`
	Store        StoreConfig               `yaml:"store"`
	History      HistoryConfig             `yaml:"history"`
	Kafka        KafkaConfig               `yaml:"kafka"`
	Workflow     workflow.DispatcherConfig `yaml:"workflow"`
	Orchestrator orchestrator.Config       `yaml:"orchestrator"`
	Billing      BillingConfig             `yaml:"billing"`
	Notify       NotifyConfig              `yaml:"notify"`
	Insights     InsightsConfig            `yaml:"insights"`
}

// APIConfig represents HTTP gateway configuration
type APIConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	EnableCORS     bool          `yaml:"enable_cors"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
}

// StoreConfig selects and configures the profile store backend
type StoreConfig struct {
	Backend string            `yaml:"backend"` // memory or neo4j
	Neo4j   store.Neo4jConfig `yaml:"neo4j"`
}

// HistoryConfig configures the Postgres health-history store
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
}

// KafkaConfig configures the Kafka event mirror
type KafkaConfig struct {
	Enabled bool               `yaml:"enabled"`
	Mirror  events.KafkaConfig `yaml:",inline"`
}

// BillingConfig configures the Stripe subscription resolver
type BillingConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
}

// NotifyConfig configures the Slack alert notifier
type NotifyConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// InsightsConfig configures the OpenAI recommendation digest
type InsightsConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		API: APIConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
			EnableCORS:   true,
		},
		Store: StoreConfig{
			Backend: "memory",
			Neo4j:   store.DefaultNeo4jConfig(),
		},
		Kafka: KafkaConfig{
			Mirror: events.DefaultKafkaConfig(),
		},
		Workflow:     workflow.DefaultDispatcherConfig(),
		Orchestrator: orchestrator.DefaultConfig(),
		Insights: InsightsConfig{
			Model: "gpt-4",
		},
	}
}

// Load reads configuration from CONFIG_PATH or the given path, falling back
// to defaults when neither is set. File values overlay the defaults.
func Load(path string) (*Config, error) {
	if env := os.Getenv("CONFIG_PATH"); env != "" {
		path = env
	}

	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that yaml decoding cannot.
func (c *Config) Validate() error {
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api config error: invalid port %d", c.API.Port)
	}
	switch c.Store.Backend {
	case "memory":
	case "neo4j":
		if c.Store.Neo4j.URI == "" {
			return fmt.Errorf("store config error: neo4j backend requires a uri")
		}
	default:
		return fmt.Errorf("store config error: unknown backend %q", c.Store.Backend)
	}
	if c.History.Enabled && c.History.DSN == "" {
		return fmt.Errorf("history config error: enabled without a dsn")
	}
	if c.Kafka.Enabled && len(c.Kafka.Mirror.Brokers) == 0 {
		return fmt.Errorf("kafka config error: enabled without brokers")
	}
	if c.Orchestrator.StrategySchedule == "" || c.Orchestrator.SweepSchedule == "" {
		return fmt.Errorf("orchestrator config error: schedules must not be empty")
	}
	if c.Billing.Enabled && c.Billing.APIKey == "" {
		return fmt.Errorf("billing config error: enabled without an api key")
	}
	if c.Notify.Enabled && (c.Notify.Token == "" || c.Notify.Channel == "") {
		return fmt.Errorf("notify config error: enabled without token and channel")
	}
	if c.Insights.Enabled && c.Insights.APIKey == "" {
		return fmt.Errorf("insights config error: enabled without an api key")
	}
	return nil
}
