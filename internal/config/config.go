// Package config loads service configuration from BUDGET_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every configuration variable.
const EnvPrefix = "BUDGET_"

// Store backends.
const (
	StoreMemory = "memory"
	StoreBolt   = "bolt"
)

// AI providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderNone      = "none"
)

// Config holds the application configuration.
type Config struct {
	// Port is the HTTP listen port.
	// Environment variable: BUDGET_PORT
	Port string `koanf:"port"`

	// LogLevel is one of debug, info, warn, error.
	// Environment variable: BUDGET_LOG_LEVEL
	LogLevel string `koanf:"log_level"`

	// Store selects the record store backend: memory or bolt.
	// Environment variable: BUDGET_STORE
	Store string `koanf:"store"`

	// BoltPath is the database file used by the bolt store.
	// Environment variable: BUDGET_BOLT_PATH
	BoltPath string `koanf:"bolt_path"`

	// DefaultUser owns requests that carry no X-User-ID header.
	// Environment variable: BUDGET_DEFAULT_USER
	DefaultUser string `koanf:"default_user"`

	// AIProvider selects the language model backend: gemini, openai, anthropic or none.
	// Environment variable: BUDGET_AI_PROVIDER
	AIProvider string `koanf:"ai_provider"`

	// AIAPIKey authenticates against the provider. When empty the provider's
	// conventional variable (GOOGLE_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY) is used.
	// Environment variable: BUDGET_AI_API_KEY
	AIAPIKey string `koanf:"ai_api_key"`

	// AIModel overrides the provider's default model.
	// Environment variable: BUDGET_AI_MODEL
	AIModel string `koanf:"ai_model"`

	// AITimeout bounds a single model call.
	// Environment variable: BUDGET_AI_TIMEOUT
	AITimeout time.Duration `koanf:"ai_timeout"`

	// BigQueryProject enables transaction export when set.
	// Environment variable: BUDGET_BQ_PROJECT
	BigQueryProject string `koanf:"bq_project"`

	// BigQueryDataset holds the exported transactions table.
	// Environment variable: BUDGET_BQ_DATASET
	BigQueryDataset string `koanf:"bq_dataset"`

	// BackupBucket is the GCS bucket receiving bolt snapshots.
	// Environment variable: BUDGET_BACKUP_BUCKET
	BackupBucket string `koanf:"backup_bucket"`
}

// Default returns the configuration used when no variables are set.
func Default() Config {
	return Config{
		Port:            "8080",
		LogLevel:        "info",
		Store:           StoreMemory,
		BoltPath:        "budget.db",
		DefaultUser:     "demo",
		AIProvider:      ProviderGemini,
		AITimeout:       10 * time.Second,
		BigQueryDataset: "finance",
	}
}

// Load reads BUDGET_* variables from the environment over the defaults and
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")
	provider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("Load: reading environment: %w", err)
	}

	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf", FlatPaths: true}); err != nil {
		return nil, fmt.Errorf("Load: unmarshal: %w", err)
	}

	cfg.Store = strings.ToLower(cfg.Store)
	cfg.AIProvider = strings.ToLower(cfg.AIProvider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("config: port is required")
	}
	switch c.Store {
	case StoreMemory:
	case StoreBolt:
		if c.BoltPath == "" {
			return fmt.Errorf("config: bolt_path is required for the bolt store")
		}
	default:
		return fmt.Errorf("config: unknown store %q", c.Store)
	}
	switch c.AIProvider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderNone:
	default:
		return fmt.Errorf("config: unknown ai_provider %q", c.AIProvider)
	}
	if c.AITimeout <= 0 {
		return fmt.Errorf("config: ai_timeout must be positive, got %s", c.AITimeout)
	}
	if c.DefaultUser == "" {
		return fmt.Errorf("config: default_user is required")
	}
	return nil
}

// APIKey returns the configured key or the provider's conventional variable.
func (c *Config) APIKey() string {
	if c.AIAPIKey != "" {
		return c.AIAPIKey
	}
	switch c.AIProvider {
	case ProviderGemini:
		if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GEMINI_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return ""
}

// ExportEnabled reports whether transactions are mirrored to BigQuery.
func (c *Config) ExportEnabled() bool {
	return c.BigQueryProject != ""
}
