// Package config loads application configuration from file and environment.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Apollo     ProviderConfig   `yaml:"apollo" mapstructure:"apollo"`
	Snov       SnovConfig       `yaml:"snov" mapstructure:"snov"`
	Explorium  ProviderConfig   `yaml:"explorium" mapstructure:"explorium"`
	Apify      ApifyConfig      `yaml:"apify" mapstructure:"apify"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Session    SessionConfig    `yaml:"session" mapstructure:"session"`
	SkipList   SkipListConfig   `yaml:"skip_list" mapstructure:"skip_list"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ProviderConfig holds key, base URL, and request pacing for a simple
// API provider.
type ProviderConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// SnovConfig holds Snov OAuth client credentials.
type SnovConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// ApifyConfig holds Apify actor settings.
type ApifyConfig struct {
	Token      string `yaml:"token" mapstructure:"token"`
	BaseURL    string `yaml:"base_url" mapstructure:"base_url"`
	PostsActor string `yaml:"posts_actor" mapstructure:"posts_actor"`
	PostsLimit int    `yaml:"posts_limit" mapstructure:"posts_limit"`
}

// PerplexityConfig holds Perplexity API settings.
type PerplexityConfig struct {
	Key           string `yaml:"key" mapstructure:"key"`
	BaseURL       string `yaml:"base_url" mapstructure:"base_url"`
	Model         string `yaml:"model" mapstructure:"model"`
	RecencyFilter string `yaml:"recency_filter" mapstructure:"recency_filter"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// SessionConfig tunes the enrichment scheduler.
type SessionConfig struct {
	Concurrency    int `yaml:"concurrency" mapstructure:"concurrency"`
	RowTimeoutSecs int `yaml:"row_timeout_secs" mapstructure:"row_timeout_secs"`
}

// SkipListConfig points at an optional skip-domain overlay file.
type SkipListConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "enrich.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("session.concurrency", 10)
	v.SetDefault("session.row_timeout_secs", 120)
	v.SetDefault("apollo.base_url", "https://api.apollo.io")
	v.SetDefault("apollo.rate_limit", 5)
	v.SetDefault("snov.base_url", "https://api.snov.io")
	v.SetDefault("explorium.base_url", "https://api.explorium.ai")
	v.SetDefault("explorium.rate_limit", 5)
	v.SetDefault("apify.base_url", "https://api.apify.com")
	v.SetDefault("apify.posts_actor", "apimaestro~linkedin-company-posts")
	v.SetDefault("apify.posts_limit", 10)
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("perplexity.recency_filter", "year")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
