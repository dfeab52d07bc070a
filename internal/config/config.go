// Package config loads process configuration from file and environment and
// initializes the global logger.
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
	Reader    ReaderConfig    `yaml:"reader" mapstructure:"reader"`
	Search    SearchConfig    `yaml:"search" mapstructure:"search"`
	Browser   BrowserConfig   `yaml:"browser" mapstructure:"browser"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Fetch     FetchConfig     `yaml:"fetch" mapstructure:"fetch"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// ReaderConfig holds reader API settings for the plain fetch path.
type ReaderConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SearchConfig holds search API settings.
type SearchConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// BrowserConfig configures the rendering-capable fetch path.
type BrowserConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ExecPath    string `yaml:"exec_path" mapstructure:"exec_path"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// AnthropicConfig holds extraction model settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// FetchConfig configures cross-cutting fetch behavior.
type FetchConfig struct {
	RatePerDomain   float64 `yaml:"rate_per_domain" mapstructure:"rate_per_domain"`
	Burst           int     `yaml:"burst" mapstructure:"burst"`
	CacheTTLMinutes int     `yaml:"cache_ttl_minutes" mapstructure:"cache_ttl_minutes"`
	RespectRobots   bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	UserAgent       string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// EnrichConfig points at the optional rubric/template override file.
type EnrichConfig struct {
	ConfigPath    string `yaml:"config_path" mapstructure:"config_path"`
	SearchResults int    `yaml:"search_results" mapstructure:"search_results"`
}

// StoreConfig configures the run-history database.
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentProducts int `yaml:"max_concurrent_products" mapstructure:"max_concurrent_products"`
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
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("reader.base_url", "https://r.jina.ai")
	v.SetDefault("search.base_url", "https://s.jina.ai")
	v.SetDefault("browser.enabled", true)
	v.SetDefault("browser.timeout_secs", 45)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("fetch.rate_per_domain", 1.0)
	v.SetDefault("fetch.burst", 2)
	v.SetDefault("fetch.cache_ttl_minutes", 15)
	v.SetDefault("fetch.respect_robots", true)
	v.SetDefault("fetch.user_agent", "medalline-enrich/1.0")
	v.SetDefault("enrich.search_results", 5)
	v.SetDefault("store.path", "enrich.db")
	v.SetDefault("batch.max_concurrent_products", 4)

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
