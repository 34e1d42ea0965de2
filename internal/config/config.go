// Package config loads application configuration from config.yaml and the
// environment, and initializes the global logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Sources   []SourceConfig  `yaml:"sources" mapstructure:"sources"`
	Session   SessionConfig   `yaml:"session" mapstructure:"session"`
	Normalize NormalizeConfig `yaml:"normalize" mapstructure:"normalize"`
	Merge     MergeConfig     `yaml:"merge" mapstructure:"merge"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Snov      SnovConfig      `yaml:"snov" mapstructure:"snov"`
	Hunter    HunterConfig    `yaml:"hunter" mapstructure:"hunter"`
	Numverify NumverifyConfig `yaml:"numverify" mapstructure:"numverify"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// HistoryConfig configures the checkpoint/seen-item store backend.
type HistoryConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite | postgres
	Path        string `yaml:"path" mapstructure:"path"`     // sqlite file
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SourceConfig configures one lead source connector.
type SourceConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Kind     string `yaml:"kind" mapstructure:"kind"` // httpapi | csvexport
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	APIKey   string `yaml:"api_key" mapstructure:"api_key"`
	Path     string `yaml:"path" mapstructure:"path"` // csvexport file
	PageSize int    `yaml:"page_size" mapstructure:"page_size"`
}

// SessionConfig configures the acquisition session controller.
type SessionConfig struct {
	MaxPages             int           `yaml:"max_pages" mapstructure:"max_pages"`
	MaxItems             int           `yaml:"max_items" mapstructure:"max_items"`
	ItemRetries          int           `yaml:"item_retries" mapstructure:"item_retries"`
	ItemRetryDelay       time.Duration `yaml:"item_retry_delay" mapstructure:"item_retry_delay"`
	RequestDelay         time.Duration `yaml:"request_delay" mapstructure:"request_delay"`
	RequestJitter        time.Duration `yaml:"request_jitter" mapstructure:"request_jitter"`
	InterventionTimeout  time.Duration `yaml:"intervention_timeout" mapstructure:"intervention_timeout"`
	Resume               string        `yaml:"resume" mapstructure:"resume"` // auto | prompt | restart
	SkipSeen             bool          `yaml:"skip_seen" mapstructure:"skip_seen"`
	WorkerStagger        time.Duration `yaml:"worker_stagger" mapstructure:"worker_stagger"`
	FetchDetails         bool          `yaml:"fetch_details" mapstructure:"fetch_details"`
	ConnectorTimeoutSecs int           `yaml:"connector_timeout_secs" mapstructure:"connector_timeout_secs"`
}

// NormalizeConfig configures the field normalizer.
type NormalizeConfig struct {
	MappingFile        string   `yaml:"mapping_file" mapstructure:"mapping_file"`
	ExtraSuffixes      []string `yaml:"extra_suffixes" mapstructure:"extra_suffixes"`
	FilterGenericEmail bool     `yaml:"filter_generic_email" mapstructure:"filter_generic_email"`
	RequireReachable   bool     `yaml:"require_reachable" mapstructure:"require_reachable"`
	LLMRoleFallback    bool     `yaml:"llm_role_fallback" mapstructure:"llm_role_fallback"`
}

// MergeConfig configures cross-source merging.
type MergeConfig struct {
	Priority []string `yaml:"priority" mapstructure:"priority"`
}

// EnrichConfig configures post-merge enrichment.
type EnrichConfig struct {
	FindEmails     bool `yaml:"find_emails" mapstructure:"find_emails"`
	VerifyEmails   bool `yaml:"verify_emails" mapstructure:"verify_emails"`
	ValidatePhones bool `yaml:"validate_phones" mapstructure:"validate_phones"`
	MinEmailScore  int  `yaml:"min_email_score" mapstructure:"min_email_score"`
}

// SnovConfig holds Snov.io API credentials.
type SnovConfig struct {
	ClientID     string `yaml:"client_id" mapstructure:"client_id"`
	ClientSecret string `yaml:"client_secret" mapstructure:"client_secret"`
	BaseURL      string `yaml:"base_url" mapstructure:"base_url"`
}

// HunterConfig holds Hunter.io API settings.
type HunterConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// NumverifyConfig holds phone validation API settings.
type NumverifyConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// AnthropicConfig holds Anthropic API settings for the role-extraction
// fallback.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// OutputConfig configures the merged-table sink.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
	Format string `yaml:"format" mapstructure:"format"` // csv | xlsx
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("history.driver", "sqlite")
	v.SetDefault("history.path", "leadgen.db")
	v.SetDefault("session.max_pages", 20)
	v.SetDefault("session.max_items", 500)
	v.SetDefault("session.item_retries", 2)
	v.SetDefault("session.item_retry_delay", "3s")
	v.SetDefault("session.request_delay", "5s")
	v.SetDefault("session.request_jitter", "2s")
	v.SetDefault("session.intervention_timeout", "3m")
	v.SetDefault("session.resume", "auto")
	v.SetDefault("session.skip_seen", true)
	v.SetDefault("session.worker_stagger", "10s")
	v.SetDefault("session.fetch_details", true)
	v.SetDefault("session.connector_timeout_secs", 30)
	v.SetDefault("normalize.filter_generic_email", false)
	v.SetDefault("normalize.require_reachable", false)
	v.SetDefault("normalize.llm_role_fallback", false)
	v.SetDefault("enrich.min_email_score", 50)
	v.SetDefault("snov.base_url", "https://api.snov.io")
	v.SetDefault("hunter.base_url", "https://api.hunter.io/v2")
	v.SetDefault("numverify.base_url", "https://apilayer.net/api")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("output.path", "leads.csv")
	v.SetDefault("output.format", "csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
