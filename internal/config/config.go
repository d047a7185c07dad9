package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/whitelist"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishguard/")
	v.AddConfigPath("$HOME/.phishguard")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromFile creates a configuration instance from an explicit config file
func NewFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHGUARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Feature extraction defaults
	v.SetDefault("features.whois_enabled", true)
	v.SetDefault("features.whois_timeout", "5s")
	v.SetDefault("features.http_enabled", true)
	v.SetDefault("features.http_timeout", "5s")
	v.SetDefault("features.http_rate", 5.0)
	v.SetDefault("features.http_burst", 5)
	v.SetDefault("features.http_max_body_bytes", 1<<20)
	v.SetDefault("features.user_agent", "")

	// Domain age cache defaults
	v.SetDefault("cache.capacity", 1024)

	// List defaults
	v.SetDefault("lists.blacklist_path", "")
	v.SetDefault("lists.safe_domains", whitelist.DefaultSafeDomains)
	v.SetDefault("lists.trusted_brands", whitelist.DefaultTrustedBrands)

	// Scoring defaults
	weights := core.DefaultRuleWeights()
	v.SetDefault("scoring.weights.suspicious_domain", weights.SuspiciousDomain)
	v.SetDefault("scoring.weights.typo_domain", weights.TypoDomain)
	v.SetDefault("scoring.weights.spam_keyword", weights.SpamKeyword)
	v.SetDefault("scoring.weights.phishing_url", weights.PhishingURL)
	v.SetDefault("scoring.weights.malicious_attachment", weights.MaliciousAttachment)
	v.SetDefault("scoring.weights.spf_fail", weights.SPFFail)
	v.SetDefault("scoring.weights.dkim_fail", weights.DKIMFail)
	v.SetDefault("scoring.weights.dmarc_fail", weights.DMARCFail)
	v.SetDefault("scoring.rule_weight", 0.85)
	v.SetDefault("scoring.model_weight", 0.15)
	v.SetDefault("scoring.spam_threshold", 7.0)
	v.SetDefault("scoring.ham_threshold", 4.5)
	v.SetDefault("scoring.young_domain_days", 30)

	// URL classifier defaults
	v.SetDefault("model.path", "/etc/phishguard/url_model.yaml")

	// LLM provider defaults
	v.SetDefault("llm.provider", "none")

	// Server defaults
	v.SetDefault("server.filter_type", "postfix")
	v.SetDefault("server.listen_address", "0.0.0.0:10025")
	v.SetDefault("server.block_spam", false)
	v.SetDefault("server.timeout", "30s")
	v.SetDefault("server.headers.label", "X-Threat-Label")
	v.SetDefault("server.headers.score", "X-Threat-Score")
	v.SetDefault("server.headers.reason", "X-Threat-Reason")
	v.SetDefault("server.postfix.enabled", true)
	v.SetDefault("server.postfix.address", "127.0.0.1")
	v.SetDefault("server.postfix.port", 10026)
	v.SetDefault("server.modify_subject", false)
	v.SetDefault("server.subject_prefix", "[**SPAM**] ")
	v.SetDefault("server.save_history", false)

	// Filter defaults
	v.SetDefault("filter.verify_dkim", false)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)
	v.SetDefault("bedrock.top_p", 0.9)
	v.SetDefault("bedrock.max_body_size", 4096)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)
	v.SetDefault("gemini.top_p", 0.9)
	v.SetDefault("gemini.max_body_size", 4096)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.top_p", 0.9)
	v.SetDefault("openai.max_body_size", 4096)

	// History defaults
	v.SetDefault("history.type", "none")
	v.SetDefault("history.retention", "2160h")
	v.SetDefault("history.cleanup_frequency", "1h")
	v.SetDefault("history.sqlite_path", "/data/phishguard_history.db")
	v.SetDefault("history.mysql_dsn", "user:password@tcp(localhost:3306)/phishguard")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.listen_address", "127.0.0.1:9464")

	// Batch defaults
	v.SetDefault("batch.workers", 4)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetStringMapString gets a string map from the configuration
func (c *Config) GetStringMapString(key string) map[string]string {
	return c.v.GetStringMapString(key)
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
