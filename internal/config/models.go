package config

import (
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/whitelist"
)

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
	MaxBodySize int
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
		MaxBodySize: c.GetInt("bedrock.max_body_size"),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
		MaxBodySize: c.GetInt("gemini.max_body_size"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
		MaxBodySize: c.GetInt("openai.max_body_size"),
	}
}

// FeaturesConfig controls the network lookups of feature extraction
type FeaturesConfig struct {
	WhoisEnabled     bool
	WhoisTimeout     time.Duration
	HTTPEnabled      bool
	HTTPTimeout      time.Duration
	HTTPRate         float64
	HTTPBurst        int
	HTTPMaxBodyBytes int64
	UserAgent        string
	CacheCapacity    int
	BatchWorkers     int
}

// ListsConfig holds the trusted and blocked domain tables
type ListsConfig struct {
	BlacklistPath string
	SafeDomains   []string
	TrustedBrands map[string]string
}

// ScoringConfig holds the email rule weights and fusion thresholds
type ScoringConfig struct {
	Weights         core.RuleWeights
	RuleWeight      float64
	ModelWeight     float64
	SpamThreshold   float64
	HamThreshold    float64
	YoungDomainDays int
}

// HistoryConfig selects and configures the history store
type HistoryConfig struct {
	Type             string
	SQLitePath       string
	MySQLDSN         string
	Retention        time.Duration
	CleanupFrequency time.Duration
}

// MetricsConfig controls the metrics endpoint
type MetricsConfig struct {
	Enabled       bool
	ListenAddress string
}

// ServerConfig holds the content filter settings
type ServerConfig struct {
	FilterType     string
	ListenAddress  string
	BlockSpam      bool
	Timeout        time.Duration
	LabelHeader    string
	ScoreHeader    string
	ReasonHeader   string
	PostfixEnabled bool
	PostfixAddress string
	PostfixPort    int
	ModifySubject  bool
	SubjectPrefix  string
	SaveHistory    bool
	VerifyDKIM     bool
}

// GetFeatures returns the feature extraction configuration
func (c *Config) GetFeatures() FeaturesConfig {
	return FeaturesConfig{
		WhoisEnabled:     c.GetBool("features.whois_enabled"),
		WhoisTimeout:     c.durationOr("features.whois_timeout", 5*time.Second),
		HTTPEnabled:      c.GetBool("features.http_enabled"),
		HTTPTimeout:      c.durationOr("features.http_timeout", 5*time.Second),
		HTTPRate:         c.GetFloat64("features.http_rate"),
		HTTPBurst:        c.GetInt("features.http_burst"),
		HTTPMaxBodyBytes: c.v.GetInt64("features.http_max_body_bytes"),
		UserAgent:        c.GetString("features.user_agent"),
		CacheCapacity:    c.GetInt("cache.capacity"),
		BatchWorkers:     c.GetInt("batch.workers"),
	}
}

// GetLists returns the domain list configuration. Empty tables fall back to the built-in defaults.
func (c *Config) GetLists() ListsConfig {
	lists := ListsConfig{
		BlacklistPath: c.GetString("lists.blacklist_path"),
		SafeDomains:   c.GetStringSlice("lists.safe_domains"),
		TrustedBrands: c.GetStringMapString("lists.trusted_brands"),
	}
	if len(lists.SafeDomains) == 0 {
		lists.SafeDomains = whitelist.DefaultSafeDomains
	}
	if len(lists.TrustedBrands) == 0 {
		lists.TrustedBrands = whitelist.DefaultTrustedBrands
	}
	return lists
}

// GetScoring returns the scoring configuration
func (c *Config) GetScoring() ScoringConfig {
	return ScoringConfig{
		Weights: core.RuleWeights{
			SuspiciousDomain:    c.GetFloat64("scoring.weights.suspicious_domain"),
			TypoDomain:          c.GetFloat64("scoring.weights.typo_domain"),
			SpamKeyword:         c.GetFloat64("scoring.weights.spam_keyword"),
			PhishingURL:         c.GetFloat64("scoring.weights.phishing_url"),
			MaliciousAttachment: c.GetFloat64("scoring.weights.malicious_attachment"),
			SPFFail:             c.GetFloat64("scoring.weights.spf_fail"),
			DKIMFail:            c.GetFloat64("scoring.weights.dkim_fail"),
			DMARCFail:           c.GetFloat64("scoring.weights.dmarc_fail"),
		},
		RuleWeight:      c.GetFloat64("scoring.rule_weight"),
		ModelWeight:     c.GetFloat64("scoring.model_weight"),
		SpamThreshold:   c.GetFloat64("scoring.spam_threshold"),
		HamThreshold:    c.GetFloat64("scoring.ham_threshold"),
		YoungDomainDays: c.GetInt("scoring.young_domain_days"),
	}
}

// GetHistory returns the history store configuration
func (c *Config) GetHistory() HistoryConfig {
	return HistoryConfig{
		Type:             c.GetString("history.type"),
		SQLitePath:       c.GetString("history.sqlite_path"),
		MySQLDSN:         c.GetString("history.mysql_dsn"),
		Retention:        c.retentionOr("history.retention", 90*24*time.Hour),
		CleanupFrequency: c.durationOr("history.cleanup_frequency", time.Hour),
	}
}

// LoggingConfig represents the logger configuration
type LoggingConfig struct {
	Level  string
	Format string
	Output string
}

// GetLogging returns the logger configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
		Output: c.GetString("logging.output"),
	}
}

// GetMetrics returns the metrics configuration
func (c *Config) GetMetrics() MetricsConfig {
	return MetricsConfig{
		Enabled:       c.GetBool("metrics.enabled"),
		ListenAddress: c.GetString("metrics.listen_address"),
	}
}

// GetServer returns the content filter configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:     c.GetString("server.filter_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		BlockSpam:      c.GetBool("server.block_spam"),
		Timeout:        c.durationOr("server.timeout", 30*time.Second),
		LabelHeader:    c.GetString("server.headers.label"),
		ScoreHeader:    c.GetString("server.headers.score"),
		ReasonHeader:   c.GetString("server.headers.reason"),
		PostfixEnabled: c.GetBool("server.postfix.enabled"),
		PostfixAddress: c.GetString("server.postfix.address"),
		PostfixPort:    c.GetInt("server.postfix.port"),
		ModifySubject:  c.GetBool("server.modify_subject"),
		SubjectPrefix:  c.GetString("server.subject_prefix"),
		SaveHistory:    c.GetBool("server.save_history"),
		VerifyDKIM:     c.GetBool("filter.verify_dkim"),
	}
}

// durationOr parses key as a duration, returning fallback when it is missing or malformed
func (c *Config) durationOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// retentionOr is durationOr with an explicit zero kept, meaning rows are never pruned
func (c *Config) retentionOr(key string, fallback time.Duration) time.Duration {
	d, err := c.GetDuration(key)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
