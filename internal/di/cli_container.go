package di

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/adapters/filter"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/metrics"
)

// CLI commands
const (
	CommandURL      = "url"
	CommandEmail    = "email"
	CommandFeatures = "features"
	CommandSMS      = "sms"
)

// ErrUsage is returned when the command line cannot be parsed
var ErrUsage = errors.New("usage: phishguard-check <url|email|sms|features> [flags] [args]")

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	Command string
	Args    []string

	// Classifier flags
	Provider        string
	ModelPath       string
	BedrockRegion   string
	BedrockModelID  string
	GeminiAPIKey    string
	GeminiModelName string
	OpenAIAPIKey    string
	OpenAIModelName string

	// Lookup flags
	NoWhois       bool
	NoHTTP        bool
	BlacklistPath string
	Workers       int

	// History flags
	Save        bool
	HistoryType string
	SQLitePath  string

	// Email input flags
	File        string
	From        string
	To          []string
	Subject     string
	Body        string
	SPF         string
	DKIM        string
	DMARC       string
	OriginIP    string
	Attachments []string

	// Feature export flags
	Input  string
	Output string

	Verbose    bool
	JSONLog    bool
	ConfigFile string

	flagSet *pflag.FlagSet
}

// ParseFlags parses the command and its flags from args (without the program name)
func ParseFlags(args []string) (*CLIFlags, error) {
	if len(args) == 0 {
		return nil, ErrUsage
	}

	flags := &CLIFlags{Command: args[0]}
	switch flags.Command {
	case CommandURL, CommandEmail, CommandSMS, CommandFeatures:
	default:
		return nil, fmt.Errorf("unknown command %q: %w", flags.Command, ErrUsage)
	}

	fs := pflag.NewFlagSet(flags.Command, pflag.ContinueOnError)

	fs.StringVar(&flags.Provider, "provider", "none", "Spam classifier provider (none, bedrock, gemini, openai)")
	fs.StringVar(&flags.ModelPath, "model", "", "Path to the URL classifier model file")
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.BedrockModelID, "bedrock-model", "anthropic.claude-v2", "Bedrock model ID")
	fs.StringVar(&flags.GeminiAPIKey, "gemini-api-key", "", "API key for Google Gemini")
	fs.StringVar(&flags.GeminiModelName, "gemini-model", "gemini-pro", "Gemini model name")
	fs.StringVar(&flags.OpenAIAPIKey, "openai-api-key", "", "API key for OpenAI")
	fs.StringVar(&flags.OpenAIModelName, "openai-model", "gpt-4", "OpenAI model name")

	fs.BoolVar(&flags.NoWhois, "no-whois", false, "Disable WHOIS domain age lookups")
	fs.BoolVar(&flags.NoHTTP, "no-http", false, "Disable the login form probe")
	fs.StringVar(&flags.BlacklistPath, "blacklist", "", "Path to a YAML or JSON blacklist file")
	fs.IntVar(&flags.Workers, "workers", 4, "Concurrent extractions for the features command")

	fs.BoolVar(&flags.Save, "save", false, "Write verdicts to the history store")
	fs.StringVar(&flags.HistoryType, "history", "none", "History store (none, sqlite, mysql)")
	fs.StringVar(&flags.SQLitePath, "sqlite-path", "./phishguard_history.db", "SQLite history database path")

	if flags.Command == CommandEmail {
		fs.StringVar(&flags.File, "file", "", "Input email file (use stdin if no other input is given)")
		fs.StringVar(&flags.From, "from", "", "Sender address")
		fs.StringSliceVar(&flags.To, "to", nil, "Recipient addresses")
		fs.StringVar(&flags.Subject, "subject", "", "Subject line")
		fs.StringVar(&flags.Body, "body", "", "Message body")
		fs.StringVar(&flags.SPF, "spf", "", "SPF result")
		fs.StringVar(&flags.DKIM, "dkim", "", "DKIM result")
		fs.StringVar(&flags.DMARC, "dmarc", "", "DMARC result")
		fs.StringVar(&flags.OriginIP, "origin-ip", "", "X-Originating-IP value")
		fs.StringSliceVar(&flags.Attachments, "attachment", nil, "Attachment file names")
	}
	if flags.Command == CommandSMS {
		fs.StringVar(&flags.File, "file", "", "File with the message text (use arguments or stdin if not specified)")
	}
	if flags.Command == CommandFeatures {
		fs.StringVar(&flags.Input, "input", "", "File with one URL per line (use arguments if not specified)")
		fs.StringVar(&flags.Output, "output", "", "CSV output file (use stdout if not specified)")
	}

	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (flags override its values)")

	if err := fs.Parse(args[1:]); err != nil {
		return nil, err
	}
	flags.Args = fs.Args()
	flags.flagSet = fs

	return flags, nil
}

// HasInlineEmail reports whether the email was given through flags
func (f *CLIFlags) HasInlineEmail() bool {
	return f.From != "" || f.Subject != "" || f.Body != ""
}

// InlineEmail builds an email from the input flags
func (f *CLIFlags) InlineEmail() *core.Email {
	return &core.Email{
		From:        f.From,
		To:          f.To,
		Subject:     f.Subject,
		Body:        f.Body,
		Headers:     make(map[string][]string),
		Attachments: f.Attachments,
		SPFStatus:   f.SPF,
		DKIMStatus:  f.DKIM,
		DMARCStatus: f.DMARC,
		OriginIP:    f.OriginIP,
	}
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := createConfigFromFlags(flags)
		if err != nil {
			return nil, err
		}
		if flags.ConfigFile != "" {
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	// No metrics endpoint for the CLI
	if err := container.Provide(func() *metrics.Recorder { return nil }); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register CLI filter
	if err := container.Provide(func(service *core.ThreatService, logger *zap.Logger, flags *CLIFlags) (*filter.CliFilter, error) {
		return filter.NewCliFilter(service, logger, flags.Verbose, flags.Save)
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// createConfigFromFlags creates a configuration from the config file, if
// any, with the command line flags layered on top
func createConfigFromFlags(flags *CLIFlags) (*config.Config, error) {
	var cfg *config.Config
	if flags.ConfigFile != "" {
		var err error
		cfg, err = config.NewFromFile(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.NewFromViper(config.NewEmptyViper())
	}

	v := cfg.GetViper()

	// Explicit flags override the file; untouched flags keep the file or default values
	bindings := map[string]string{
		"llm.provider":         "provider",
		"model.path":           "model",
		"bedrock.region":       "bedrock-region",
		"bedrock.model_id":     "bedrock-model",
		"gemini.api_key":       "gemini-api-key",
		"gemini.model_name":    "gemini-model",
		"openai.api_key":       "openai-api-key",
		"openai.model_name":    "openai-model",
		"lists.blacklist_path": "blacklist",
		"batch.workers":        "workers",
		"history.type":         "history",
		"history.sqlite_path":  "sqlite-path",
	}
	if flags.flagSet != nil {
		for key, name := range bindings {
			if flag := flags.flagSet.Lookup(name); flag != nil && flag.Changed {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	if flags.NoWhois {
		v.Set("features.whois_enabled", false)
	}
	if flags.NoHTTP {
		v.Set("features.http_enabled", false)
	}

	// Set some cli specific settings
	v.Set("server.filter_type", "cli")
	v.Set("cli.verbose", flags.Verbose)
	v.Set("cli.save", flags.Save)

	return cfg, nil
}
