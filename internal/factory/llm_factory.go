package factory

import (
	"fmt"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/utils"
	"go.uber.org/zap"
)

// LLMFactory creates spam classifiers backed by an LLM provider
type LLMFactory struct {
	cfg           *config.Config
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger, textProcessor *utils.TextProcessor) *LLMFactory {
	return &LLMFactory{
		cfg:           cfg,
		logger:        logger,
		textProcessor: textProcessor,
	}
}

// CreateSpamClassifier creates a spam classifier based on the configuration.
// Provider "none" returns a nil classifier and the email route runs on rules only.
// A provider that cannot be configured is logged and treated the same way.
func (f *LLMFactory) CreateSpamClassifier() (core.SpamClassifier, error) {
	provider := f.cfg.GetLLM().Provider

	var (
		classifier core.SpamClassifier
		err        error
	)
	switch provider {
	case "", "none":
		f.logger.Info("No spam classifier configured, using rules only")
		return nil, nil
	case "bedrock":
		classifier, err = NewBedrockFactory(f.cfg, f.logger, f.textProcessor).CreateSpamClassifier()
	case "gemini":
		classifier, err = NewGeminiFactory(f.cfg, f.logger, f.textProcessor).CreateSpamClassifier()
	case "openai":
		classifier, err = NewOpenAIFactory(f.cfg, f.logger, f.textProcessor).CreateSpamClassifier()
	default:
		err = fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		f.logger.Warn("Spam classifier unavailable, using rules only",
			zap.String("provider", provider),
			zap.Error(err))
		return nil, nil
	}
	return classifier, nil
}
