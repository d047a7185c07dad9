package factory

import (
	"errors"

	"github.com/mikey/phishguard/internal/adapters/model"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
)

// ModelFactory loads the URL classifier
type ModelFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewModelFactory creates a new model factory
func NewModelFactory(cfg *config.Config, logger *zap.Logger) *ModelFactory {
	return &ModelFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateURLClassifier loads the configured model. A missing or broken model
// file yields a nil classifier and the URL route runs on rules only.
func (f *ModelFactory) CreateURLClassifier() core.URLClassifier {
	path := f.cfg.GetString("model.path")

	m, err := model.LoadLinearModel(path, f.logger)
	if err != nil {
		if errors.Is(err, model.ErrModelUnavailable) {
			f.logger.Warn("URL classifier unavailable, using rules only", zap.String("path", path))
		} else {
			f.logger.Error("Failed to load URL classifier, using rules only", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	return m
}
