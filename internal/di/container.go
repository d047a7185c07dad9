package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/factory"
	"github.com/mikey/phishguard/internal/features"
	"github.com/mikey/phishguard/internal/logging"
	"github.com/mikey/phishguard/internal/metrics"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/mikey/phishguard/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register metrics
	if err := container.Provide(metrics.NewRecorder); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register email filter
	if err := container.Provide(factory.NewFilterFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.FilterFactory) (ports.EmailFilter, error) {
		return f.CreateEmailFilter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers the factories and the threat service shared by the
// daemon and the CLI. The container must already provide the configuration,
// the logger and the metrics recorder.
func provideCommon(container *dig.Container) error {
	// Register text processor used by the spam classifiers
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register factories
	if err := container.Provide(factory.NewLLMFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewHistoryFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewModelFactory); err != nil {
		return err
	}
	if err := container.Provide(factory.NewServiceFactory); err != nil {
		return err
	}

	// Register classifiers
	if err := container.Provide(func(f *factory.LLMFactory) (core.SpamClassifier, error) {
		return f.CreateSpamClassifier()
	}); err != nil {
		return err
	}
	if err := container.Provide(func(f *factory.ModelFactory) core.URLClassifier {
		return f.CreateURLClassifier()
	}); err != nil {
		return err
	}

	// Register domain age cache
	if err := container.Provide(func(f *factory.CacheFactory) core.DomainAgeCache {
		return f.CreateAgeCache()
	}); err != nil {
		return err
	}

	// Register history store
	if err := container.Provide(func(f *factory.HistoryFactory, logger *zap.Logger) (factory.HistoryStore, error) {
		store, err := f.CreateHistoryStore()
		if err != nil {
			return nil, err
		}
		logger.Info("History store ready", zap.String("type", f.Type()))
		return store, nil
	}); err != nil {
		return err
	}

	// Register feature extractor
	if err := container.Provide(func(f *factory.ServiceFactory) *features.Extractor {
		return f.CreateExtractor()
	}); err != nil {
		return err
	}

	// Register threat service
	if err := container.Provide(func(
		f *factory.ServiceFactory,
		extractor *features.Extractor,
		urlClassifier core.URLClassifier,
		spamClassifier core.SpamClassifier,
		history factory.HistoryStore,
	) *core.ThreatService {
		return f.CreateThreatService(extractor, urlClassifier, spamClassifier, history)
	}); err != nil {
		return err
	}

	return nil
}
