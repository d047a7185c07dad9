package factory

import (
	"github.com/mikey/phishguard/internal/blacklist"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/features"
	"github.com/mikey/phishguard/internal/metrics"
	"github.com/mikey/phishguard/internal/probe"
	"github.com/mikey/phishguard/internal/scoring"
	"github.com/mikey/phishguard/internal/typo"
	"github.com/mikey/phishguard/internal/whitelist"
	"github.com/mikey/phishguard/internal/whois"
	"go.uber.org/zap"
)

// ServiceFactory assembles the feature pipeline and the threat service
type ServiceFactory struct {
	cfg      *config.Config
	logger   *zap.Logger
	ageCache core.DomainAgeCache
	recorder *metrics.Recorder
}

// NewServiceFactory creates a new service factory. recorder may be nil.
func NewServiceFactory(cfg *config.Config, logger *zap.Logger, ageCache core.DomainAgeCache, recorder *metrics.Recorder) *ServiceFactory {
	return &ServiceFactory{
		cfg:      cfg,
		logger:   logger,
		ageCache: ageCache,
		recorder: recorder,
	}
}

// CreateExtractor builds the URL feature extractor with its WHOIS and HTTP collaborators
func (f *ServiceFactory) CreateExtractor() *features.Extractor {
	featuresCfg := f.cfg.GetFeatures()

	resolver := whois.NewResolver(
		whois.NewLikexianClient(featuresCfg.WhoisTimeout),
		f.ageCache,
		featuresCfg.WhoisEnabled,
		featuresCfg.WhoisTimeout,
		f.lookupRecorder(),
		f.logger,
	)

	prober := probe.New(probe.Config{
		Enabled:      featuresCfg.HTTPEnabled,
		Timeout:      featuresCfg.HTTPTimeout,
		RatePerSec:   featuresCfg.HTTPRate,
		Burst:        featuresCfg.HTTPBurst,
		MaxBodyBytes: featuresCfg.HTTPMaxBodyBytes,
		UserAgent:    featuresCfg.UserAgent,
	}, f.lookupRecorder(), f.logger)

	brands := whitelist.NewBrandTable(f.cfg.GetLists().TrustedBrands)

	f.logger.Info("Feature extractor configured",
		zap.Bool("whois_enabled", featuresCfg.WhoisEnabled),
		zap.Bool("http_enabled", featuresCfg.HTTPEnabled),
		zap.Int("trusted_brands", brands.Len()))

	return features.NewExtractor(resolver, prober, brands, f.logger)
}

// CreateThreatService builds the threat service. Either classifier and the
// history repository may be nil.
func (f *ServiceFactory) CreateThreatService(
	extractor *features.Extractor,
	urlClassifier core.URLClassifier,
	spamClassifier core.SpamClassifier,
	history core.HistoryRepository,
) *core.ThreatService {
	lists := f.cfg.GetLists()
	scoringCfg := f.cfg.GetScoring()

	safeDomains := whitelist.NewChecker(lists.SafeDomains, f.logger)
	brands := whitelist.NewBrandTable(lists.TrustedBrands)
	blocked := blacklist.Load(lists.BlacklistPath, f.logger)

	// typo candidates are the safe domains plus every brand's official domain
	var legitimate []string
	legitimate = append(legitimate, safeDomains.Domains()...)
	legitimate = append(legitimate, brands.OfficialDomains()...)

	analyzer := scoring.NewEmailAnalyzer(
		blocked,
		typo.NewDetector(),
		legitimate,
		scoring.NewURLScorer(extractor),
		f.logger,
	)

	emailFusion := core.NewEmailFusion(safeDomains)
	if scoringCfg.RuleWeight > 0 || scoringCfg.ModelWeight > 0 {
		emailFusion.RuleWeight = scoringCfg.RuleWeight
		emailFusion.ModelWeight = scoringCfg.ModelWeight
	}
	if scoringCfg.SpamThreshold > scoringCfg.HamThreshold {
		emailFusion.SpamThreshold = scoringCfg.SpamThreshold
		emailFusion.HamThreshold = scoringCfg.HamThreshold
	} else {
		f.logger.Warn("Invalid scoring thresholds, using defaults",
			zap.Float64("spam_threshold", scoringCfg.SpamThreshold),
			zap.Float64("ham_threshold", scoringCfg.HamThreshold))
	}

	urlFusion := core.NewURLFusion()
	if scoringCfg.YoungDomainDays > 0 {
		urlFusion.YoungDomainDays = scoringCfg.YoungDomainDays
	}

	return core.NewThreatService(
		extractor,
		analyzer,
		urlClassifier,
		spamClassifier,
		history,
		urlFusion,
		emailFusion,
		scoringCfg.Weights,
		f.metricsRecorder(),
		f.logger,
	)
}

func (f *ServiceFactory) lookupRecorder() core.LookupRecorder {
	if f.recorder == nil {
		return nil
	}
	return f.recorder
}

func (f *ServiceFactory) metricsRecorder() core.MetricsRecorder {
	if f.recorder == nil {
		return nil
	}
	return f.recorder
}
