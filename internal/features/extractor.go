// Package features turns URLs into the fixed feature vector used by the classifiers.
package features

import (
	"context"
	"net/url"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/domainutil"
	"go.uber.org/zap"
)

// SuspiciousTLDs are host suffixes that raise has_suspicious_tld
var SuspiciousTLDs = []string{
	".xyz", ".top", ".gq", ".ml", ".tk", ".cc", ".club",
	".info", ".support", ".click", ".work", ".online",
}

// PhishingKeywords are host substrings that raise has_phishing_keyword
var PhishingKeywords = []string{
	"login", "verify", "account", "secure", "bank",
	"update", "confirm", "password", "signin", "bit",
}

// AgeResolver returns the age of a domain
type AgeResolver interface {
	Lookup(ctx context.Context, domain string) core.AgeResult
}

// LoginProber looks for a login form behind a URL
type LoginProber interface {
	Check(ctx context.Context, rawURL string) core.ProbeResult
}

// BrandMatcher detects hosts that mention a brand they do not belong to
type BrandMatcher interface {
	Impersonates(host string) (string, bool)
}

// Signals are the feature bits computed from the host alone
type Signals struct {
	SuspiciousTLD      bool
	PhishingKeyword    bool
	BrandImpersonation bool
	Brand              string
}

// Extractor builds feature vectors. Invalid input never reaches the network.
type Extractor struct {
	ages   AgeResolver
	prober LoginProber
	brands BrandMatcher
	logger *zap.Logger
}

// NewExtractor creates a new feature extractor
func NewExtractor(ages AgeResolver, prober LoginProber, brands BrandMatcher, logger *zap.Logger) *Extractor {
	return &Extractor{
		ages:   ages,
		prober: prober,
		brands: brands,
		logger: logger,
	}
}

// Extract returns the feature vector for rawURL
func (e *Extractor) Extract(ctx context.Context, rawURL string) core.FeatureVector {
	return e.ExtractDetailed(ctx, rawURL).Vector
}

// ExtractDetailed returns the feature vector together with how its lookups ended
func (e *Extractor) ExtractDetailed(ctx context.Context, rawURL string) core.Extraction {
	vector := core.NewFeatureVector()

	if valid, reason := domainutil.Validate(rawURL); !valid {
		vector.URLLength = len(rawURL)
		e.logger.Debug("Invalid URL, using default features",
			zap.String("url", rawURL),
			zap.String("reason", reason))
		return core.Extraction{
			Vector:      vector,
			AgeStatus:   core.StatusSkipped,
			ProbeStatus: core.StatusSkipped,
		}
	}

	normalized := domainutil.Normalize(rawURL)
	host := domainutil.Host(normalized)

	vector.IsValid = 1
	vector.URLLength = len(normalized)
	vector.NumHyphens = strings.Count(host, "-")
	if parsed, err := url.Parse(normalized); err == nil && parsed.Scheme == "https" {
		vector.HasHTTPS = 1
	}

	signals := e.StaticSignals(host)
	vector.HasSuspiciousTLD = boolToInt(signals.SuspiciousTLD)
	vector.HasPhishingKeyword = boolToInt(signals.PhishingKeyword)
	vector.HasBrandImpersonation = boolToInt(signals.BrandImpersonation)

	extraction := core.Extraction{
		Host:        host,
		AgeStatus:   core.StatusDisabled,
		ProbeStatus: core.StatusDisabled,
	}

	if e.ages != nil {
		age := e.ages.Lookup(ctx, host)
		vector.DomainAge = age.Days
		extraction.AgeStatus = age.Status
	}

	if e.prober != nil {
		probe := e.prober.Check(ctx, normalized)
		vector.HasLoginForm = boolToInt(probe.Found)
		extraction.ProbeStatus = probe.Status
	}

	extraction.Vector = vector
	return extraction
}

// StaticSignals computes the network-free host checks
func (e *Extractor) StaticSignals(host string) Signals {
	host = strings.ToLower(host)

	var signals Signals
	for _, tld := range SuspiciousTLDs {
		if strings.HasSuffix(host, tld) {
			signals.SuspiciousTLD = true
			break
		}
	}
	for _, keyword := range PhishingKeywords {
		if strings.Contains(host, keyword) {
			signals.PhishingKeyword = true
			break
		}
	}
	if e.brands != nil {
		signals.Brand, signals.BrandImpersonation = e.brands.Impersonates(host)
	}
	return signals
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
