// Package scoring holds the email-side heuristics: phishing URL scoring,
// spam keywords and attachment checks.
package scoring

import (
	"regexp"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/domainutil"
	"github.com/mikey/phishguard/internal/features"
)

// PhishingThreshold is the score from which a URL counts as phishing
const PhishingThreshold = 2.0

// Shorteners are link shortener hosts
var Shorteners = []string{"bit.ly", "tinyurl.com", "goo.gl"}

// VerifiedBrands are names whose presence in a host cancels the impersonation indicator.
// Every default trusted brand token is listed, so the indicator only adds to the
// score for brands added through lists.trusted_brands.
var VerifiedBrands = []string{
	"amazon", "google", "gmail", "microsoft", "outlook",
	"yahoo", "office", "apple", "github", "paypal", "netflix",
}

var urlPattern = regexp.MustCompile(`https?://[^\s]+`)

// DomainList answers blacklist membership
type DomainList interface {
	HasDomain(domain string) bool
}

// SignalSource computes the static host signals
type SignalSource interface {
	StaticSignals(host string) features.Signals
}

// URLScorer scores URLs found in message bodies. It never touches the network.
type URLScorer struct {
	signals SignalSource
}

// NewURLScorer creates a new URL scorer
func NewURLScorer(signals SignalSource) *URLScorer {
	return &URLScorer{signals: signals}
}

// Score adds up the phishing indicators of rawURL
func (s *URLScorer) Score(rawURL string, blacklist DomainList) float64 {
	host := domainutil.Host(rawURL)
	score := 0.0

	if blacklist != nil && blacklist.HasDomain(host) {
		score += 2
	}
	if isShortener(host) {
		score += 1
	}
	if domainutil.IsIPv4Literal(host) {
		score += 0.5
	}

	if valid, _ := domainutil.Validate(rawURL); valid {
		signals := s.signals.StaticSignals(host)
		if signals.SuspiciousTLD {
			score += 1
		}
		if signals.PhishingKeyword {
			score += 1
		}
		if signals.BrandImpersonation && !containsAny(host, VerifiedBrands) {
			score += 1
		}
	}

	return score
}

// IsPhishing reports whether rawURL reaches the phishing threshold
func (s *URLScorer) IsPhishing(rawURL string, blacklist DomainList) bool {
	return s.Score(rawURL, blacklist) >= PhishingThreshold
}

// DetectPhishingURLs returns every URL in text that scores as phishing, in order of appearance
func (s *URLScorer) DetectPhishingURLs(text string, blacklist DomainList) []string {
	var phishing []string
	for _, rawURL := range ExtractURLs(text) {
		if s.IsPhishing(rawURL, blacklist) {
			phishing = append(phishing, rawURL)
		}
	}
	return phishing
}

// ExtractURLs returns the http and https URLs in text. Trailing punctuation is kept.
func ExtractURLs(text string) []string {
	return urlPattern.FindAllString(text, -1)
}

func isShortener(host string) bool {
	for _, shortener := range Shorteners {
		if host == shortener || strings.HasSuffix(host, "."+shortener) {
			return true
		}
	}
	return false
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// orNoneDetected replaces an empty list with the NoneDetected marker
func orNoneDetected(items []string) []string {
	if len(items) == 0 {
		return []string{core.NoneDetected}
	}
	return items
}
