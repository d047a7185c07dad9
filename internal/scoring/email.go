package scoring

import (
	"context"
	"strings"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/domainutil"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
)

// SpamKeywords are matched as substrings of the lower-cased subject and body
var SpamKeywords = []string{
	"urgent", "verify", "account", "suspended", "won", "prize",
	"free", "offer", "click", "below", "limited", "time",
	"action required", "password", "login", "security alert",
	"confirm", "billing",
}

// MaliciousExtensions are attachment suffixes treated as executable payloads
var MaliciousExtensions = []string{".exe", ".scr", ".bat", ".cmd", ".msi", ".js", ".vbs", ".jar"}

// DetectSpamKeywords returns the keywords present in text, in keyword order.
// Text is NFKC-normalized first so full-width and ligature forms match.
func DetectSpamKeywords(text string) []string {
	text = strings.ToLower(norm.NFKC.String(text))

	found := []string{}
	for _, keyword := range SpamKeywords {
		if strings.Contains(text, keyword) {
			found = append(found, keyword)
		}
	}
	return found
}

// MaliciousAttachments returns the filenames ending in a malicious extension
func MaliciousAttachments(filenames []string) []string {
	var malicious []string
	for _, filename := range filenames {
		lower := strings.ToLower(strings.TrimSpace(filename))
		for _, ext := range MaliciousExtensions {
			if strings.HasSuffix(lower, ext) {
				malicious = append(malicious, filename)
				break
			}
		}
	}
	return malicious
}

// BlacklistSource answers domain and IP blacklist membership
type BlacklistSource interface {
	DomainList
	HasIP(ip string) bool
}

// TypoMatcher finds the legitimate domain a candidate imitates
type TypoMatcher interface {
	MatchAny(candidate string, legitimates []string) (string, bool)
}

// EmailAnalyzer assembles the rule features of an email
type EmailAnalyzer struct {
	blacklist  BlacklistSource
	typos      TypoMatcher
	legitimate []string
	urls       *URLScorer
	logger     *zap.Logger
}

// NewEmailAnalyzer creates a new email analyzer. legitimate lists the domains
// a sender domain is checked against for typos.
func NewEmailAnalyzer(
	blacklist BlacklistSource,
	typos TypoMatcher,
	legitimate []string,
	urls *URLScorer,
	logger *zap.Logger,
) *EmailAnalyzer {
	return &EmailAnalyzer{
		blacklist:  blacklist,
		typos:      typos,
		legitimate: legitimate,
		urls:       urls,
		logger:     logger,
	}
}

// Analyze computes the features of email. It issues no network calls.
func (a *EmailAnalyzer) Analyze(ctx context.Context, email *core.Email) *core.EmailFeatures {
	senderDomain := domainutil.ExtractDomain(email.From)

	features := &core.EmailFeatures{
		Sender:               email.From,
		Subject:              email.Subject,
		Body:                 email.Body,
		SenderDomain:         senderDomain,
		OriginIP:             strings.TrimSpace(email.OriginIP),
		Attachments:          append([]string{}, email.Attachments...),
		IsSuspiciousDomain:   senderDomain != "" && a.blacklist.HasDomain(senderDomain),
		SpamKeywords:         DetectSpamKeywords(email.Subject + " " + email.Body),
		PhishingURLs:         orNoneDetected(a.urls.DetectPhishingURLs(email.Body, a.blacklist)),
		MaliciousAttachments: orNoneDetected(MaliciousAttachments(email.Attachments)),
		SPFStatus:            authStatus(email.SPFStatus),
		DKIMStatus:           authStatus(email.DKIMStatus),
		DMARCStatus:          authStatus(email.DMARCStatus),
	}

	if senderDomain != "" {
		if legit, ok := a.typos.MatchAny(senderDomain, a.legitimate); ok {
			features.IsTypoDomain = true
			features.TypoOf = legit
		}
	}

	if features.OriginIP != "" && a.blacklist.HasIP(features.OriginIP) {
		features.IsBlacklistedOriginIP = true
	}

	a.logger.Debug("Analyzed email",
		zap.String("sender_domain", senderDomain),
		zap.Bool("suspicious_domain", features.IsSuspiciousDomain),
		zap.Bool("typo_domain", features.IsTypoDomain),
		zap.Strings("spam_keywords", features.SpamKeywords),
		zap.Strings("phishing_urls", features.PhishingURLs),
		zap.Strings("malicious_attachments", features.MaliciousAttachments))

	return features
}

// authStatus lower-cases a status, defaulting to "none"
func authStatus(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return "none"
	}
	return status
}
