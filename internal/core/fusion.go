package core

import (
	"strings"
)

// RuleWeights are the per-signal weights of the email rule score
type RuleWeights struct {
	SuspiciousDomain    float64
	TypoDomain          float64
	SpamKeyword         float64
	PhishingURL         float64
	MaliciousAttachment float64
	SPFFail             float64
	DKIMFail            float64
	DMARCFail           float64
}

// DefaultRuleWeights returns the rebalanced production weights
func DefaultRuleWeights() RuleWeights {
	return RuleWeights{
		SuspiciousDomain:    2.0,
		TypoDomain:          1.5,
		SpamKeyword:         1.0,
		PhishingURL:         1.5,
		MaliciousAttachment: 4.0,
		SPFFail:             1.0,
		DKIMFail:            1.0,
		DMARCFail:           0.5,
	}
}

// RuleScore computes the weighted sum of the email signals. The features are not modified.
func RuleScore(f *EmailFeatures, w RuleWeights) float64 {
	if f == nil {
		return 0
	}

	score := 0.0
	if f.IsSuspiciousDomain {
		score += w.SuspiciousDomain
	}
	if f.IsTypoDomain {
		score += w.TypoDomain
	}

	score += w.SpamKeyword * float64(len(f.SpamKeywords))
	score += w.PhishingURL * float64(countEvidence(f.PhishingURLs))
	score += w.MaliciousAttachment * float64(countEvidence(f.MaliciousAttachments))

	if !isPass(f.SPFStatus) {
		score += w.SPFFail
	}
	if !isPass(f.DKIMStatus) {
		score += w.DKIMFail
	}
	if !isPass(f.DMARCStatus) {
		score += w.DMARCFail
	}

	return score
}

func countEvidence(items []string) int {
	n := 0
	for _, item := range items {
		if item != NoneDetected {
			n++
		}
	}
	return n
}

func isPass(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "pass")
}

// SafeDomainChecker reports whether a sender domain is allow-listed
type SafeDomainChecker interface {
	IsSafeDomain(domain string) bool
}

// EmailFusion blends the rule score with the classifier score
type EmailFusion struct {
	RuleWeight    float64
	ModelWeight   float64
	SpamThreshold float64
	HamThreshold  float64
	SafeDomains   SafeDomainChecker
}

// NewEmailFusion creates the email fusion policy with the default blend and thresholds
func NewEmailFusion(safeDomains SafeDomainChecker) *EmailFusion {
	return &EmailFusion{
		RuleWeight:    0.85,
		ModelWeight:   0.15,
		SpamThreshold: 7,
		HamThreshold:  4.5,
		SafeDomains:   safeDomains,
	}
}

// Fuse combines ruleScore with mlScore (classifier probability scaled to 0..10).
// The safe-domain override is evaluated last and wins over everything else.
func (f *EmailFusion) Fuse(senderDomain string, ruleScore, mlScore float64) (Label, float64) {
	final := f.RuleWeight*ruleScore + f.ModelWeight*mlScore

	var label Label
	switch {
	case final >= f.SpamThreshold:
		label = LabelSpam
	case final <= f.HamThreshold:
		label = LabelHam
	default:
		label = LabelSuspicious
	}

	if f.IsSafeSender(senderDomain) {
		return LabelHam, 0.0
	}

	return label, final
}

// IsSafeSender reports whether the safe-domain override applies
func (f *EmailFusion) IsSafeSender(senderDomain string) bool {
	return f.SafeDomains != nil && f.SafeDomains.IsSafeDomain(senderDomain)
}

// URLFusion is the recall-biased policy of the URL route: a URL is phishing
// when either the rules or the classifier say so.
type URLFusion struct {
	// YoungDomainDays is the age below which a known domain counts as young
	YoungDomainDays int
}

// NewURLFusion creates the URL fusion policy
func NewURLFusion() *URLFusion {
	return &URLFusion{YoungDomainDays: 30}
}

// RulePredicate evaluates the rule side and names the signals that fired
func (f *URLFusion) RulePredicate(v FeatureVector) (bool, []string) {
	var reasons []string
	if v.HasBrandImpersonation != 0 {
		reasons = append(reasons, "brand_impersonation")
	}
	if v.HasSuspiciousTLD != 0 {
		reasons = append(reasons, "suspicious_tld")
	}
	// -1 is "unknown" and must not read as young
	if v.DomainAge >= 0 && v.DomainAge < f.YoungDomainDays {
		reasons = append(reasons, "young_domain")
	}
	if v.HasLoginForm != 0 && v.HasHTTPS == 0 {
		reasons = append(reasons, "login_form_without_https")
	}
	return len(reasons) > 0, reasons
}

// Decide applies the OR policy
func (f *URLFusion) Decide(rulePhishing bool, modelClass int) Label {
	if rulePhishing || modelClass == 1 {
		return LabelPhishing
	}
	return LabelBenign
}
