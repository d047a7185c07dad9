package core

import (
	"time"
)

// NoneDetected marks an empty phishing URL or attachment list. Rule scoring
// treats it as "no evidence".
const NoneDetected = "None detected"

// Label is the verdict attached to a classified input
type Label string

const (
	LabelSpam       Label = "SPAM"
	LabelHam        Label = "HAM"
	LabelSuspicious Label = "SUSPICIOUS"
	LabelPhishing   Label = "Phishing"
	LabelBenign     Label = "Benign"
	LabelScam       Label = "Scam"
	LabelOriginal   Label = "Original"
)

// Source types recorded in the history log
const (
	SourceEmail    = "Email"
	SourcePhishing = "Phishing"
	SourceSMS      = "SMS"
)

// LookupStatus describes how an external lookup ended
type LookupStatus string

const (
	StatusOK       LookupStatus = "ok"
	StatusDisabled LookupStatus = "disabled"
	StatusTimeout  LookupStatus = "timeout"
	StatusError    LookupStatus = "error"
	StatusNotFound LookupStatus = "not_found"
	StatusSkipped  LookupStatus = "skipped"
)

// ModelStatus tells the caller whether the classifier contributed to a verdict
type ModelStatus string

const (
	ModelAvailable   ModelStatus = "available"
	ModelUnavailable ModelStatus = "unavailable"
	ModelError       ModelStatus = "error"
)

// FeatureNames is the canonical feature order. Classifiers trained on the
// vector depend on these positions.
var FeatureNames = []string{
	"is_valid",
	"domain_age",
	"has_https",
	"url_length",
	"num_hyphens",
	"has_suspicious_tld",
	"has_phishing_keyword",
	"has_brand_impersonation",
	"has_login_form",
}

// FeatureVector holds the extracted URL signals in canonical order.
// DomainAge is -1 when the age is unknown.
type FeatureVector struct {
	IsValid               int `json:"is_valid"`
	DomainAge             int `json:"domain_age"`
	HasHTTPS              int `json:"has_https"`
	URLLength             int `json:"url_length"`
	NumHyphens            int `json:"num_hyphens"`
	HasSuspiciousTLD      int `json:"has_suspicious_tld"`
	HasPhishingKeyword    int `json:"has_phishing_keyword"`
	HasBrandImpersonation int `json:"has_brand_impersonation"`
	HasLoginForm          int `json:"has_login_form"`
}

// NewFeatureVector returns a vector with every field at its default
func NewFeatureVector() FeatureVector {
	return FeatureVector{DomainAge: -1}
}

// Values projects the vector in FeatureNames order
func (v FeatureVector) Values() []float64 {
	values := make([]float64, len(FeatureNames))
	for i, name := range FeatureNames {
		values[i], _ = v.Get(name)
	}
	return values
}

// Get returns a single feature by name
func (v FeatureVector) Get(name string) (float64, bool) {
	switch name {
	case "is_valid":
		return float64(v.IsValid), true
	case "domain_age":
		return float64(v.DomainAge), true
	case "has_https":
		return float64(v.HasHTTPS), true
	case "url_length":
		return float64(v.URLLength), true
	case "num_hyphens":
		return float64(v.NumHyphens), true
	case "has_suspicious_tld":
		return float64(v.HasSuspiciousTLD), true
	case "has_phishing_keyword":
		return float64(v.HasPhishingKeyword), true
	case "has_brand_impersonation":
		return float64(v.HasBrandImpersonation), true
	case "has_login_form":
		return float64(v.HasLoginForm), true
	}
	return 0, false
}

// AgeResult is the outcome of a domain age lookup
type AgeResult struct {
	Days   int
	Status LookupStatus
}

// ProbeResult is the outcome of a login form probe
type ProbeResult struct {
	Found      bool
	Status     LookupStatus
	StatusCode int
}

// Prediction is a classifier output. Probability is in [0,1].
type Prediction struct {
	Class       int
	Probability float64
	ModelUsed   string
}

// Email is a message as received by a filter
type Email struct {
	From        string
	To          []string
	Subject     string
	Body        string
	Headers     map[string][]string
	Attachments []string
	SPFStatus   string
	DKIMStatus  string
	DMARCStatus string
	OriginIP    string
}

// EmailFeatures are the signals the rule scorer consumes
type EmailFeatures struct {
	Sender                string   `json:"sender"`
	Subject               string   `json:"subject"`
	Body                  string   `json:"body"`
	SenderDomain          string   `json:"sender_domain"`
	OriginIP              string   `json:"x_origin_ip"`
	Attachments           []string `json:"attachments"`
	IsSuspiciousDomain    bool     `json:"is_suspicious_domain"`
	IsTypoDomain          bool     `json:"is_typo_domain"`
	TypoOf                string   `json:"typo_of,omitempty"`
	IsBlacklistedOriginIP bool     `json:"is_blacklisted_origin_ip"`
	SpamKeywords          []string `json:"spam_keywords"`
	PhishingURLs          []string `json:"phishing_urls"`
	MaliciousAttachments  []string `json:"malicious_attachments"`
	SPFStatus             string   `json:"spf_status"`
	DKIMStatus            string   `json:"dkim_status"`
	DMARCStatus           string   `json:"dmarc_status"`
}

// URLVerdict is the result of the URL route
type URLVerdict struct {
	URL          string
	Features     FeatureVector
	AgeStatus    LookupStatus
	ProbeStatus  LookupStatus
	RulePhishing bool
	RuleReasons  []string
	RuleLabel    Label
	ModelLabel   string
	ModelStatus  ModelStatus
	Label        Label
	AnalyzedAt   time.Time
}

// EmailVerdict is the result of the email route
type EmailVerdict struct {
	Features           *EmailFeatures
	RuleScore          float64
	ModelScore         float64
	FinalScore         float64
	Label              Label
	ModelStatus        ModelStatus
	ModelUsed          string
	SafeDomainOverride bool
	AnalyzedAt         time.Time
}

// TextVerdict is the result of the short message route
type TextVerdict struct {
	Message          string
	SpamKeywords     []string
	PhishingURLs     []string
	RuleScam         bool
	ModelProbability float64
	ModelStatus      ModelStatus
	ModelUsed        string
	Label            Label
	AnalyzedAt       time.Time
}

// HistoryRecord is one entry of the write-only history log.
// ActorID is nil for anonymous requests.
type HistoryRecord struct {
	ActorID    *int64
	InputText  string
	Prediction string
	SourceType string
	CreatedAt  time.Time
}
