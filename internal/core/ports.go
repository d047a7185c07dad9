package core

import (
	"context"
)

// URLClassifier predicts phishing (class 1) from a feature vector
type URLClassifier interface {
	Predict(ctx context.Context, vector FeatureVector) (*Prediction, error)
}

// SpamClassifier returns the probability that an email is spam
type SpamClassifier interface {
	SpamProbability(ctx context.Context, email *Email) (*Prediction, error)
}

// FeatureExtractor turns a URL into a feature vector
type FeatureExtractor interface {
	ExtractDetailed(ctx context.Context, rawURL string) Extraction
}

// EmailAnalyzer assembles rule features for an email
type EmailAnalyzer interface {
	Analyze(ctx context.Context, email *Email) *EmailFeatures
}

// HistoryRepository receives classification records. The engine never reads it back.
type HistoryRepository interface {
	Insert(ctx context.Context, record *HistoryRecord) error
}

// DomainAgeCache memoizes domain age lookups
type DomainAgeCache interface {
	// Get retrieves a cached age for a registrable domain
	Get(domain string) (AgeResult, bool)

	// Add stores an age, evicting the least recently used entry when full
	Add(domain string, result AgeResult)

	// Len returns the number of cached domains
	Len() int
}

// Extraction is a feature vector together with the status of its network lookups
type Extraction struct {
	Vector      FeatureVector
	Host        string
	AgeStatus   LookupStatus
	ProbeStatus LookupStatus
}

// LookupRecorder receives the outcome of external lookups
type LookupRecorder interface {
	ObserveLookup(kind string, status LookupStatus)
}
