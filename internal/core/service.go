package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrEmptyInput is returned when there is nothing to classify
var ErrEmptyInput = errors.New("empty input")

// MetricsRecorder receives verdict and model outcomes
type MetricsRecorder interface {
	ObserveVerdict(route string, label Label)
	ObserveModel(route string, status ModelStatus)
}

// ClassifyOptions control side effects of a classification
type ClassifyOptions struct {
	// Save writes the verdict to the history log
	Save bool
	// ActorID identifies the requesting user, nil when anonymous
	ActorID *int64
}

// ThreatService is the core service combining rule signals and classifier output
type ThreatService struct {
	extractor      FeatureExtractor
	analyzer       EmailAnalyzer
	urlClassifier  URLClassifier
	spamClassifier SpamClassifier
	history        HistoryRepository
	urlFusion      *URLFusion
	emailFusion    *EmailFusion
	weights        RuleWeights
	metrics        MetricsRecorder
	logger         *zap.Logger
}

// NewThreatService creates a new threat service. The classifiers, the history
// repository and the metrics recorder may be nil.
func NewThreatService(
	extractor FeatureExtractor,
	analyzer EmailAnalyzer,
	urlClassifier URLClassifier,
	spamClassifier SpamClassifier,
	history HistoryRepository,
	urlFusion *URLFusion,
	emailFusion *EmailFusion,
	weights RuleWeights,
	metrics MetricsRecorder,
	logger *zap.Logger,
) *ThreatService {
	return &ThreatService{
		extractor:      extractor,
		analyzer:       analyzer,
		urlClassifier:  urlClassifier,
		spamClassifier: spamClassifier,
		history:        history,
		urlFusion:      urlFusion,
		emailFusion:    emailFusion,
		weights:        weights,
		metrics:        metrics,
		logger:         logger,
	}
}

// ClassifyURL runs the phishing URL route
func (s *ThreatService) ClassifyURL(ctx context.Context, rawURL string, opts ClassifyOptions) (*URLVerdict, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ErrEmptyInput
	}

	extraction := s.extractor.ExtractDetailed(ctx, rawURL)
	rulePhishing, reasons := s.urlFusion.RulePredicate(extraction.Vector)

	verdict := &URLVerdict{
		URL:          rawURL,
		Features:     extraction.Vector,
		AgeStatus:    extraction.AgeStatus,
		ProbeStatus:  extraction.ProbeStatus,
		RulePhishing: rulePhishing,
		RuleReasons:  reasons,
		RuleLabel:    s.urlFusion.Decide(rulePhishing, 0),
		ModelLabel:   "Unavailable",
		ModelStatus:  ModelUnavailable,
		AnalyzedAt:   time.Now(),
	}

	modelClass := 0
	if s.urlClassifier != nil {
		prediction, err := s.urlClassifier.Predict(ctx, extraction.Vector)
		if err != nil {
			s.logger.Warn("URL classifier failed, using rules only",
				zap.String("url", rawURL),
				zap.Error(err))
			verdict.ModelLabel = "Error"
			verdict.ModelStatus = ModelError
		} else {
			modelClass = prediction.Class
			verdict.ModelLabel = string(s.urlFusion.Decide(false, modelClass))
			verdict.ModelStatus = ModelAvailable
		}
	}

	verdict.Label = s.urlFusion.Decide(rulePhishing, modelClass)

	s.logger.Info("Classified URL",
		zap.String("url", rawURL),
		zap.String("host", extraction.Host),
		zap.String("label", string(verdict.Label)),
		zap.Bool("rule_phishing", rulePhishing),
		zap.Strings("reasons", reasons),
		zap.String("model_status", string(verdict.ModelStatus)))

	s.observe("url", verdict.Label, verdict.ModelStatus)
	s.record(ctx, opts, "URL: "+rawURL, verdict.Label, SourcePhishing)

	return verdict, nil
}

// ClassifyEmail runs the hybrid email route
func (s *ThreatService) ClassifyEmail(ctx context.Context, email *Email, opts ClassifyOptions) (*EmailVerdict, error) {
	if email == nil || (email.From == "" && email.Subject == "" && email.Body == "") {
		return nil, ErrEmptyInput
	}

	features := s.analyzer.Analyze(ctx, email)
	ruleScore := RuleScore(features, s.weights)

	verdict := &EmailVerdict{
		Features:    features,
		RuleScore:   ruleScore,
		ModelStatus: ModelUnavailable,
		AnalyzedAt:  time.Now(),
	}

	if s.spamClassifier != nil {
		prediction, err := s.spamClassifier.SpamProbability(ctx, email)
		if err != nil {
			s.logger.Warn("Spam classifier failed, using rules only",
				zap.String("sender", email.From),
				zap.Error(err))
			verdict.ModelStatus = ModelError
		} else {
			verdict.ModelScore = clampProbability(prediction.Probability) * 10
			verdict.ModelStatus = ModelAvailable
			verdict.ModelUsed = prediction.ModelUsed
		}
	}

	verdict.Label, verdict.FinalScore = s.emailFusion.Fuse(features.SenderDomain, ruleScore, verdict.ModelScore)
	if s.emailFusion.IsSafeSender(features.SenderDomain) {
		verdict.SafeDomainOverride = true
		s.logger.Info("Safe sender domain, forcing HAM",
			zap.String("sender", email.From),
			zap.String("sender_domain", features.SenderDomain),
			zap.String("action", "safe_domain_override"))
	}

	s.logger.Info("Classified email",
		zap.String("sender", email.From),
		zap.String("sender_domain", features.SenderDomain),
		zap.String("label", string(verdict.Label)),
		zap.Float64("rule_score", ruleScore),
		zap.Float64("model_score", verdict.ModelScore),
		zap.Float64("final_score", verdict.FinalScore),
		zap.String("model_status", string(verdict.ModelStatus)))

	s.observe("email", verdict.Label, verdict.ModelStatus)
	s.record(ctx, opts, fmt.Sprintf("From: %s, Subject: %s", email.From, email.Subject), verdict.Label, SourceEmail)

	return verdict, nil
}

// textScamKeywords is the keyword count from which a message is a scam on rules alone
const textScamKeywords = 3

// ClassifyText runs the short message (SMS) scam route. The spam classifier
// decides when it is available; otherwise a phishing URL or enough spam
// keywords mark the message as a scam.
func (s *ThreatService) ClassifyText(ctx context.Context, message string, opts ClassifyOptions) (*TextVerdict, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyInput
	}

	email := &Email{Body: message}
	features := s.analyzer.Analyze(ctx, email)
	phishingURLs := countEvidence(features.PhishingURLs)

	verdict := &TextVerdict{
		Message:      message,
		SpamKeywords: features.SpamKeywords,
		PhishingURLs: features.PhishingURLs,
		RuleScam:     phishingURLs > 0 || len(features.SpamKeywords) >= textScamKeywords,
		ModelStatus:  ModelUnavailable,
		AnalyzedAt:   time.Now(),
	}

	scam := verdict.RuleScam
	if s.spamClassifier != nil {
		prediction, err := s.spamClassifier.SpamProbability(ctx, email)
		if err != nil {
			s.logger.Warn("Spam classifier failed, using rules only",
				zap.String("route", "sms"),
				zap.Error(err))
			verdict.ModelStatus = ModelError
		} else {
			verdict.ModelProbability = clampProbability(prediction.Probability)
			verdict.ModelStatus = ModelAvailable
			verdict.ModelUsed = prediction.ModelUsed
			scam = prediction.Class == 1
		}
	}

	verdict.Label = LabelOriginal
	if scam {
		verdict.Label = LabelScam
	}

	s.logger.Info("Classified message",
		zap.Int("length", len(message)),
		zap.String("label", string(verdict.Label)),
		zap.Bool("rule_scam", verdict.RuleScam),
		zap.Float64("model_probability", verdict.ModelProbability),
		zap.String("model_status", string(verdict.ModelStatus)))

	s.observe("sms", verdict.Label, verdict.ModelStatus)
	s.record(ctx, opts, message, verdict.Label, SourceSMS)

	return verdict, nil
}

// RuleWeights returns the weights used by the email route
func (s *ThreatService) RuleWeights() RuleWeights {
	return s.weights
}

func (s *ThreatService) observe(route string, label Label, status ModelStatus) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveVerdict(route, label)
	s.metrics.ObserveModel(route, status)
}

// record writes the history entry. Failures are logged and never fail the request.
func (s *ThreatService) record(ctx context.Context, opts ClassifyOptions, input string, label Label, source string) {
	if !opts.Save || s.history == nil {
		return
	}

	record := &HistoryRecord{
		ActorID:    opts.ActorID,
		InputText:  input,
		Prediction: string(label),
		SourceType: source,
		CreatedAt:  time.Now(),
	}
	if err := s.history.Insert(ctx, record); err != nil {
		s.logger.Error("Failed to write history record", zap.Error(err), zap.String("source", source))
	}
}

func clampProbability(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
