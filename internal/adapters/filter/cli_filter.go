package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/ports"
	"github.com/pterm/pterm"
	"go.uber.org/zap"
)

// CliFilter implements a command-line interface for threat detection
type CliFilter struct {
	service ports.ThreatClassifier
	logger  *zap.Logger
	verbose bool
	save    bool
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(service ports.ThreatClassifier, logger *zap.Logger, verbose, save bool) (*CliFilter, error) {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
		save:    save,
	}, nil
}

// ProcessEmail processes an email and displays the results
func (f *CliFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailVerdict, error) {
	f.logger.Debug("Processing email", zap.String("sender", email.From))

	pterm.DefaultSection.Println("Email Summary")
	pterm.Println("From:        " + email.From)
	pterm.Println("To:          " + strings.Join(email.To, ", "))
	pterm.Println("Subject:     " + email.Subject)
	pterm.Println(fmt.Sprintf("Body length: %d bytes", len(email.Body)))
	if len(email.Attachments) > 0 {
		pterm.Println("Attachments: " + strings.Join(email.Attachments, ", "))
	}

	if f.verbose {
		preview := email.Body
		if len(preview) > 500 {
			preview = preview[:500] + "..."
		}
		pterm.DefaultSection.WithLevel(2).Println("Body preview")
		pterm.Println(preview)
	}

	startTime := time.Now()
	verdict, err := f.service.ClassifyEmail(ctx, email, core.ClassifyOptions{Save: f.save})
	if err != nil {
		f.logger.Error("Failed to classify email", zap.Error(err))
		pterm.Error.Println(err.Error())
		return nil, err
	}
	duration := time.Since(startTime)

	feat := verdict.Features
	pterm.DefaultSection.Println("Signals")
	tableData := pterm.TableData{
		{"Signal", "Value"},
		{"Sender domain", feat.SenderDomain},
		{"Blacklisted domain", fmt.Sprint(feat.IsSuspiciousDomain)},
		{"Typo domain", typoCell(feat)},
		{"Spam keywords", joinOrDash(feat.SpamKeywords)},
		{"Phishing URLs", joinOrDash(feat.PhishingURLs)},
		{"Malicious attachments", joinOrDash(feat.MaliciousAttachments)},
		{"SPF / DKIM / DMARC", feat.SPFStatus + " / " + feat.DKIMStatus + " / " + feat.DMARCStatus},
		{"Origin IP", originCell(feat)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render(); err != nil {
		f.logger.Debug("Failed to render table", zap.Error(err))
	}

	pterm.DefaultSection.Println("Results")
	pterm.Println(fmt.Sprintf("Rule score:  %.2f", verdict.RuleScore))
	pterm.Println(fmt.Sprintf("Model score: %.2f (%s)", verdict.ModelScore, verdict.ModelStatus))
	pterm.Println(fmt.Sprintf("Final score: %.2f", verdict.FinalScore))
	if verdict.ModelUsed != "" {
		pterm.Println("Model used:  " + verdict.ModelUsed)
	}
	pterm.Println("Reasons:     " + strings.Join(Reasons(verdict), "; "))
	pterm.Println(fmt.Sprintf("Processing time: %v", duration))
	printLabel(verdict.Label)

	return verdict, nil
}

// CheckURL classifies a single URL and displays the results
func (f *CliFilter) CheckURL(ctx context.Context, rawURL string) (*core.URLVerdict, error) {
	f.logger.Debug("Checking URL", zap.String("url", rawURL))

	verdict, err := f.service.ClassifyURL(ctx, rawURL, core.ClassifyOptions{Save: f.save})
	if err != nil {
		f.logger.Error("Failed to classify URL", zap.Error(err))
		pterm.Error.Println(err.Error())
		return nil, err
	}

	pterm.DefaultSection.Println("URL " + verdict.URL)

	tableData := pterm.TableData{{"Feature", "Value"}}
	values := verdict.Features.Values()
	for i, name := range core.FeatureNames {
		tableData = append(tableData, []string{name, fmt.Sprint(values[i])})
	}
	tableData = append(tableData,
		[]string{"domain_age_status", string(verdict.AgeStatus)},
		[]string{"login_probe_status", string(verdict.ProbeStatus)},
	)
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render(); err != nil {
		f.logger.Debug("Failed to render table", zap.Error(err))
	}

	pterm.Println("Rule label:  " + string(verdict.RuleLabel))
	if len(verdict.RuleReasons) > 0 {
		pterm.Println("Rule hits:   " + strings.Join(verdict.RuleReasons, ", "))
	}
	pterm.Println(fmt.Sprintf("Model label: %s (%s)", verdict.ModelLabel, verdict.ModelStatus))
	printLabel(verdict.Label)

	return verdict, nil
}

// CheckText classifies a short message and displays the results
func (f *CliFilter) CheckText(ctx context.Context, message string) (*core.TextVerdict, error) {
	f.logger.Debug("Checking message", zap.Int("length", len(message)))

	verdict, err := f.service.ClassifyText(ctx, message, core.ClassifyOptions{Save: f.save})
	if err != nil {
		f.logger.Error("Failed to classify message", zap.Error(err))
		pterm.Error.Println(err.Error())
		return nil, err
	}

	pterm.DefaultSection.Println("Message")
	pterm.Println(verdict.Message)

	tableData := pterm.TableData{
		{"Signal", "Value"},
		{"Spam keywords", joinOrDash(verdict.SpamKeywords)},
		{"Phishing URLs", joinOrDash(verdict.PhishingURLs)},
		{"Rule scam", fmt.Sprint(verdict.RuleScam)},
		{"Model", fmt.Sprintf("%.2f (%s)", verdict.ModelProbability, verdict.ModelStatus)},
	}
	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(tableData).Render(); err != nil {
		f.logger.Debug("Failed to render table", zap.Error(err))
	}
	if verdict.ModelUsed != "" {
		pterm.Println("Model used:  " + verdict.ModelUsed)
	}
	printLabel(verdict.Label)

	return verdict, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

func printLabel(label core.Label) {
	switch label {
	case core.LabelSpam, core.LabelPhishing, core.LabelScam:
		pterm.Error.Println("Verdict: " + string(label))
	case core.LabelSuspicious:
		pterm.Warning.Println("Verdict: " + string(label))
	default:
		pterm.Success.Println("Verdict: " + string(label))
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func typoCell(f *core.EmailFeatures) string {
	if !f.IsTypoDomain {
		return "false"
	}
	return "true (" + f.TypoOf + ")"
}

func originCell(f *core.EmailFeatures) string {
	if f.OriginIP == "" {
		return "-"
	}
	if f.IsBlacklistedOriginIP {
		return f.OriginIP + " (blacklisted)"
	}
	return f.OriginIP
}
