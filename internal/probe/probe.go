// Package probe fetches a page and looks for a login form.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultUserAgent is sent with every probe request
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64)"

	// DefaultMaxBodyBytes caps how much of a page is inspected
	DefaultMaxBodyBytes = 1 << 20

	maxRedirects = 10
)

var credentialMarkers = []string{"password", "signin", "login"}

// Config holds the probe settings
type Config struct {
	Enabled      bool
	Timeout      time.Duration
	RatePerSec   float64
	Burst        int
	MaxBodyBytes int64
	UserAgent    string
}

// Probe issues single GET requests and inspects the returned HTML
type Probe struct {
	client  *http.Client
	limiter *rate.Limiter
	cfg     Config
	metrics core.LookupRecorder
	logger  *zap.Logger
}

// New creates a new login form probe. metrics may be nil.
func New(cfg Config, metrics core.LookupRecorder, logger *zap.Logger) *Probe {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 6 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}

	return &Probe{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cfg:     cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// HasLoginForm reports whether the page at rawURL looks like it collects credentials
func (p *Probe) HasLoginForm(ctx context.Context, rawURL string) bool {
	return p.Check(ctx, rawURL).Found
}

// Check fetches rawURL once and reports whether a login form was found.
// Every failure degrades to Found=false.
func (p *Probe) Check(ctx context.Context, rawURL string) core.ProbeResult {
	if !p.cfg.Enabled {
		return core.ProbeResult{Status: core.StatusDisabled}
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	result, err := p.fetch(probeCtx, rawURL)
	if err != nil {
		result.Status = core.StatusError
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			result.Status = core.StatusTimeout
		}
		p.logger.Debug("HTTP probe failed",
			zap.String("url", rawURL),
			zap.String("status", string(result.Status)),
			zap.Int("status_code", result.StatusCode),
			zap.Error(err))
	}

	p.observe(result.Status)
	return result
}

func (p *Probe) fetch(ctx context.Context, rawURL string) (core.ProbeResult, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return core.ProbeResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return core.ProbeResult{}, fmt.Errorf("invalid URL: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return core.ProbeResult{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	result := core.ProbeResult{StatusCode: resp.StatusCode}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return result, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if !isHTML(resp.Header.Get("Content-Type")) {
		result.Status = core.StatusSkipped
		return result, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		return result, fmt.Errorf("failed to read response body: %w", err)
	}

	result.Status = core.StatusOK
	result.Found = ContainsLoginForm(string(body))
	return result, nil
}

// ContainsLoginForm applies the substring heuristic to an HTML document
func ContainsLoginForm(html string) bool {
	html = strings.ToLower(html)
	if !strings.Contains(html, "<form") {
		return false
	}
	for _, marker := range credentialMarkers {
		if strings.Contains(html, marker) {
			return true
		}
	}
	return false
}

// isHTML accepts a missing content type
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func (p *Probe) observe(status core.LookupStatus) {
	if p.metrics != nil {
		p.metrics.ObserveLookup("http", status)
	}
}
