package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/ports"
	"go.uber.org/zap"
)

// PostfixConfig holds the content filter settings
type PostfixConfig struct {
	ListenAddr     string
	BlockSpam      bool
	LabelHeader    string
	ScoreHeader    string
	ReasonHeader   string
	PostfixAddr    string
	PostfixPort    int
	PostfixEnabled bool
	SubjectPrefix  string
	ModifySubject  bool
	VerifyDKIM     bool
	SaveHistory    bool
	Timeout        time.Duration
}

// PostfixFilter implements a Postfix content filter
type PostfixFilter struct {
	service ports.ThreatClassifier
	logger  *zap.Logger
	cfg     PostfixConfig
	server  *smtp.Server
	forward func(sender string, recipients []string, data []byte) error
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(service ports.ThreatClassifier, logger *zap.Logger, cfg PostfixConfig) *PostfixFilter {
	if cfg.SubjectPrefix == "" && cfg.ModifySubject {
		cfg.SubjectPrefix = "[**SPAM**] "
	}
	if cfg.LabelHeader == "" {
		cfg.LabelHeader = "X-Threat-Label"
	}
	if cfg.ScoreHeader == "" {
		cfg.ScoreHeader = "X-Threat-Score"
	}
	if cfg.ReasonHeader == "" {
		cfg.ReasonHeader = "X-Threat-Reason"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	f := &PostfixFilter{
		service: service,
		logger:  logger,
		cfg:     cfg,
	}
	f.forward = f.sendToPostfix
	return f
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.cfg.ListenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail classifies an email without touching the SMTP transport
func (f *PostfixFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.EmailVerdict, error) {
	return f.service.ClassifyEmail(ctx, email, core.ClassifyOptions{Save: f.cfg.SaveHistory})
}

// handleMessage classifies a raw message and returns the message to reinject.
// Rejected spam is returned as an *smtp.SMTPError.
func (f *PostfixFilter) handleMessage(ctx context.Context, sender string, recipients []string, raw []byte) ([]byte, error) {
	traceID := uuid.New().String()
	logger := f.logger.With(zap.String("trace_id", traceID))

	email, err := ParseMessage(raw)
	if err != nil {
		return nil, err
	}
	if email.From == "" {
		email.From = sender
	}
	email.To = recipients

	if f.cfg.VerifyDKIM {
		status, err := VerifyDKIM(raw)
		if err != nil {
			logger.Debug("DKIM verification failed", zap.Error(err))
		} else if status != "" {
			email.DKIMStatus = status
		}
	}

	verdict, err := f.ProcessEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to classify email", zap.Error(err), zap.String("sender", email.From))
		return rewriteMessage(raw, [][2]string{{"X-Threat-Analysis-Error", err.Error()}}, ""), nil
	}

	reason := strings.Join(Reasons(verdict), "; ")
	if verdict.Label == core.LabelSpam && f.cfg.BlockSpam {
		logger.Info("Rejecting spam email",
			zap.String("from", email.From),
			zap.String("sender_domain", verdict.Features.SenderDomain),
			zap.Float64("score", verdict.FinalScore),
			zap.String("reason", reason))
		return nil, &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as spam (score: %.2f)", verdict.FinalScore),
		}
	}

	headers := [][2]string{
		{f.cfg.LabelHeader, string(verdict.Label)},
		{f.cfg.ScoreHeader, fmt.Sprintf("%.4f", verdict.FinalScore)},
		{f.cfg.ReasonHeader, reason},
	}

	newSubject := ""
	if verdict.Label == core.LabelSpam && f.cfg.ModifySubject && !strings.HasPrefix(email.Subject, f.cfg.SubjectPrefix) {
		newSubject = f.cfg.SubjectPrefix + email.Subject
	}

	logger.Info("Processed email",
		zap.String("from", email.From),
		zap.String("sender_domain", verdict.Features.SenderDomain),
		zap.String("label", string(verdict.Label)),
		zap.Float64("score", verdict.FinalScore),
		zap.String("model_status", string(verdict.ModelStatus)))

	return rewriteMessage(raw, headers, newSubject), nil
}

// rewriteMessage prepends headers to raw and, when subject is set, replaces
// the Subject header. The body is copied untouched.
func rewriteMessage(raw []byte, headers [][2]string, subject string) []byte {
	headerBlock, body := splitMessage(raw)

	var out bytes.Buffer
	for _, h := range headers {
		fmt.Fprintf(&out, "%s: %s\r\n", h[0], sanitizeHeaderValue(h[1]))
	}

	lines := strings.SplitAfter(string(headerBlock), "\n")
	skipping := false
	for _, line := range lines {
		if line == "" {
			continue
		}
		folded := line[0] == ' ' || line[0] == '\t'
		if skipping && folded {
			continue
		}
		skipping = false

		if subject != "" && !folded && strings.HasPrefix(strings.ToLower(line), "subject:") {
			fmt.Fprintf(&out, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
			skipping = true
			continue
		}
		out.WriteString(line)
	}

	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

// splitMessage separates the header block (without the blank line) from the body
func splitMessage(raw []byte) ([]byte, []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+2:]
	}
	return raw, nil
}

func sanitizeHeaderValue(value string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(value)
}

// sendToPostfix sends the processed email back to Postfix on the configured port
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.cfg.PostfixAddr, fmt.Sprint(f.cfg.PostfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}
	if !recipientOK {
		return errors.New("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// AuthPlain handles PLAIN authentication (not needed for our filter)
func (s *smtpSession) AuthPlain(_ []byte) error {
	return smtp.ErrAuthUnsupported
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data classifies the message and reinjects it into Postfix
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.filter.cfg.Timeout)
	defer cancel()

	message, err := s.filter.handleMessage(ctx, s.sender, s.recipients, raw)
	if err != nil {
		return err
	}

	if !s.filter.cfg.PostfixEnabled {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
		return nil
	}

	if err := s.filter.forward(s.sender, s.recipients, message); err != nil {
		s.filter.logger.Error("Failed to send email back to Postfix",
			zap.Error(err),
			zap.String("sender", s.sender))
		return err
	}
	return nil
}

// Logout handles SMTP logout (not needed for our filter)
func (s *smtpSession) Logout() error {
	return nil
}
