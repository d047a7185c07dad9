package filter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/mikey/phishguard/internal/core"
	"github.com/pterm/pterm"
	"go.uber.org/zap/zaptest"
)

type fakeClassifier struct {
	emailVerdict *core.EmailVerdict
	urlVerdict   *core.URLVerdict
	textVerdict  *core.TextVerdict
	err          error
	lastEmail    *core.Email
	lastOpts     core.ClassifyOptions
}

func (f *fakeClassifier) ClassifyEmail(_ context.Context, email *core.Email, opts core.ClassifyOptions) (*core.EmailVerdict, error) {
	f.lastEmail = email
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.emailVerdict, nil
}

func (f *fakeClassifier) ClassifyURL(_ context.Context, rawURL string, opts core.ClassifyOptions) (*core.URLVerdict, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.urlVerdict, nil
}

func (f *fakeClassifier) ClassifyText(_ context.Context, message string, opts core.ClassifyOptions) (*core.TextVerdict, error) {
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.textVerdict, nil
}

const multipartMessage = "From: Alerts <alerts@paypa1.com>\r\n" +
	"To: victim@example.com, other@example.com\r\n" +
	"Subject: Verify your account\r\n" +
	"X-Originating-IP: [10.0.0.1]\r\n" +
	"Authentication-Results: mx.example.com; spf=fail smtp.mailfrom=paypa1.com; dkim=pass header.d=paypa1.com; dmarc=fail header.from=paypa1.com\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"BOUNDARY\"\r\n" +
	"\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Click here to verify your account.\r\n" +
	"--BOUNDARY\r\n" +
	"Content-Type: application/octet-stream\r\n" +
	"Content-Disposition: attachment; filename=\"invoice.exe\"\r\n" +
	"Content-Transfer-Encoding: base64\r\n" +
	"\r\n" +
	"TVqQAAMAAAAEAAAA\r\n" +
	"--BOUNDARY--\r\n"

const plainMessage = "From: friend@example.com\r\n" +
	"To: me@example.com\r\n" +
	"Subject: Lunch\r\n" +
	"\r\n" +
	"See you at noon.\r\n"

func TestParseMessage(t *testing.T) {
	email, err := ParseMessage([]byte(multipartMessage))
	if err != nil {
		t.Fatalf("ParseMessage returned error: %v", err)
	}

	if !strings.Contains(email.From, "alerts@paypa1.com") {
		t.Errorf("From = %q", email.From)
	}
	if email.Subject != "Verify your account" {
		t.Errorf("Subject = %q", email.Subject)
	}
	if !strings.Contains(email.Body, "Click here to verify") {
		t.Errorf("Body = %q", email.Body)
	}
	if len(email.To) != 2 || email.To[0] != "victim@example.com" {
		t.Errorf("To = %v", email.To)
	}
	if len(email.Attachments) != 1 || email.Attachments[0] != "invoice.exe" {
		t.Errorf("Attachments = %v", email.Attachments)
	}
	if email.OriginIP != "10.0.0.1" {
		t.Errorf("OriginIP = %q", email.OriginIP)
	}
	if email.SPFStatus != "fail" || email.DKIMStatus != "pass" || email.DMARCStatus != "fail" {
		t.Errorf("auth = %s/%s/%s", email.SPFStatus, email.DKIMStatus, email.DMARCStatus)
	}
}

func TestParseMessageWithoutAuthResults(t *testing.T) {
	email, err := ParseMessage([]byte(plainMessage))
	if err != nil {
		t.Fatalf("ParseMessage returned error: %v", err)
	}
	if email.SPFStatus != "none" || email.DKIMStatus != "none" || email.DMARCStatus != "none" {
		t.Errorf("auth = %s/%s/%s, want none", email.SPFStatus, email.DKIMStatus, email.DMARCStatus)
	}
	if len(email.Attachments) != 0 {
		t.Errorf("Attachments = %v", email.Attachments)
	}
}

func TestAuthStatuses(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		want    AuthResults
	}{
		{
			name: "no headers",
			want: AuthResults{SPF: "none", DKIM: "none", DMARC: "none"},
		},
		{
			name:    "first header wins for spf",
			headers: []string{"a.example; spf=pass smtp.mailfrom=x.com", "b.example; spf=fail smtp.mailfrom=x.com"},
			want:    AuthResults{SPF: "pass", DKIM: "none", DMARC: "none"},
		},
		{
			name:    "any passing dkim signature",
			headers: []string{"a.example; dkim=fail header.d=x.com", "b.example; dkim=pass header.d=y.com"},
			want:    AuthResults{SPF: "none", DKIM: "pass", DMARC: "none"},
		},
		{
			name:    "unparseable header ignored",
			headers: []string{";;;", "a.example; dmarc=pass header.from=x.com"},
			want:    AuthResults{SPF: "none", DKIM: "none", DMARC: "pass"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AuthStatuses(tt.headers); got != tt.want {
				t.Errorf("AuthStatuses() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestVerifyDKIMUnsigned(t *testing.T) {
	status, err := VerifyDKIM([]byte(plainMessage))
	if err != nil {
		t.Fatalf("VerifyDKIM returned error: %v", err)
	}
	if status != "" {
		t.Errorf("status = %q, want empty for unsigned message", status)
	}
}

func TestRewriteMessage(t *testing.T) {
	raw := "From: a@example.com\r\n" +
		"Subject: Win a\r\n prize\r\n" +
		"To: b@example.com\r\n" +
		"\r\n" +
		"Body line\r\n"

	out := string(rewriteMessage([]byte(raw), [][2]string{{"X-Threat-Label", "SPAM"}, {"X-Threat-Reason", "a\r\nb"}}, "[SPAM] Win a prize"))

	if !strings.HasPrefix(out, "X-Threat-Label: SPAM\r\nX-Threat-Reason: a  b\r\n") {
		t.Errorf("headers not prepended: %q", out)
	}
	if !strings.Contains(out, "Subject: [SPAM] Win a prize\r\n") {
		t.Errorf("subject not rewritten: %q", out)
	}
	if n := strings.Count(out, "Subject:"); n != 1 {
		t.Errorf("got %d Subject lines, want 1: %q", n, out)
	}
	if strings.Contains(out, "\r\n prize\r\n") {
		t.Errorf("folded subject continuation kept: %q", out)
	}
	if !strings.HasSuffix(out, "To: b@example.com\r\n\r\nBody line\r\n") {
		t.Errorf("body or trailing headers changed: %q", out)
	}

	unchanged := string(rewriteMessage([]byte(raw), nil, ""))
	if unchanged != raw {
		t.Errorf("rewrite without changes = %q, want %q", unchanged, raw)
	}
}

func TestRewriteMessageEncodesSubject(t *testing.T) {
	out := string(rewriteMessage([]byte("Subject: x\n\nbody"), nil, "Prix café"))
	if !strings.Contains(out, "Subject: =?utf-8?q?") {
		t.Errorf("non-ASCII subject not encoded: %q", out)
	}
}

func spamVerdict() *core.EmailVerdict {
	return &core.EmailVerdict{
		Features: &core.EmailFeatures{
			SenderDomain:         "paypa1.com",
			IsTypoDomain:         true,
			TypoOf:               "paypal.com",
			SpamKeywords:         []string{"verify your account"},
			PhishingURLs:         []string{core.NoneDetected},
			MaliciousAttachments: []string{"invoice.exe"},
			SPFStatus:            "fail",
			DKIMStatus:           "pass",
			DMARCStatus:          "pass",
		},
		RuleScore:   7.5,
		FinalScore:  6.75,
		Label:       core.LabelSpam,
		ModelStatus: core.ModelAvailable,
	}
}

func TestHandleMessage(t *testing.T) {
	t.Run("rejects spam when blocking", func(t *testing.T) {
		classifier := &fakeClassifier{emailVerdict: spamVerdict()}
		f := NewPostfixFilter(classifier, zaptest.NewLogger(t), PostfixConfig{BlockSpam: true, SaveHistory: true})

		_, err := f.handleMessage(context.Background(), "bounce@paypa1.com", []string{"victim@example.com"}, []byte(multipartMessage))
		var smtpErr *smtp.SMTPError
		if !errors.As(err, &smtpErr) || smtpErr.Code != 550 {
			t.Fatalf("err = %v, want 550 SMTP error", err)
		}
		if !classifier.lastOpts.Save {
			t.Error("history save option not forwarded")
		}
		if got := classifier.lastEmail.To; len(got) != 1 || got[0] != "victim@example.com" {
			t.Errorf("envelope recipients not used: %v", got)
		}
	})

	t.Run("tags spam and rewrites subject", func(t *testing.T) {
		classifier := &fakeClassifier{emailVerdict: spamVerdict()}
		f := NewPostfixFilter(classifier, zaptest.NewLogger(t), PostfixConfig{ModifySubject: true})

		out, err := f.handleMessage(context.Background(), "", nil, []byte(multipartMessage))
		if err != nil {
			t.Fatalf("handleMessage returned error: %v", err)
		}
		msg := string(out)
		for _, want := range []string{
			"X-Threat-Label: SPAM\r\n",
			"X-Threat-Score: 6.7500\r\n",
			"X-Threat-Reason: sender domain imitates paypal.com",
			"Subject: [**SPAM**] Verify your account\r\n",
		} {
			if !strings.Contains(msg, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("ham passes with headers only", func(t *testing.T) {
		verdict := &core.EmailVerdict{
			Features:           &core.EmailFeatures{SenderDomain: "example.com"},
			Label:              core.LabelHam,
			SafeDomainOverride: true,
			ModelStatus:        core.ModelUnavailable,
		}
		f := NewPostfixFilter(&fakeClassifier{emailVerdict: verdict}, zaptest.NewLogger(t),
			PostfixConfig{BlockSpam: true, ModifySubject: true, LabelHeader: "X-Custom-Label"})

		out, err := f.handleMessage(context.Background(), "", nil, []byte(plainMessage))
		if err != nil {
			t.Fatalf("handleMessage returned error: %v", err)
		}
		msg := string(out)
		if !strings.HasPrefix(msg, "X-Custom-Label: HAM\r\n") {
			t.Errorf("custom label header missing: %q", msg)
		}
		if !strings.Contains(msg, "Subject: Lunch\r\n") {
			t.Errorf("ham subject changed: %q", msg)
		}
	})

	t.Run("classification error passes message through", func(t *testing.T) {
		f := NewPostfixFilter(&fakeClassifier{err: errors.New("boom")}, zaptest.NewLogger(t), PostfixConfig{BlockSpam: true})

		out, err := f.handleMessage(context.Background(), "", nil, []byte(plainMessage))
		if err != nil {
			t.Fatalf("handleMessage returned error: %v", err)
		}
		if !strings.HasPrefix(string(out), "X-Threat-Analysis-Error: boom\r\n") {
			t.Errorf("error header missing: %q", out)
		}
	})
}

func TestSessionForwardsMessage(t *testing.T) {
	classifier := &fakeClassifier{emailVerdict: &core.EmailVerdict{
		Features: &core.EmailFeatures{SenderDomain: "example.com"},
		Label:    core.LabelHam,
	}}
	f := NewPostfixFilter(classifier, zaptest.NewLogger(t), PostfixConfig{PostfixEnabled: true})

	var gotSender string
	var gotData []byte
	f.forward = func(sender string, recipients []string, data []byte) error {
		gotSender = sender
		gotData = data
		return nil
	}

	session := &smtpSession{filter: f}
	if err := session.Mail("friend@example.com", nil); err != nil {
		t.Fatal(err)
	}
	if err := session.Rcpt("me@example.com", nil); err != nil {
		t.Fatal(err)
	}
	if err := session.Data(strings.NewReader(plainMessage)); err != nil {
		t.Fatalf("Data returned error: %v", err)
	}

	if gotSender != "friend@example.com" {
		t.Errorf("forwarded sender = %q", gotSender)
	}
	if !strings.Contains(string(gotData), "X-Threat-Label: HAM") {
		t.Errorf("forwarded message not tagged: %q", gotData)
	}
}

func TestReasons(t *testing.T) {
	got := Reasons(spamVerdict())
	want := []string{
		"sender domain imitates paypal.com",
		"spam keywords: verify your account",
		"malicious attachments: invoice.exe",
		"spf=fail",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Reasons() = %v, want %v", got, want)
	}

	safe := Reasons(&core.EmailVerdict{Features: &core.EmailFeatures{SenderDomain: "google.com"}, SafeDomainOverride: true})
	if len(safe) != 1 || safe[0] != "safe sender domain google.com" {
		t.Errorf("Reasons() for safe domain = %v", safe)
	}
}

func TestCliFilter(t *testing.T) {
	pterm.DisableOutput()
	defer pterm.EnableOutput()

	classifier := &fakeClassifier{
		emailVerdict: spamVerdict(),
		urlVerdict: &core.URLVerdict{
			URL:         "http://paypal-login.xyz",
			Features:    core.NewFeatureVector(),
			Label:       core.LabelPhishing,
			RuleLabel:   core.LabelPhishing,
			ModelLabel:  "Unavailable",
			ModelStatus: core.ModelUnavailable,
		},
		textVerdict: &core.TextVerdict{
			Message:      "You won a prize, click http://bit.ly/x",
			SpamKeywords: []string{"won", "prize", "click"},
			PhishingURLs: []string{core.NoneDetected},
			RuleScam:     true,
			ModelStatus:  core.ModelUnavailable,
			Label:        core.LabelScam,
		},
	}
	f, err := NewCliFilter(classifier, zaptest.NewLogger(t), true, true)
	if err != nil {
		t.Fatal(err)
	}

	verdict, err := f.ProcessEmail(context.Background(), &core.Email{From: "a@paypa1.com", Body: "x"})
	if err != nil || verdict.Label != core.LabelSpam {
		t.Fatalf("ProcessEmail() = %v, %v", verdict, err)
	}
	if !classifier.lastOpts.Save {
		t.Error("save option not forwarded")
	}

	urlVerdict, err := f.CheckURL(context.Background(), "http://paypal-login.xyz")
	if err != nil || urlVerdict.Label != core.LabelPhishing {
		t.Fatalf("CheckURL() = %v, %v", urlVerdict, err)
	}

	textVerdict, err := f.CheckText(context.Background(), "You won a prize, click http://bit.ly/x")
	if err != nil || textVerdict.Label != core.LabelScam {
		t.Fatalf("CheckText() = %v, %v", textVerdict, err)
	}

	classifier.err = core.ErrEmptyInput
	if _, err := f.CheckText(context.Background(), " "); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("CheckText error = %v", err)
	}
	if _, err := f.CheckURL(context.Background(), ""); !errors.Is(err, core.ErrEmptyInput) {
		t.Errorf("CheckURL error = %v", err)
	}
}
