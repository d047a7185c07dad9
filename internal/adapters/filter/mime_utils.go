package filter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/emersion/go-msgauth/authres"
	"github.com/emersion/go-msgauth/dkim"
	"github.com/jhillyerd/enmime"
	"github.com/mikey/phishguard/internal/core"
)

// AuthResults are the SPF, DKIM and DMARC outcomes of a message
type AuthResults struct {
	SPF   string
	DKIM  string
	DMARC string
}

// ParseMessage parses a raw RFC 5322 message into an Email. The body is the
// plain-text part, or the text rendering of the HTML part when there is none.
func ParseMessage(raw []byte) (*core.Email, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	email := &core.Email{
		From:     env.GetHeader("From"),
		Subject:  env.GetHeader("Subject"),
		Body:     env.Text,
		Headers:  make(map[string][]string),
		OriginIP: strings.Trim(strings.TrimSpace(env.GetHeader("X-Originating-IP")), "[]"),
	}

	if env.Root != nil {
		for key, values := range env.Root.Header {
			email.Headers[key] = append([]string(nil), values...)
		}
	}

	if addresses, err := env.AddressList("To"); err == nil {
		for _, addr := range addresses {
			email.To = append(email.To, addr.Address)
		}
	}

	for _, attachment := range env.Attachments {
		if attachment.FileName != "" {
			email.Attachments = append(email.Attachments, attachment.FileName)
		}
	}

	auth := AuthStatuses(email.Headers["Authentication-Results"])
	email.SPFStatus = auth.SPF
	email.DKIMStatus = auth.DKIM
	email.DMARCStatus = auth.DMARC

	return email, nil
}

// AuthStatuses reads the Authentication-Results headers added by the receiving
// MTA. The first header carrying a method wins, except that any passing DKIM
// signature makes DKIM pass. Missing methods are "none".
func AuthStatuses(headers []string) AuthResults {
	results := AuthResults{}

	for _, header := range headers {
		_, parsed, err := authres.Parse(header)
		if err != nil {
			continue
		}
		for _, result := range parsed {
			switch r := result.(type) {
			case *authres.SPFResult:
				if results.SPF == "" {
					results.SPF = string(r.Value)
				}
			case *authres.DKIMResult:
				if results.DKIM == "" || r.Value == authres.ResultPass {
					results.DKIM = string(r.Value)
				}
			case *authres.DMARCResult:
				if results.DMARC == "" {
					results.DMARC = string(r.Value)
				}
			}
		}
	}

	if results.SPF == "" {
		results.SPF = string(authres.ResultNone)
	}
	if results.DKIM == "" {
		results.DKIM = string(authres.ResultNone)
	}
	if results.DMARC == "" {
		results.DMARC = string(authres.ResultNone)
	}
	return results
}

// VerifyDKIM checks the DKIM signatures of raw. It returns "pass" when one
// signature verifies, "fail" when all fail and "" when the message is unsigned.
func VerifyDKIM(raw []byte) (string, error) {
	verifications, err := dkim.Verify(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to verify DKIM signatures: %w", err)
	}
	if len(verifications) == 0 {
		return "", nil
	}

	for _, v := range verifications {
		if v.Err == nil {
			return string(authres.ResultPass), nil
		}
	}
	return string(authres.ResultFail), nil
}
