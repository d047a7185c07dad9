package filter

import (
	"fmt"
	"strings"

	"github.com/mikey/phishguard/internal/core"
)

// Reasons lists the evidence behind an email verdict in rule order
func Reasons(v *core.EmailVerdict) []string {
	if v.SafeDomainOverride {
		return []string{"safe sender domain " + v.Features.SenderDomain}
	}

	f := v.Features
	var reasons []string
	if f.IsSuspiciousDomain {
		reasons = append(reasons, "blacklisted sender domain "+f.SenderDomain)
	}
	if f.IsTypoDomain {
		reasons = append(reasons, fmt.Sprintf("sender domain imitates %s", f.TypoOf))
	}
	if len(f.SpamKeywords) > 0 {
		reasons = append(reasons, "spam keywords: "+strings.Join(f.SpamKeywords, ", "))
	}
	if n := countEvidence(f.PhishingURLs); n > 0 {
		reasons = append(reasons, fmt.Sprintf("%d phishing URL(s)", n))
	}
	if n := countEvidence(f.MaliciousAttachments); n > 0 {
		reasons = append(reasons, "malicious attachments: "+strings.Join(f.MaliciousAttachments, ", "))
	}
	for _, auth := range []struct{ name, status string }{
		{"spf", f.SPFStatus},
		{"dkim", f.DKIMStatus},
		{"dmarc", f.DMARCStatus},
	} {
		if !strings.EqualFold(strings.TrimSpace(auth.status), "pass") {
			reasons = append(reasons, auth.name+"="+auth.status)
		}
	}
	if f.IsBlacklistedOriginIP {
		reasons = append(reasons, "blacklisted origin IP "+f.OriginIP)
	}
	if v.ModelStatus != core.ModelAvailable {
		reasons = append(reasons, "model "+string(v.ModelStatus))
	}

	if len(reasons) == 0 {
		return []string{"no rule matched"}
	}
	return reasons
}

func countEvidence(items []string) int {
	n := 0
	for _, item := range items {
		if item != core.NoneDetected {
			n++
		}
	}
	return n
}
