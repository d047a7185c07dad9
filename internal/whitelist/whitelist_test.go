package whitelist

import (
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestChecker_IsSafeDomain(t *testing.T) {
	checker := NewChecker([]string{" Gmail.com ", "paypal.com", "", "gmail.com"}, zaptest.NewLogger(t))

	tests := []struct {
		domain string
		want   bool
	}{
		{"gmail.com", true},
		{"GMAIL.COM", true},
		{"paypal.com", true},
		{"mail.paypal.com", false},
		{"paypa1.com", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := checker.IsSafeDomain(tt.domain); got != tt.want {
			t.Errorf("IsSafeDomain(%q) = %v, want %v", tt.domain, got, tt.want)
		}
	}

	if got := len(checker.Domains()); got != 2 {
		t.Errorf("Domains() has %d entries, want 2", got)
	}
}

func TestChecker_IsWhitelisted(t *testing.T) {
	checker := NewChecker(DefaultSafeDomains, nil)

	if !checker.IsWhitelisted("Alice <alice@gmail.com>") {
		t.Error("display-name address on a safe domain should be whitelisted")
	}
	if checker.IsWhitelisted("bob@gmai1.com") {
		t.Error("lookalike domain must not be whitelisted")
	}
	if NewChecker(nil, nil).IsWhitelisted("alice@gmail.com") {
		t.Error("empty checker whitelists nothing")
	}
}

func TestBrandTable_Impersonates(t *testing.T) {
	table := NewBrandTable(DefaultTrustedBrands)

	tests := []struct {
		host  string
		brand string
		want  bool
	}{
		{"paypal-secure.xyz", "paypal", true},
		{"www.paypal.com", "", false},
		{"login.microsoft.com", "", false},
		{"microsoft-support.net", "microsoft", true},
		{"amazon.com", "amazon", true},
		{"example.org", "", false},
	}

	for _, tt := range tests {
		brand, got := table.Impersonates(tt.host)
		if got != tt.want || brand != tt.brand {
			t.Errorf("Impersonates(%q) = (%q, %v), want (%q, %v)", tt.host, brand, got, tt.brand, tt.want)
		}
	}

	if table.Len() != len(DefaultTrustedBrands) {
		t.Errorf("Len() = %d, want %d", table.Len(), len(DefaultTrustedBrands))
	}
}
