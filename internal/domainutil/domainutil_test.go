package domainutil

import "testing"

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		ok     bool
		reason string
	}{
		{"https url", "https://example.com/login", true, "OK"},
		{"with port", "http://example.com:8080/", true, "OK"},
		{"ipv4 host", "http://192.168.1.10/admin", true, "OK"},
		{"no scheme has no netloc", "example.com", false, "Missing domain"},
		{"empty", "", false, "Missing domain"},
		{"dotless host", "http://localhost/", false, "Invalid domain"},
		{"plain text", "not a url", false, "Missing domain"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, reason := Validate(tt.url)
			if ok != tt.ok || reason != tt.reason {
				t.Errorf("Validate(%q) = (%v, %q), want (%v, %q)", tt.url, ok, reason, tt.ok, tt.reason)
			}
		})
	}
}

func TestValidate_ParseError(t *testing.T) {
	ok, reason := Validate("http://[::1")
	if ok {
		t.Fatal("expected malformed URL to be invalid")
	}
	if len(reason) < len("Validation error") || reason[:len("Validation error")] != "Validation error" {
		t.Errorf("unexpected reason %q", reason)
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"example.com/path":     "http://example.com/path",
		"https://example.com":  "https://example.com",
		"http://Example.COM/A": "http://Example.COM/A",
	}
	for in, want := range tests {
		if got := Normalize(in); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"alice@Example.COM", "example.com"},
		{"Alice <alice@Mail.Example.org>", "mail.example.org"},
		{"weird@name@evil.net", "evil.net"},
		{"https://Login.PayPal.com:443/signin", "login.paypal.com"},
		{"http://10.0.0.1:8080/", "10.0.0.1"},
		{"Example.com", "example.com"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExtractDomain(tt.in); got != tt.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRegistrableDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"login.paypal.com", "paypal.com"},
		{"www.bbc.co.uk", "bbc.co.uk"},
		{"Secure.Example.ORG.", "example.org"},
		{"192.168.1.1", "192.168.1.1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := RegistrableDomain(tt.host); got != tt.want {
			t.Errorf("RegistrableDomain(%q) = %q, want %q", tt.host, got, tt.want)
		}
	}
}

func TestIsIPv4Literal(t *testing.T) {
	if !IsIPv4Literal("8.8.8.8") {
		t.Error("8.8.8.8 should be an IPv4 literal")
	}
	if IsIPv4Literal("8.8.8.example") {
		t.Error("hostname should not be an IPv4 literal")
	}
}
