package blacklist

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "blacklist.yaml")
	if err := os.WriteFile(yamlPath, []byte("domains:\n  - Evil.example\nips:\n  - 203.0.113.7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	jsonPath := filepath.Join(dir, "blacklist.json")
	if err := os.WriteFile(jsonPath, []byte(`{"domains": ["bad.example"], "ips": []}`), 0o644); err != nil {
		t.Fatal(err)
	}
	brokenPath := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(brokenPath, []byte("domains: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		path        string
		wantDomains []string
		wantIPs     []string
	}{
		{"yaml file", yamlPath, []string{"evil.example"}, []string{"203.0.113.7"}},
		{"json file", jsonPath, []string{"bad.example"}, []string{}},
		{"missing file", filepath.Join(dir, "nope.yaml"), []string{"phishing.com", "scamoffers.org"}, []string{"10.0.0.1", "192.168.1.1"}},
		{"broken file", brokenPath, []string{"phishing.com", "scamoffers.org"}, []string{"10.0.0.1", "192.168.1.1"}},
		{"no path", "", []string{"phishing.com", "scamoffers.org"}, []string{"10.0.0.1", "192.168.1.1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Load(tt.path, zaptest.NewLogger(t))
			if got := b.Domains(); !reflect.DeepEqual(got, tt.wantDomains) {
				t.Errorf("Domains() = %v, want %v", got, tt.wantDomains)
			}
			if got := b.IPs(); !reflect.DeepEqual(got, tt.wantIPs) {
				t.Errorf("IPs() = %v, want %v", got, tt.wantIPs)
			}
		})
	}
}

func TestBlacklist_Lookups(t *testing.T) {
	b := Default()

	if !b.HasDomain("Phishing.com ") {
		t.Error("domain lookup should ignore case and whitespace")
	}
	if b.HasDomain("www.phishing.com") {
		t.Error("subdomains are not blacklisted")
	}
	if !b.HasIP("10.0.0.1") || b.HasIP("10.0.0.2") {
		t.Error("unexpected IP lookup result")
	}
}
