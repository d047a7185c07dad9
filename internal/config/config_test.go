package config

import (
	"testing"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/whitelist"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	features := cfg.GetFeatures()
	if !features.WhoisEnabled || !features.HTTPEnabled {
		t.Errorf("lookups should be enabled by default: %+v", features)
	}
	if features.WhoisTimeout != 5*time.Second || features.HTTPTimeout != 5*time.Second {
		t.Errorf("timeouts = %v/%v", features.WhoisTimeout, features.HTTPTimeout)
	}
	if features.CacheCapacity != 1024 || features.BatchWorkers != 4 {
		t.Errorf("capacity/workers = %d/%d", features.CacheCapacity, features.BatchWorkers)
	}

	if got := cfg.GetScoring().Weights; got != core.DefaultRuleWeights() {
		t.Errorf("weights = %+v, want defaults", got)
	}

	lists := cfg.GetLists()
	if len(lists.SafeDomains) != len(whitelist.DefaultSafeDomains) {
		t.Errorf("safe domains = %v", lists.SafeDomains)
	}
	if lists.TrustedBrands["paypal"] != "paypal.com" {
		t.Errorf("trusted brands = %v", lists.TrustedBrands)
	}

	if cfg.GetLLM().Provider != "none" {
		t.Errorf("llm provider = %q, want none", cfg.GetLLM().Provider)
	}
	if h := cfg.GetHistory(); h.Type != "none" || h.CleanupFrequency != time.Hour {
		t.Errorf("history = %+v", h)
	}

	server := cfg.GetServer()
	if server.LabelHeader != "X-Threat-Label" || server.PostfixPort != 10026 {
		t.Errorf("server = %+v", server)
	}
}

func TestMalformedDurationFallsBack(t *testing.T) {
	v := NewEmptyViper()
	v.Set("history.retention", "ninety days")
	v.Set("features.whois_timeout", "-1s")
	cfg := NewFromViper(v)

	if got := cfg.GetHistory().Retention; got != 90*24*time.Hour {
		t.Errorf("retention = %v", got)
	}
	if got := cfg.GetFeatures().WhoisTimeout; got != 5*time.Second {
		t.Errorf("whois timeout = %v", got)
	}
}

func TestEmptyListsUseDefaults(t *testing.T) {
	v := NewEmptyViper()
	v.Set("lists.safe_domains", []string{})
	v.Set("lists.trusted_brands", map[string]string{})
	lists := NewFromViper(v).GetLists()

	if len(lists.SafeDomains) == 0 || len(lists.TrustedBrands) == 0 {
		t.Errorf("empty lists not replaced by defaults: %+v", lists)
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PHISHGUARD_FEATURES_WHOIS_ENABLED", "false")
	t.Setenv("PHISHGUARD_LLM_PROVIDER", "openai")
	t.Setenv("PHISHGUARD_SCORING_WEIGHTS_TYPO_DOMAIN", "2.5")

	cfg, err := New()
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if cfg.GetFeatures().WhoisEnabled {
		t.Error("whois should be disabled by the environment")
	}
	if cfg.GetLLM().Provider != "openai" {
		t.Errorf("provider = %q", cfg.GetLLM().Provider)
	}
	if got := cfg.GetScoring().Weights.TypoDomain; got != 2.5 {
		t.Errorf("typo weight = %v", got)
	}
}

func TestZeroRetentionDisablesPruning(t *testing.T) {
	v := NewEmptyViper()
	v.Set("history.retention", "0")
	if got := NewFromViper(v).GetHistory().Retention; got != 0 {
		t.Errorf("retention = %v, want 0", got)
	}

	v.Set("history.retention", "-1h")
	if got := NewFromViper(v).GetHistory().Retention; got != 90*24*time.Hour {
		t.Errorf("negative retention = %v, want default", got)
	}
}

func TestLoggingDefaults(t *testing.T) {
	got := NewFromViper(NewEmptyViper()).GetLogging()
	want := LoggingConfig{Level: "info", Format: "json", Output: "stderr"}
	if got != want {
		t.Errorf("logging = %+v, want %+v", got, want)
	}
}
