// Package blacklist loads the known-bad domain and IP lists.
package blacklist

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// DefaultDomains is used when no blacklist file can be read
var DefaultDomains = []string{"scamoffers.org", "phishing.com"}

// DefaultIPs is used when no blacklist file can be read
var DefaultIPs = []string{"192.168.1.1", "10.0.0.1"}

// file is the on-disk layout. JSON documents parse as YAML.
type file struct {
	Domains []string `yaml:"domains"`
	IPs     []string `yaml:"ips"`
}

// Blacklist is an immutable set of known-bad domains and IPs
type Blacklist struct {
	domains map[string]struct{}
	ips     map[string]struct{}
}

// New creates a blacklist from explicit lists
func New(domains, ips []string) *Blacklist {
	b := &Blacklist{
		domains: make(map[string]struct{}, len(domains)),
		ips:     make(map[string]struct{}, len(ips)),
	}
	for _, domain := range domains {
		if domain = strings.ToLower(strings.TrimSpace(domain)); domain != "" {
			b.domains[domain] = struct{}{}
		}
	}
	for _, ip := range ips {
		if ip = strings.TrimSpace(ip); ip != "" {
			b.ips[ip] = struct{}{}
		}
	}
	return b
}

// Default returns the built-in blacklist
func Default() *Blacklist {
	return New(DefaultDomains, DefaultIPs)
}

// Parse reads a YAML or JSON blacklist document
func Parse(data []byte) (*Blacklist, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse blacklist: %w", err)
	}
	return New(f.Domains, f.IPs), nil
}

// Load reads the blacklist at path. Any failure falls back to the built-in
// lists with a warning.
func Load(path string, logger *zap.Logger) *Blacklist {
	if path == "" {
		logger.Info("No blacklist file configured, using built-in blacklist")
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Failed to read blacklist, using built-in blacklist",
			zap.String("path", path),
			zap.Error(err))
		return Default()
	}

	b, err := Parse(data)
	if err != nil {
		logger.Warn("Invalid blacklist, using built-in blacklist",
			zap.String("path", path),
			zap.Error(err))
		return Default()
	}

	logger.Info("Loaded blacklist",
		zap.String("path", path),
		zap.Int("domains", len(b.domains)),
		zap.Int("ips", len(b.ips)))
	return b
}

// HasDomain reports whether domain is blacklisted
func (b *Blacklist) HasDomain(domain string) bool {
	_, ok := b.domains[strings.ToLower(strings.TrimSpace(domain))]
	return ok
}

// HasIP reports whether ip is blacklisted
func (b *Blacklist) HasIP(ip string) bool {
	_, ok := b.ips[strings.TrimSpace(ip)]
	return ok
}

// Domains returns the blacklisted domains, sorted
func (b *Blacklist) Domains() []string {
	return sortedKeys(b.domains)
}

// IPs returns the blacklisted IPs, sorted
func (b *Blacklist) IPs() []string {
	return sortedKeys(b.ips)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
