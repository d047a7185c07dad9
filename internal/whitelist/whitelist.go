package whitelist

import (
	"sort"
	"strings"

	"github.com/mikey/phishguard/internal/domainutil"
	"go.uber.org/zap"
)

// DefaultSafeDomains are the sender domains forced to HAM when none are configured
var DefaultSafeDomains = []string{
	"amazon.in", "amazon.com", "google.com", "gmail.com", "annauniv.edu",
	"outlook.com", "office.com", "microsoft.com", "paypal.com",
}

// DefaultTrustedBrands maps brand tokens to their canonical domain
var DefaultTrustedBrands = map[string]string{
	"paypal":    "paypal.com",
	"amazon":    "amazon.in",
	"microsoft": "microsoft.com",
	"google":    "google.com",
	"apple":     "apple.com",
}

// Checker provides functionality to check if sender domains are on the safe list
type Checker struct {
	domains []string
	index   map[string]struct{}
	logger  *zap.Logger
}

// NewChecker creates a new safe-domain checker
func NewChecker(domains []string, logger *zap.Logger) *Checker {
	normalizedDomains := make([]string, 0, len(domains))
	index := make(map[string]struct{}, len(domains))
	for _, domain := range domains {
		domain = strings.ToLower(strings.TrimSpace(domain))
		if domain == "" {
			continue
		}
		if _, ok := index[domain]; ok {
			continue
		}
		index[domain] = struct{}{}
		normalizedDomains = append(normalizedDomains, domain)
	}

	if len(normalizedDomains) > 0 && logger != nil {
		logger.Info("Initialized safe domain checker", zap.Strings("domains", normalizedDomains))
	}

	return &Checker{
		domains: normalizedDomains,
		index:   index,
		logger:  logger,
	}
}

// IsSafeDomain reports whether domain is exactly one of the safe domains
func (c *Checker) IsSafeDomain(domain string) bool {
	if len(c.index) == 0 {
		return false
	}

	domain = strings.ToLower(strings.TrimSpace(domain))
	_, ok := c.index[domain]
	if ok && c.logger != nil {
		c.logger.Debug("Domain is on the safe list", zap.String("domain", domain))
	}
	return ok
}

// IsWhitelisted checks if the sender's domain is on the safe list
func (c *Checker) IsWhitelisted(from string) bool {
	return c.IsSafeDomain(domainutil.ExtractDomain(from))
}

// Domains returns the safe domains in configuration order
func (c *Checker) Domains() []string {
	return append([]string(nil), c.domains...)
}

// BrandTable maps brand tokens to the registered domain they legitimately live on
type BrandTable struct {
	brands []brand
}

type brand struct {
	token    string
	official string
}

// NewBrandTable creates a brand table. Tokens are matched in sorted order.
func NewBrandTable(brands map[string]string) *BrandTable {
	table := &BrandTable{brands: make([]brand, 0, len(brands))}
	for token, official := range brands {
		token = strings.ToLower(strings.TrimSpace(token))
		official = strings.ToLower(strings.TrimSpace(official))
		if token == "" || official == "" {
			continue
		}
		table.brands = append(table.brands, brand{token: token, official: official})
	}
	sort.Slice(table.brands, func(i, j int) bool {
		return table.brands[i].token < table.brands[j].token
	})
	return table
}

// Impersonates reports whether host mentions a brand without living on its domain.
// It returns the first impersonated brand token.
func (t *BrandTable) Impersonates(host string) (string, bool) {
	host = strings.ToLower(host)
	for _, b := range t.brands {
		if strings.Contains(host, b.token) && !strings.HasSuffix(host, b.official) {
			return b.token, true
		}
	}
	return "", false
}

// OfficialDomains returns the canonical domain of every brand
func (t *BrandTable) OfficialDomains() []string {
	domains := make([]string, 0, len(t.brands))
	for _, b := range t.brands {
		domains = append(domains, b.official)
	}
	return domains
}

// Len returns the number of brands
func (t *BrandTable) Len() int {
	return len(t.brands)
}
