// Package domainutil validates and normalizes URLs and extracts domains from
// URLs and email addresses.
package domainutil

import (
	"fmt"
	"net/mail"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var ipv4Pattern = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+$`)

// Validate checks that rawURL has a network location whose host is either a
// dotted hostname or a dotted IPv4 literal.
func Validate(rawURL string) (bool, string) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, fmt.Sprintf("Validation error: %v", err)
	}
	if parsed.Host == "" {
		return false, "Missing domain"
	}

	host := parsed.Hostname()
	if !strings.Contains(host, ".") && !IsIPv4Literal(host) {
		return false, "Invalid domain"
	}

	return true, "OK"
}

// Normalize prefixes http:// when rawURL has no scheme
func Normalize(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" {
		return "http://" + rawURL
	}
	return rawURL
}

// Host returns the lower-cased host of rawURL without its port
func Host(rawURL string) string {
	parsed, err := url.Parse(Normalize(rawURL))
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// ExtractDomain returns the domain of an email address or URL, lower-cased
func ExtractDomain(addressOrURL string) string {
	value := strings.TrimSpace(addressOrURL)
	if value == "" {
		return ""
	}

	if !strings.Contains(value, "://") && strings.Contains(value, "@") {
		if addr, err := mail.ParseAddress(value); err == nil {
			value = addr.Address
		}
		return strings.ToLower(strings.TrimSpace(value[strings.LastIndex(value, "@")+1:]))
	}

	if host := Host(value); host != "" {
		return host
	}
	return strings.ToLower(value)
}

// IsIPv4Literal reports whether host is a dotted IPv4 literal
func IsIPv4Literal(host string) bool {
	return ipv4Pattern.MatchString(host)
}

// RegistrableDomain returns the eTLD+1 of host, or host itself when it has none
func RegistrableDomain(host string) string {
	host = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(host)), ".")
	if host == "" || IsIPv4Literal(host) {
		return host
	}

	ascii := host
	if converted, err := idna.Lookup.ToASCII(host); err == nil && converted != "" {
		ascii = converted
	}

	if etld1, err := publicsuffix.EffectiveTLDPlusOne(ascii); err == nil {
		return strings.ToLower(etld1)
	}
	return ascii
}
