// Package whois resolves domain ages from WHOIS registration records.
package whois

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// ErrNoCreationDate is returned when a record carries no usable creation date
var ErrNoCreationDate = errors.New("no creation date in whois record")

// Client fetches the creation dates of a registered domain
type Client interface {
	CreationDates(ctx context.Context, domain string) ([]time.Time, error)
}

// LikexianClient queries WHOIS servers and parses the raw record
type LikexianClient struct {
	client *whois.Client
}

// NewLikexianClient creates a WHOIS client whose socket operations are bounded by timeout
func NewLikexianClient(timeout time.Duration) *LikexianClient {
	return &LikexianClient{
		client: whois.NewClient().SetTimeout(timeout),
	}
}

// CreationDates looks up domain and returns its creation dates in record order.
// The socket timeout bounds the call; ctx is checked before dialing.
func (c *LikexianClient) CreationDates(ctx context.Context, domain string) (dates []time.Time, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := c.client.Whois(domain)
	if err != nil {
		return nil, fmt.Errorf("whois lookup for %s failed: %w", domain, err)
	}

	// whoisparser panics on some malformed records
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic parsing whois record for %s: %v", domain, r)
		}
	}()

	info, err := whoisparser.Parse(raw)
	if err != nil {
		if errors.Is(err, whoisparser.ErrNotFoundDomain) {
			return nil, fmt.Errorf("%s: %w", domain, ErrNoCreationDate)
		}
		return nil, fmt.Errorf("failed to parse whois record for %s: %w", domain, err)
	}
	if info.Domain == nil {
		return nil, ErrNoCreationDate
	}

	dates = ParseCreationDates(info.Domain.CreatedDate)
	if len(dates) == 0 {
		return nil, ErrNoCreationDate
	}
	return dates, nil
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"2006.01.02",
	"2006/01/02",
	"02-Jan-2006",
	"02.01.2006",
	"January 2 2006",
	"Mon Jan 2 15:04:05 MST 2006",
}

// ParseCreationDates parses a creation date field that may list several comma-separated dates
func ParseCreationDates(field string) []time.Time {
	var dates []time.Time
	for _, part := range strings.Split(field, ",") {
		if date, ok := parseDate(strings.TrimSpace(part)); ok {
			dates = append(dates, date)
		}
	}
	return dates
}

func parseDate(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
