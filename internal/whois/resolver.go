package whois

import (
	"context"
	"errors"
	"time"

	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/domainutil"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// UnknownAge is the sentinel for a domain whose age could not be determined
const UnknownAge = -1

// Resolver returns domain ages in days, memoized per registrable domain
type Resolver struct {
	client  Client
	cache   core.DomainAgeCache
	enabled bool
	timeout time.Duration
	group   singleflight.Group
	metrics core.LookupRecorder
	logger  *zap.Logger
	now     func() time.Time
}

// NewResolver creates a new domain age resolver. metrics may be nil.
func NewResolver(
	client Client,
	cache core.DomainAgeCache,
	enabled bool,
	timeout time.Duration,
	metrics core.LookupRecorder,
	logger *zap.Logger,
) *Resolver {
	return &Resolver{
		client:  client,
		cache:   cache,
		enabled: enabled,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// AgeDays returns the age of domain in days, or -1 when unknown
func (r *Resolver) AgeDays(ctx context.Context, domain string) int {
	return r.Lookup(ctx, domain).Days
}

// Lookup returns the age of domain together with how the lookup ended.
// It never fails: every problem degrades to UnknownAge.
func (r *Resolver) Lookup(ctx context.Context, domain string) core.AgeResult {
	if !r.enabled {
		return core.AgeResult{Days: UnknownAge, Status: core.StatusDisabled}
	}

	key := domainutil.RegistrableDomain(domain)
	if key == "" || domainutil.IsIPv4Literal(key) {
		return core.AgeResult{Days: UnknownAge, Status: core.StatusSkipped}
	}

	if result, ok := r.cache.Get(key); ok {
		return result
	}

	value, _, _ := r.group.Do(key, func() (interface{}, error) {
		if result, ok := r.cache.Get(key); ok {
			return result, nil
		}

		result := r.fetch(ctx, key)
		// a cancelled caller says nothing about the domain
		if ctx.Err() == nil {
			r.cache.Add(key, result)
		}
		return result, nil
	})

	return value.(core.AgeResult)
}

func (r *Resolver) fetch(ctx context.Context, domain string) core.AgeResult {
	lookupCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	started := r.now()
	dates, err := r.creationDates(lookupCtx, domain)
	if err != nil {
		status := core.StatusError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			status = core.StatusTimeout
		case errors.Is(err, ErrNoCreationDate):
			status = core.StatusNotFound
		}

		r.logger.Debug("WHOIS lookup failed",
			zap.String("domain", domain),
			zap.String("status", string(status)),
			zap.Duration("elapsed", r.now().Sub(started)),
			zap.Error(err))
		r.observe(status)
		return core.AgeResult{Days: UnknownAge, Status: status}
	}

	days := int(r.now().Sub(dates[0]).Hours() / 24)
	r.logger.Debug("WHOIS lookup succeeded",
		zap.String("domain", domain),
		zap.Time("created", dates[0]),
		zap.Int("age_days", days))
	r.observe(core.StatusOK)

	return core.AgeResult{Days: days, Status: core.StatusOK}
}

type datesResult struct {
	dates []time.Time
	err   error
}

// creationDates bounds the client call by ctx even when the client ignores it
func (r *Resolver) creationDates(ctx context.Context, domain string) ([]time.Time, error) {
	resultCh := make(chan datesResult, 1)
	go func() {
		dates, err := r.client.CreationDates(ctx, domain)
		resultCh <- datesResult{dates: dates, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultCh:
		if res.err == nil && len(res.dates) == 0 {
			return nil, ErrNoCreationDate
		}
		return res.dates, res.err
	}
}

func (r *Resolver) observe(status core.LookupStatus) {
	if r.metrics != nil {
		r.metrics.ObserveLookup("whois", status)
	}
}
