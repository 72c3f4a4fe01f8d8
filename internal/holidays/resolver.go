// Package holidays resolves the holiday set used for due-date math. Sources
// are tried in order: the organization-curated list, the external public
// holiday API (through a cache), and the compiled-in baseline.
package holidays

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/oirs-service/internal/calendar"
)

// Source names where a resolved set came from.
type Source string

const (
	SourceCurated  Source = "curated"
	SourceCache    Source = "cache"
	SourceExternal Source = "external"
	SourceBaseline Source = "baseline"
	SourceNone     Source = "none"
)

// Store reads organization-curated lists by key.
type Store interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
}

// Cache keeps externally fetched lists between requests.
type Cache interface {
	Get(ctx context.Context, key string) ([]string, bool, error)
	Set(ctx context.Context, key string, days []string, ttl time.Duration) error
}

// Fetcher retrieves public holidays from an external source.
type Fetcher interface {
	Fetch(ctx context.Context, jurisdiction string, year int) ([]string, error)
}

// Resolver walks the source chain. Any source may be nil.
type Resolver struct {
	jurisdiction string
	store        Store
	cache        Cache
	fetcher      Fetcher
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// Options configures a Resolver.
type Options struct {
	Jurisdiction string
	Store        Store
	Cache        Cache
	Fetcher      Fetcher
	CacheTTL     time.Duration
	Logger       *zap.Logger
}

// NewResolver builds a resolver.
func NewResolver(opts Options) *Resolver {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	jurisdiction := opts.Jurisdiction
	if jurisdiction == "" {
		jurisdiction = "CL"
	}
	return &Resolver{
		jurisdiction: jurisdiction,
		store:        opts.Store,
		cache:        opts.Cache,
		fetcher:      opts.Fetcher,
		cacheTTL:     opts.CacheTTL,
		logger:       logger,
	}
}

// Jurisdiction returns the country code the resolver serves.
func (r *Resolver) Jurisdiction() string {
	return r.jurisdiction
}

// ForYear resolves the holiday set of one year. Source failures are logged
// and the next source is tried; it never fails.
func (r *Resolver) ForYear(ctx context.Context, year int) (calendar.HolidaySet, Source) {
	key := calendar.HolidayKey(r.jurisdiction, year)
	log := r.logger.With(zap.String("holiday_key", key))

	if r.store != nil {
		days, ok, err := r.store.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("curated holiday lookup failed", zap.Error(err))
		case ok:
			set, err := calendar.ParseHolidaySet(days)
			if err == nil {
				return set, SourceCurated
			}
			log.Warn("curated holiday list is malformed", zap.Error(err))
		}
	}

	if r.cache != nil {
		days, ok, err := r.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.Warn("holiday cache read failed", zap.Error(err))
		case ok:
			if set, err := calendar.ParseHolidaySet(days); err == nil {
				return set, SourceCache
			}
		}
	}

	if r.fetcher != nil {
		days, err := r.fetcher.Fetch(ctx, r.jurisdiction, year)
		if err != nil {
			log.Warn("external holiday fetch failed", zap.Error(err))
		} else if set, err := calendar.ParseHolidaySet(days); err != nil {
			log.Warn("external holiday list is malformed", zap.Error(err))
		} else {
			if r.cache != nil && r.cacheTTL > 0 {
				if err := r.cache.Set(ctx, key, set.Days(), r.cacheTTL); err != nil {
					log.Warn("holiday cache write failed", zap.Error(err))
				}
			}
			return set, SourceExternal
		}
	}

	if set, ok := calendar.Baseline(key); ok {
		return set, SourceBaseline
	}

	log.Warn("no holiday source available; only weekends are excluded")
	return calendar.HolidaySet{}, SourceNone
}

// ForDueDate returns the union of the holiday sets of every year a due date
// computed from receivedAt may span.
func (r *Resolver) ForDueDate(ctx context.Context, receivedAt time.Time) calendar.HolidaySet {
	set := calendar.HolidaySet{}
	for _, year := range calendar.YearsSpanned(receivedAt) {
		yearSet, _ := r.ForYear(ctx, year)
		set = set.Union(yearSet)
	}
	return set
}

// Warm resolves the given years so external results land in the cache.
func (r *Resolver) Warm(ctx context.Context, years ...int) {
	for _, year := range years {
		set, source := r.ForYear(ctx, year)
		r.logger.Info("holidays resolved",
			zap.String("holiday_key", calendar.HolidayKey(r.jurisdiction, year)),
			zap.String("source", string(source)),
			zap.Int("count", len(set)))
	}
}
