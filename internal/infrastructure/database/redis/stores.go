package redis

import (
	"context"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
)

const (
	countriesKey    = "ref:countries"
	descriptionsKey = "ref:descriptions"

	// Reference tables change rarely; an hour keeps a crashed loader from
	// serving stale data forever without hitting postgres on every probe.
	refTTL = time.Hour
)

// CachedCountrySource fronts the sanctioned-country table with the redis
// read-through cache. It satisfies both the resolver country source and
// the provider country store.
type CachedCountrySource struct {
	cache  Cache
	source resolver.CountrySource
	ttl    time.Duration
}

func NewCachedCountrySource(cache Cache, source resolver.CountrySource) *CachedCountrySource {
	return &CachedCountrySource{cache: cache, source: source, ttl: refTTL}
}

func (s *CachedCountrySource) SanctionedCountries(ctx context.Context) ([]string, error) {
	var countries []string
	err := s.cache.GetOrSet(ctx, countriesKey, &countries, s.ttl, func(ctx context.Context) (interface{}, error) {
		loaded, err := s.source.SanctionedCountries(ctx)
		if err != nil {
			return nil, err
		}
		return loaded, nil
	})
	if err == ErrCacheMiss {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return countries, nil
}

// Invalidate drops the cached set so the next read reloads from postgres.
func (s *CachedCountrySource) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, countriesKey)
}

// descriptionRecord is the flat wire form of one description entry. The
// nested table keyed by risk level does not round-trip through JSON
// cleanly, so the cache stores a record list and rebuilds the table.
type descriptionRecord struct {
	RiskType     string     `json:"risk_type"`
	Level        risk.Level `json:"level"`
	RiskDesc     string     `json:"risk_desc"`
	RiskDescInfo string     `json:"risk_desc_info"`
	Info         string     `json:"info"`
}

// CachedDescriptionSource fronts the description table with the redis
// read-through cache.
type CachedDescriptionSource struct {
	cache  Cache
	source resolver.DescriptionSource
	ttl    time.Duration
}

func NewCachedDescriptionSource(cache Cache, source resolver.DescriptionSource) *CachedDescriptionSource {
	return &CachedDescriptionSource{cache: cache, source: source, ttl: refTTL}
}

func (s *CachedDescriptionSource) LoadDescriptions(ctx context.Context) (resolver.DescriptionTable, error) {
	var records []descriptionRecord
	err := s.cache.GetOrSet(ctx, descriptionsKey, &records, s.ttl, func(ctx context.Context) (interface{}, error) {
		table, err := s.source.LoadDescriptions(ctx)
		if err != nil {
			return nil, err
		}
		return flattenDescriptions(table), nil
	})
	if err == ErrCacheMiss {
		return resolver.DescriptionTable{}, nil
	}
	if err != nil {
		return nil, err
	}

	table := resolver.DescriptionTable{}
	for _, r := range records {
		table.Put(r.RiskType, r.Level, resolver.Description{
			RiskDesc:     r.RiskDesc,
			RiskDescInfo: r.RiskDescInfo,
			Info:         r.Info,
		})
	}
	return table, nil
}

// Invalidate drops the cached table so the next load reloads from postgres.
func (s *CachedDescriptionSource) Invalidate(ctx context.Context) error {
	return s.cache.Delete(ctx, descriptionsKey)
}

func flattenDescriptions(table resolver.DescriptionTable) []descriptionRecord {
	var records []descriptionRecord
	for riskType, byLevel := range table {
		for level, d := range byLevel {
			records = append(records, descriptionRecord{
				RiskType:     riskType,
				Level:        level,
				RiskDesc:     d.RiskDesc,
				RiskDescInfo: d.RiskDescInfo,
				Info:         d.Info,
			})
		}
	}
	return records
}
