package redis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/application/resolver"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/risk"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

type countingCountrySource struct {
	calls     int
	countries []string
}

func (s *countingCountrySource) SanctionedCountries(_ context.Context) ([]string, error) {
	s.calls++
	return s.countries, nil
}

type countingDescSource struct {
	calls int
	table resolver.DescriptionTable
}

func (s *countingDescSource) LoadDescriptions(_ context.Context) (resolver.DescriptionTable, error) {
	s.calls++
	return s.table, nil
}

func newTestCache(t *testing.T) Cache {
	t.Helper()
	client, _ := newMiniredisClient(t)
	return NewRedisCache(client, logging.NewNopLogger(), WithTTLJitter(0))
}

func TestCachedCountrySource_LoadsOnceAndServesFromCache(t *testing.T) {
	source := &countingCountrySource{countries: []string{"伊朗", "俄罗斯"}}
	cached := NewCachedCountrySource(newTestCache(t), source)
	ctx := context.Background()

	got, err := cached.SanctionedCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"伊朗", "俄罗斯"}, got)

	got, err = cached.SanctionedCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"伊朗", "俄罗斯"}, got)
	assert.Equal(t, 1, source.calls)
}

func TestCachedCountrySource_InvalidateForcesReload(t *testing.T) {
	source := &countingCountrySource{countries: []string{"伊朗"}}
	cached := NewCachedCountrySource(newTestCache(t), source)
	ctx := context.Background()

	_, err := cached.SanctionedCountries(ctx)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx))

	_, err = cached.SanctionedCountries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCachedDescriptionSource_RoundTripsTable(t *testing.T) {
	table := resolver.DescriptionTable{}
	table.Put("is_san", risk.High, resolver.Description{
		RiskDesc:     "涉制裁名单",
		RiskDescInfo: "命中制裁名单",
		Info:         "建议终止交易",
	})
	table.Put("is_sco", risk.Medium, resolver.Description{
		RiskDesc:     "涉制裁国家控制",
		RiskDescInfo: "受制裁国家持股",
		Info:         "建议加强尽调",
	})
	source := &countingDescSource{table: table}
	cached := NewCachedDescriptionSource(newTestCache(t), source)
	ctx := context.Background()

	got, err := cached.LoadDescriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "建议终止交易", got.Get("is_san", risk.High).Info)

	// Second load hits the cache and still rebuilds the full table.
	got, err = cached.LoadDescriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, "建议加强尽调", got.Get("is_sco", risk.Medium).Info)
	assert.Equal(t, 1, source.calls)

	// Entries never cached still fall back to the generated default.
	assert.Equal(t, "风险判定为: 中风险", got.Get("is_ool", risk.Medium).Info)
}
