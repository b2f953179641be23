package provider

import (
	"context"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/country"
)

// CountryStore supplies the sanctioned-country reference set. The postgres
// repository implements it; the redis read-through cache wraps it in front.
type CountryStore interface {
	SanctionedCountries(ctx context.Context) ([]string, error)
}

// NewCountryRefFetcher adapts a CountryStore to the Fetcher interface so the
// reference set flows through the same session cache as remote providers.
func NewCountryRefFetcher(store CountryStore) Fetcher {
	return FetcherFunc{
		ID: country.Provider,
		Fn: func(ctx context.Context, _ Key) (interface{}, error) {
			countries, err := store.SanctionedCountries(ctx)
			if err != nil {
				return nil, err
			}
			return &country.RefData{Countries: countries}, nil
		},
	}
}
