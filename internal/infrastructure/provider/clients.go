package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/kpler"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/lloyds"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/uani"
	"github.com/zsx0855/cosco-comprehensive-query/internal/domain/probe/voyage"
	"github.com/zsx0855/cosco-comprehensive-query/pkg/errors"
)

// ClientConfig carries the connection settings of one upstream provider.
type ClientConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// httpClient is the shared GET-and-decode helper behind every provider client.
type httpClient struct {
	cfg    ClientConfig
	client *http.Client
}

func newHTTPClient(cfg ClientConfig) *httpClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &httpClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "build provider request")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "provider request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeProviderRateLimited, "provider rate limited").
			WithDetail(path)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.New(errors.ErrCodeProviderAuthFailed, "provider rejected credentials").
			WithDetail(path)
	case resp.StatusCode != http.StatusOK:
		return errors.New(errors.ErrCodeProviderUnavailable,
			fmt.Sprintf("provider returned status %d", resp.StatusCode)).
			WithDetail(path)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderUnavailable, "read provider response")
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrap(err, errors.ErrCodeProviderParseError, "decode provider response")
	}
	return nil
}

func windowQuery(key Key) url.Values {
	q := url.Values{}
	q.Set("imo", key.SubjectID)
	if key.WindowStart != "" {
		q.Set("startDate", key.WindowStart)
	}
	if key.WindowEnd != "" {
		q.Set("endDate", key.WindowEnd)
	}
	return q
}

// NewLloydsSanctionsFetcher fetches the Lloyd's vessel sanctions payload.
func NewLloydsSanctionsFetcher(cfg ClientConfig) Fetcher {
	c := newHTTPClient(cfg)
	return FetcherFunc{
		ID: lloyds.ProviderSanctions,
		Fn: func(ctx context.Context, key Key) (interface{}, error) {
			var out lloyds.SanctionsData
			if err := c.getJSON(ctx, "/vesselsanctions_v2", windowQuery(key), &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
	}
}

// NewLloydsComplianceFetcher fetches the Lloyd's vessel compliance payload.
func NewLloydsComplianceFetcher(cfg ClientConfig) Fetcher {
	c := newHTTPClient(cfg)
	return FetcherFunc{
		ID: lloyds.ProviderCompliance,
		Fn: func(ctx context.Context, key Key) (interface{}, error) {
			var out lloyds.ComplianceData
			if err := c.getJSON(ctx, "/vesselcompliancescreening_v3", windowQuery(key), &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
	}
}

// NewKplerFetcher fetches the Kpler compliance vessel payload.
func NewKplerFetcher(cfg ClientConfig) Fetcher {
	c := newHTTPClient(cfg)
	return FetcherFunc{
		ID: kpler.Provider,
		Fn: func(ctx context.Context, key Key) (interface{}, error) {
			var out kpler.VesselData
			if err := c.getJSON(ctx, "/compliance/vessels", windowQuery(key), &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
	}
}

// NewUANIFetcher fetches the UANI tracked-vessel lookup.
func NewUANIFetcher(cfg ClientConfig) Fetcher {
	c := newHTTPClient(cfg)
	return FetcherFunc{
		ID: uani.Provider,
		Fn: func(ctx context.Context, key Key) (interface{}, error) {
			var out uani.ListData
			q := url.Values{}
			q.Set("imo", key.SubjectID)
			if err := c.getJSON(ctx, "/tracked_vessels", q, &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
	}
}

// NewVoyageFetcher fetches the per-voyage event payload.
func NewVoyageFetcher(cfg ClientConfig) Fetcher {
	c := newHTTPClient(cfg)
	return FetcherFunc{
		ID: voyage.Provider,
		Fn: func(ctx context.Context, key Key) (interface{}, error) {
			var out voyage.EventsData
			if err := c.getJSON(ctx, "/vesselvoyageevents", windowQuery(key), &out); err != nil {
				return nil, err
			}
			return &out, nil
		},
	}
}
