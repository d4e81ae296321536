package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateProviderClient fetches conversion tables from an exchange-rate HTTP
// API. The provider is untrusted and possibly slow; callers bound the
// request with the context.
type RateProviderClient struct {
	http    *http.Client
	baseURL string
	name    string
}

type apiResponse struct {
	Result          string                     `json:"result"`
	BaseCode        string                     `json:"base_code"`
	AsOfDate        string                     `json:"time_last_update_utc"`
	ConversionRates map[string]decimal.Decimal `json:"conversion_rates"`
}

func (c *RateProviderClient) Fetch(ctx context.Context, base string) (map[string]decimal.Decimal, time.Time, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse base URL: %w", err)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + base

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to create request for currency %q: %w", base, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to execute request for currency %q: %w", base, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, time.Time{}, fmt.Errorf("unexpected status code %d for currency %q: %s", resp.StatusCode, base, resp.Status)
	}

	var body apiResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to decode response for currency %q: %w", base, err)
	}

	if body.Result != "success" {
		return nil, time.Time{}, fmt.Errorf("api returned non-success result for currency %q: %s", base, body.Result)
	}

	asOf := time.Now()
	if body.AsOfDate != "" {
		if parsed, parseErr := time.Parse(time.RFC1123, body.AsOfDate); parseErr == nil {
			asOf = parsed
		}
	}

	return body.ConversionRates, asOf, nil
}

func (c *RateProviderClient) Name() string { return c.name }

func NewRateProviderClient(httpClient *http.Client, baseURL, name string) *RateProviderClient {
	return &RateProviderClient{http: httpClient, baseURL: baseURL, name: name}
}
