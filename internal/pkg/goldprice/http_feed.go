package goldprice

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aurumpay/goldlock/internal/pkg/env"
	"github.com/shopspring/decimal"
)

// HTTPFeed fetches the spot price from an external JSON endpoint. The
// endpoint is expected to answer {"price_per_gram_usd": "93.50"}; string
// form keeps the quote exact.
type HTTPFeed struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTPFeed creates a feed client from GOLD_FEED_URL and GOLD_FEED_API_KEY.
func NewHTTPFeed() *HTTPFeed {
	return &HTTPFeed{
		url:    env.GetEnv("GOLD_FEED_URL", ""),
		apiKey: env.GetEnv("GOLD_FEED_API_KEY", ""),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type feedResponse struct {
	PricePerGramUsd string `json:"price_per_gram_usd"`
}

func (f *HTTPFeed) CurrentPricePerGram(ctx context.Context) (decimal.Decimal, error) {
	if f.url == "" {
		return decimal.Zero, fmt.Errorf("%w: GOLD_FEED_URL not configured", ErrUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.url, nil)
	if err != nil {
		return decimal.Zero, err
	}
	if f.apiKey != "" {
		req.Header.Set("X-API-Key", f.apiKey)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: feed returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid feed payload: %v", ErrUnavailable, err)
	}

	price, err := decimal.NewFromString(payload.PricePerGramUsd)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: invalid price %q", ErrUnavailable, payload.PricePerGramUsd)
	}
	if price.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", ErrUnavailable, price)
	}
	return price, nil
}
