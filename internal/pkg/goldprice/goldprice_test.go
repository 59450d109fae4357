package goldprice

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestFixedOracle(t *testing.T) {
	oracle := NewFixed(decimal.RequireFromString("93.50"))

	price, err := oracle.CurrentPricePerGram(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("93.50")) {
		t.Fatalf("price = %s, want 93.50", price)
	}
}

func newTestFeed(url string) *HTTPFeed {
	return &HTTPFeed{
		url:    url,
		client: &http.Client{Timeout: 2 * time.Second},
	}
}

func TestHTTPFeedParsesQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"price_per_gram_usd": "101.25"}`))
	}))
	defer srv.Close()

	price, err := newTestFeed(srv.URL).CurrentPricePerGram(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !price.Equal(decimal.RequireFromString("101.25")) {
		t.Fatalf("price = %s, want 101.25", price)
	}
}

func TestHTTPFeedSendsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"price_per_gram_usd": "93.50"}`))
	}))
	defer srv.Close()

	feed := newTestFeed(srv.URL)
	feed.apiKey = "feed-key"
	if _, err := feed.CurrentPricePerGram(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "feed-key" {
		t.Fatalf("X-API-Key = %q, want feed-key", gotKey)
	}
}

func TestHTTPFeedFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"invalid payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
		{"garbage price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price_per_gram_usd": "cheap"}`))
		}},
		{"zero price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price_per_gram_usd": "0"}`))
		}},
		{"negative price", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"price_per_gram_usd": "-5"}`))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			_, err := newTestFeed(srv.URL).CurrentPricePerGram(context.Background())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("err = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestHTTPFeedUnconfigured(t *testing.T) {
	feed := &HTTPFeed{client: http.DefaultClient}
	if _, err := feed.CurrentPricePerGram(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
