package marketplace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buybox_tracker/internal/config"
	"buybox_tracker/internal/domain"
	"buybox_tracker/pkg/errcodes"
)

const productJSON = `{
	"product": {
		"asin": "B000000001",
		"buybox_winner": {
			"merchant_info": {"id": "A1SELLER", "name": "Acme Ltd"},
			"price": {"value": 19.99, "currency": "GBP"},
			"delivery": {"is_prime_eligible": true}
		},
		"offers": [
			{
				"merchant_info": {"id": "A1SELLER", "name": "Acme Ltd"},
				"availability": {"type": "in_stock", "stock_level": 7}
			},
			{
				"merchant_info": {"id": "A2SELLER", "name": "Other"},
				"availability": {"type": "in_stock"}
			}
		]
	}
}`

const noWinnerJSON = `{"product": {"asin": "B000000002", "offers": []}}`

func newTestClient(baseURL string) *Client {
	return NewClient(config.Provider{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		MarketplaceHost:  "amazon.co.uk",
		DefaultCurrency:  "GBP",
		RequestTimeout:   5 * time.Second,
		RateLimitBackoff: 10 * time.Millisecond,
	})
}

func TestGetOffer(t *testing.T) {
	rq := require.New(t)

	var gotQuery map[string][]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(productJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	snapshot, err := client.GetOffer(context.Background(), "B000000001")
	rq.NoError(err)

	rq.Equal("B000000001", snapshot.ItemID)
	rq.Equal("A1SELLER", snapshot.HolderID)
	rq.Equal("Acme Ltd", snapshot.HolderName)
	rq.NotNil(snapshot.Price)
	rq.InDelta(19.99, *snapshot.Price, 0.001)
	rq.Equal("GBP", snapshot.Currency)
	rq.True(snapshot.Prime)
	rq.WithinDuration(time.Now().UTC(), snapshot.ObservedAt, time.Minute)

	rq.Equal([]string{"test-key"}, gotQuery["api_key"])
	rq.Equal([]string{"product"}, gotQuery["type"])
	rq.Equal([]string{"B000000001"}, gotQuery["asin"])
	rq.Equal([]string{"amazon.co.uk"}, gotQuery["amazon_domain"])
	rq.Equal([]string{"true"}, gotQuery["include_offers"])
}

func TestGetOfferNoWinner(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(noWinnerJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.GetOffer(context.Background(), "B000000002")
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.OfferNotFound))
}

func TestGetOfferRateLimited(t *testing.T) {
	rq := require.New(t)

	var calls int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	start := time.Now()

	_, err := client.GetOffer(context.Background(), "B000000001")
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.RateLimited))

	// One backoff window, no retry.
	rq.GreaterOrEqual(time.Since(start), 10*time.Millisecond)
	rq.Equal(1, calls)
}

func TestGetOfferUpstreamError(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	_, err := client.GetOffer(context.Background(), "B000000001")
	rq.Error(err)
	rq.True(domain.HasCode(err, errcodes.ProviderUnavailable))
}

func TestGetStock(t *testing.T) {
	rq := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(productJSON)) //nolint:errcheck
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)

	testCases := []struct {
		name         string
		holderID     string
		stock        *int
		availability string
	}{
		{
			name:         "seller with stock number",
			holderID:     "A1SELLER",
			stock:        intPtr(7),
			availability: "in_stock",
		},
		{
			name:         "seller without stock number",
			holderID:     "A2SELLER",
			stock:        nil,
			availability: "in_stock",
		},
		{
			name:         "seller matched by name",
			holderID:     "Acme Ltd",
			stock:        intPtr(7),
			availability: "in_stock",
		},
		{
			name:         "seller not offering",
			holderID:     "A9GONE",
			stock:        nil,
			availability: "not_found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			observation, err := client.GetStock(context.Background(), "B000000001", tc.holderID)
			rq.NoError(err)
			rq.Equal(tc.stock, observation.StockLevel)
			rq.Equal(tc.availability, observation.Availability)
		})
	}
}

func intPtr(v int) *int {
	return &v
}
