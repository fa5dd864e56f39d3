package marketplace

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"

	"buybox_tracker/internal/config"
	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/contextx"
	"buybox_tracker/pkg/errcodes"
	"buybox_tracker/pkg/httpx"
	"buybox_tracker/pkg/logx"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

const (
	availabilityUnknown  = "unknown"
	availabilityNotFound = "not_found"
)

// Client queries the Rainforest-style product API for featured-offer and
// stock snapshots. It does not retry: on a rate-limit signal it sleeps one
// backoff window and reports the error, the next cycle self-heals.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	marketplaceHost string
	defaultCurrency string
	backoff         time.Duration
}

func NewClient(cfg config.Provider) *Client {
	transport := httpx.NewLoggingRoundTripper(
		httpx.NewAPIKeyRoundTripper(http.DefaultTransport, "api_key", cfg.APIKey),
		httpx.WithSensitiveDataMasker(logx.NewSensitiveDataMasker()),
		httpx.WithLogFieldMaxLen(2048),
	)

	return &Client{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.RequestTimeout,
		},
		baseURL:         cfg.BaseURL,
		marketplaceHost: cfg.MarketplaceHost,
		defaultCurrency: cfg.DefaultCurrency,
		backoff:         cfg.RateLimitBackoff,
	}
}

// GetOffer returns the current featured-offer holder of an item.
// errcodes.OfferNotFound means the listing has no holder right now.
func (c *Client) GetOffer(ctx context.Context, itemID string) (entity.OfferSnapshot, error) {
	product, err := c.fetchProduct(ctx, itemID)
	if err != nil {
		return entity.OfferSnapshot{}, err
	}

	winner := product.BuyboxWinner
	if winner == nil || winner.MerchantInfo == nil || winner.MerchantInfo.ID == "" {
		return entity.OfferSnapshot{}, domain.NewError(errcodes.OfferNotFound, "no featured offer holder")
	}

	snapshot := entity.OfferSnapshot{
		ItemID:     itemID,
		HolderID:   winner.MerchantInfo.ID,
		HolderName: winner.MerchantInfo.Name,
		Currency:   c.defaultCurrency,
		ObservedAt: time.Now().UTC(),
	}

	if winner.Price != nil {
		price := winner.Price.Value
		snapshot.Price = &price
		if winner.Price.Currency != "" {
			snapshot.Currency = winner.Price.Currency
		}
	}

	if winner.Delivery != nil {
		snapshot.Prime = winner.Delivery.IsPrimeEligible
	}

	return snapshot, nil
}

// GetStock returns the visible stock of one seller's offer on the item. A
// missing seller offer or an unexposed stock number is not an error: the
// observation comes back with a nil StockLevel.
func (c *Client) GetStock(ctx context.Context, itemID, holderID string) (entity.StockObservation, error) {
	observation := entity.StockObservation{
		ItemID:       itemID,
		HolderID:     holderID,
		Availability: availabilityUnknown,
	}

	product, err := c.fetchProduct(ctx, itemID)
	if err != nil {
		return observation, err
	}

	for _, offer := range product.Offers {
		if offer.MerchantInfo == nil {
			continue
		}
		if offer.MerchantInfo.ID != holderID && offer.MerchantInfo.Name != holderID {
			continue
		}

		if offer.Availability != nil {
			observation.StockLevel = offer.Availability.StockLevel
			if offer.Availability.Type != "" {
				observation.Availability = offer.Availability.Type
			}
		}

		return observation, nil
	}

	observation.Availability = availabilityNotFound

	return observation, nil
}

func (c *Client) fetchProduct(ctx context.Context, itemID string) (*productPayload, error) {
	query := url.Values{}
	query.Set("type", "product")
	query.Set("amazon_domain", c.marketplaceHost)
	query.Set("asin", itemID)
	query.Set("include_offers", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), http.NoBody)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.ProviderUnavailable, "failed to build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.WrapError(err, errcodes.ProviderUnavailable, "provider request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.waitBackoff(ctx)
		return nil, domain.NewError(errcodes.RateLimited, "provider rate limit exceeded")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewError(errcodes.ProviderUnavailable,
			fmt.Sprintf("provider returned status %d", resp.StatusCode))
	}

	var payload productResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, domain.WrapError(err, errcodes.ProviderUnavailable, "failed to decode product response")
	}

	if payload.Product == nil {
		return nil, domain.NewError(errcodes.ProviderUnavailable, "provider response has no product")
	}

	return payload.Product, nil
}

// waitBackoff sleeps one fixed window after a 429 so the next upstream call
// of this process does not hit the limit again immediately.
func (c *Client) waitBackoff(ctx context.Context) {
	logger(ctx).Warn("provider rate limited, backing off", "backoff", c.backoff.String())

	select {
	case <-time.After(c.backoff):
	case <-ctx.Done():
	}
}
