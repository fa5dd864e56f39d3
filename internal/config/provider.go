package config

import "time"

// Provider configures the marketplace snapshot API (Rainforest-compatible).
type Provider struct {
	BaseURL          string        `env:"PROVIDER_BASE_URL" envDefault:"https://api.rainforestapi.com/request"`
	APIKey           string        `env:"PROVIDER_API_KEY,notEmpty" json:"-"`
	MarketplaceHost  string        `env:"PROVIDER_MARKETPLACE_HOST" envDefault:"amazon.co.uk"`
	DefaultCurrency  string        `env:"PROVIDER_DEFAULT_CURRENCY" envDefault:"GBP"`
	RequestTimeout   time.Duration `env:"PROVIDER_REQUEST_TIMEOUT" envDefault:"30s"`
	RateLimitBackoff time.Duration `env:"PROVIDER_RATE_LIMIT_BACKOFF" envDefault:"5s"`
}
