package config

import "time"

// Tracker configures the recurring tracking cycle.
type Tracker struct {
	Period         time.Duration `env:"TRACKER_PERIOD" envDefault:"30s"`
	ItemDelay      time.Duration `env:"TRACKER_ITEM_DELAY" envDefault:"2s"`
	SellerCacheTTL time.Duration `env:"TRACKER_SELLER_CACHE_TTL" envDefault:"1m"`
	EventBuffer    int           `env:"TRACKER_EVENT_BUFFER" envDefault:"100"`
	Autostart      bool          `env:"TRACKER_AUTOSTART" envDefault:"true"`
}
