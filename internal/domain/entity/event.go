package entity

import "time"

type EventKind string

const (
	EventOwnershipChange EventKind = "ownership-change"
	EventSaleEstimate    EventKind = "sale-estimate"
)

// Event is what the diff engine hands to the notifier. One value covers both
// kinds; the sale fields are only meaningful for EventSaleEstimate and the
// holder-transition fields only for EventOwnershipChange.
type Event struct {
	Kind      EventKind
	SubjectID string
	ItemID    string
	ItemLabel string

	// Ownership transition. Empty holder ids mean "no holder". Gain and loss
	// are independent: two tracked sellers swapping the offer sets both.
	OldHolderID   string
	OldHolderName string
	NewHolderID   string
	NewHolderName string
	IsGain        bool
	IsLoss        bool

	Price    *float64
	Currency string

	// Sale estimate.
	HolderName     string
	StockBefore    int
	StockAfter     int
	UnitsEstimated int

	OccurredAt time.Time
}
