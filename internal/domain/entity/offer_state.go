package entity

import "time"

// OfferState is the last observed featured-offer state for one tracked item.
// One row per (subject, item); overwritten on every successful read.
type OfferState struct {
	SubjectID  string    `json:"subject_id" db:"subject_id"`
	ItemID     string    `json:"item_id" db:"item_id"`
	HolderID   string    `json:"holder_id" db:"holder_id"` // empty when no seller holds the featured offer
	HolderName string    `json:"holder_name" db:"holder_name"`
	Price      *float64  `json:"price,omitempty" db:"price"`
	Currency   string    `json:"currency" db:"currency"`
	StockLevel *int      `json:"stock_level,omitempty" db:"stock_level"`
	ObservedAt time.Time `json:"observed_at" db:"observed_at"`
}

// OfferSnapshot is a point-in-time read of the featured offer from the
// marketplace provider. An empty HolderID means nobody holds the offer.
type OfferSnapshot struct {
	ItemID     string
	HolderID   string
	HolderName string
	Price      *float64
	Currency   string
	Prime      bool
	ObservedAt time.Time
}

// StockObservation is the visible stock of one seller's offer. StockLevel is
// nil when the marketplace does not expose a number.
type StockObservation struct {
	ItemID       string
	HolderID     string
	StockLevel   *int
	Availability string
}
