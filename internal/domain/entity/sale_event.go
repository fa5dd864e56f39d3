package entity

import "time"

// SaleEvent is an inferred sale: the featured-offer holder's visible stock
// dropped between two observations. Append-only, never mutated.
type SaleEvent struct {
	ID             string    `json:"id" db:"id"`
	SubjectID      string    `json:"subject_id" db:"subject_id"`
	ItemID         string    `json:"item_id" db:"item_id"`
	HolderID       string    `json:"holder_id" db:"holder_id"`
	StockBefore    int       `json:"stock_before" db:"stock_before"`
	StockAfter     int       `json:"stock_after" db:"stock_after"`
	UnitsEstimated int       `json:"units_estimated" db:"units_estimated"`
	OccurredAt     time.Time `json:"occurred_at" db:"occurred_at"`
}
