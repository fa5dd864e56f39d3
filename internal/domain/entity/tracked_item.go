package entity

import "time"

// TrackedItem is a marketplace listing a subject wants monitored.
type TrackedItem struct {
	SubjectID string    `json:"subject_id" db:"subject_id"`
	ItemID    string    `json:"item_id" db:"item_id"`
	Label     string    `json:"label,omitempty" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Seller is a seller identity a subject has registered interest in.
type Seller struct {
	SubjectID string    `json:"subject_id" db:"subject_id"`
	SellerID  string    `json:"seller_id" db:"seller_id"`
	Label     string    `json:"label" db:"label"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Subject is the tracking account items and sellers are scoped to.
type Subject struct {
	ID         string    `json:"id" db:"id"`
	Email      string    `json:"email" db:"email"`
	WebhookURL string    `json:"webhook_url,omitempty" db:"webhook_url"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
