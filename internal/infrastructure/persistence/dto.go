package persistence

import (
	"database/sql"
	"time"

	"buybox_tracker/internal/domain/entity"
)

// offerStateSchema maps the offer_states table. Holder, price and stock are
// nullable: a row may record "no holder" or an unknown stock level.
type offerStateSchema struct {
	SubjectID  string          `db:"subject_id"`
	ItemID     string          `db:"item_id"`
	HolderID   sql.NullString  `db:"holder_id"`
	HolderName sql.NullString  `db:"holder_name"`
	Price      sql.NullFloat64 `db:"price"`
	Currency   sql.NullString  `db:"currency"`
	StockLevel sql.NullInt64   `db:"stock_level"`
	ObservedAt time.Time       `db:"observed_at"`
}

func (s *offerStateSchema) toDomain() *entity.OfferState {
	state := &entity.OfferState{
		SubjectID:  s.SubjectID,
		ItemID:     s.ItemID,
		HolderID:   s.HolderID.String,
		HolderName: s.HolderName.String,
		Currency:   s.Currency.String,
		ObservedAt: s.ObservedAt,
	}

	if s.Price.Valid {
		price := s.Price.Float64
		state.Price = &price
	}

	if s.StockLevel.Valid {
		stock := int(s.StockLevel.Int64)
		state.StockLevel = &stock
	}

	return state
}

func newOfferStateSchema(state *entity.OfferState) offerStateSchema {
	schema := offerStateSchema{
		SubjectID:  state.SubjectID,
		ItemID:     state.ItemID,
		HolderID:   nullString(state.HolderID),
		HolderName: nullString(state.HolderName),
		Currency:   nullString(state.Currency),
		ObservedAt: state.ObservedAt,
	}

	if state.Price != nil {
		schema.Price = sql.NullFloat64{Float64: *state.Price, Valid: true}
	}

	if state.StockLevel != nil {
		schema.StockLevel = sql.NullInt64{Int64: int64(*state.StockLevel), Valid: true}
	}

	return schema
}

type saleEventSchema struct {
	ID             string    `db:"id"`
	SubjectID      string    `db:"subject_id"`
	ItemID         string    `db:"item_id"`
	HolderID       string    `db:"holder_id"`
	StockBefore    int       `db:"stock_before"`
	StockAfter     int       `db:"stock_after"`
	UnitsEstimated int       `db:"units_estimated"`
	OccurredAt     time.Time `db:"occurred_at"`
}

func (s *saleEventSchema) toDomain() *entity.SaleEvent {
	return &entity.SaleEvent{
		ID:             s.ID,
		SubjectID:      s.SubjectID,
		ItemID:         s.ItemID,
		HolderID:       s.HolderID,
		StockBefore:    s.StockBefore,
		StockAfter:     s.StockAfter,
		UnitsEstimated: s.UnitsEstimated,
		OccurredAt:     s.OccurredAt,
	}
}

type trackedItemSchema struct {
	SubjectID string         `db:"subject_id"`
	ItemID    string         `db:"item_id"`
	Label     sql.NullString `db:"label"`
	CreatedAt time.Time      `db:"created_at"`
}

func (s *trackedItemSchema) toDomain() entity.TrackedItem {
	return entity.TrackedItem{
		SubjectID: s.SubjectID,
		ItemID:    s.ItemID,
		Label:     s.Label.String,
		CreatedAt: s.CreatedAt,
	}
}

type sellerSchema struct {
	SubjectID string    `db:"subject_id"`
	SellerID  string    `db:"seller_id"`
	Label     string    `db:"label"`
	CreatedAt time.Time `db:"created_at"`
}

func (s *sellerSchema) toDomain() entity.Seller {
	return entity.Seller{
		SubjectID: s.SubjectID,
		SellerID:  s.SellerID,
		Label:     s.Label,
		CreatedAt: s.CreatedAt,
	}
}

type subjectSchema struct {
	ID         string         `db:"id"`
	Email      sql.NullString `db:"email"`
	WebhookURL sql.NullString `db:"webhook_url"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (s *subjectSchema) toDomain() *entity.Subject {
	return &entity.Subject{
		ID:         s.ID,
		Email:      s.Email.String,
		WebhookURL: s.WebhookURL.String,
		CreatedAt:  s.CreatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
