package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type OfferStateRepository struct {
	db *sqlx.DB
}

func NewOfferStateRepository(db *sqlx.DB) *OfferStateRepository {
	return &OfferStateRepository{db: db}
}

// Get returns the last observed state for (subject, item).
func (r *OfferStateRepository) Get(ctx context.Context, subjectID, itemID string) (*entity.OfferState, error) {
	query := `
		SELECT subject_id, item_id, holder_id, holder_name, price, currency, stock_level, observed_at
		FROM offer_states
		WHERE subject_id = $1 AND item_id = $2`

	var schema offerStateSchema
	if err := r.db.GetContext(ctx, &schema, query, subjectID, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.OfferStateNotFound, "offer state not found")
		}
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to get offer state")
	}

	return schema.toDomain(), nil
}

// Upsert overwrites the single state row of (subject, item).
func (r *OfferStateRepository) Upsert(ctx context.Context, state *entity.OfferState) error {
	query := `
		INSERT INTO offer_states (subject_id, item_id, holder_id, holder_name, price, currency, stock_level, observed_at)
		VALUES (:subject_id, :item_id, :holder_id, :holder_name, :price, :currency, :stock_level, :observed_at)
		ON CONFLICT (subject_id, item_id) DO UPDATE SET
			holder_id = EXCLUDED.holder_id,
			holder_name = EXCLUDED.holder_name,
			price = EXCLUDED.price,
			currency = EXCLUDED.currency,
			stock_level = EXCLUDED.stock_level,
			observed_at = EXCLUDED.observed_at`

	if _, err := r.db.NamedExecContext(ctx, query, newOfferStateSchema(state)); err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to upsert offer state")
	}

	return nil
}
