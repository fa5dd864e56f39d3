package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type SellerRepository struct {
	db *sqlx.DB
}

func NewSellerRepository(db *sqlx.DB) *SellerRepository {
	return &SellerRepository{db: db}
}

func (r *SellerRepository) List(ctx context.Context, subjectID string) ([]entity.Seller, error) {
	query := `
		SELECT subject_id, seller_id, label, created_at
		FROM sellers
		WHERE subject_id = $1
		ORDER BY created_at`

	var schemas []sellerSchema
	if err := r.db.SelectContext(ctx, &schemas, query, subjectID); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to list sellers")
	}

	sellers := make([]entity.Seller, 0, len(schemas))
	for _, s := range schemas {
		sellers = append(sellers, s.toDomain())
	}

	return sellers, nil
}

// ListSellerIDs returns the seller identities the subject tracks. This is the
// single capability the diff engine uses for gain/loss classification.
func (r *SellerRepository) ListSellerIDs(ctx context.Context, subjectID string) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids,
		`SELECT seller_id FROM sellers WHERE subject_id = $1`, subjectID); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to list seller ids")
	}

	return ids, nil
}

func (r *SellerRepository) Add(ctx context.Context, seller *entity.Seller) error {
	if seller.CreatedAt.IsZero() {
		seller.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO sellers (subject_id, seller_id, label, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, seller_id) DO UPDATE SET label = EXCLUDED.label`

	if _, err := r.db.ExecContext(ctx, query,
		seller.SubjectID, seller.SellerID, seller.Label, seller.CreatedAt); err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to add seller")
	}

	return nil
}

func (r *SellerRepository) Remove(ctx context.Context, subjectID, sellerID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM sellers WHERE subject_id = $1 AND seller_id = $2`, subjectID, sellerID)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to remove seller")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to check removed rows")
	}

	if affected == 0 {
		return domain.NewError(errcodes.SellerNotFound, "seller not found")
	}

	return nil
}
