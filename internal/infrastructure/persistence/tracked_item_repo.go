package persistence

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type TrackedItemRepository struct {
	db *sqlx.DB
}

func NewTrackedItemRepository(db *sqlx.DB) *TrackedItemRepository {
	return &TrackedItemRepository{db: db}
}

func (r *TrackedItemRepository) List(ctx context.Context, subjectID string) ([]entity.TrackedItem, error) {
	query := `
		SELECT subject_id, item_id, label, created_at
		FROM tracked_items
		WHERE subject_id = $1
		ORDER BY created_at`

	var schemas []trackedItemSchema
	if err := r.db.SelectContext(ctx, &schemas, query, subjectID); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to list tracked items")
	}

	items := make([]entity.TrackedItem, 0, len(schemas))
	for _, s := range schemas {
		items = append(items, s.toDomain())
	}

	return items, nil
}

func (r *TrackedItemRepository) Add(ctx context.Context, item *entity.TrackedItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tracked_items (subject_id, item_id, label, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (subject_id, item_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		item.SubjectID, item.ItemID, nullString(item.Label), item.CreatedAt)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to add tracked item")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to check inserted rows")
	}

	if affected == 0 {
		return domain.NewError(errcodes.AlreadyTracked, "item is already tracked")
	}

	return nil
}

func (r *TrackedItemRepository) Remove(ctx context.Context, subjectID, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tracked_items WHERE subject_id = $1 AND item_id = $2`, subjectID, itemID)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to remove tracked item")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to check removed rows")
	}

	if affected == 0 {
		return domain.NewError(errcodes.ItemNotFound, "tracked item not found")
	}

	return nil
}
