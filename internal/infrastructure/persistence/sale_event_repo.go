package persistence

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"buybox_tracker/internal/domain"
	"buybox_tracker/internal/domain/entity"
	"buybox_tracker/pkg/errcodes"
)

type SaleEventRepository struct {
	db *sqlx.DB
}

func NewSaleEventRepository(db *sqlx.DB) *SaleEventRepository {
	return &SaleEventRepository{db: db}
}

// withTx runs fn inside a transaction.
func (r *SaleEventRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.StoreFailure,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to commit")
	}

	return nil
}

// Append writes a new sale event to the log. The log is append-only: there
// is no update or delete path.
func (r *SaleEventRepository) Append(ctx context.Context, event *entity.SaleEvent) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO sale_events (id, subject_id, item_id, holder_id, stock_before, stock_after, units_estimated, occurred_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

		_, err := tx.ExecContext(ctx, query,
			event.ID,
			event.SubjectID,
			event.ItemID,
			event.HolderID,
			event.StockBefore,
			event.StockAfter,
			event.UnitsEstimated,
			event.OccurredAt,
		)
		if err != nil {
			return domain.WrapError(err, errcodes.StoreFailure, "failed to append sale event")
		}

		return nil
	})
}

// ListBySubject returns the newest sale events first.
func (r *SaleEventRepository) ListBySubject(ctx context.Context, subjectID string, limit, offset int) ([]entity.SaleEvent, error) {
	query := `
		SELECT id, subject_id, item_id, holder_id, stock_before, stock_after, units_estimated, occurred_at
		FROM sale_events
		WHERE subject_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2 OFFSET $3`

	var schemas []saleEventSchema
	if err := r.db.SelectContext(ctx, &schemas, query, subjectID, limit, offset); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to list sale events")
	}

	events := make([]entity.SaleEvent, 0, len(schemas))
	for _, s := range schemas {
		events = append(events, *s.toDomain())
	}

	return events, nil
}

func (r *SaleEventRepository) CountBySubject(ctx context.Context, subjectID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM sale_events WHERE subject_id = $1`, subjectID); err != nil {
		return 0, domain.WrapError(err, errcodes.StoreFailure, "failed to count sale events")
	}

	return count, nil
}
