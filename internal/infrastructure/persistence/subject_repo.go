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

type SubjectRepository struct {
	db *sqlx.DB
}

func NewSubjectRepository(db *sqlx.DB) *SubjectRepository {
	return &SubjectRepository{db: db}
}

func (r *SubjectRepository) Get(ctx context.Context, id string) (*entity.Subject, error) {
	query := `
		SELECT id, email, webhook_url, created_at
		FROM subjects
		WHERE id = $1`

	var schema subjectSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.SubjectNotFound, "subject not found")
		}
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to get subject")
	}

	return schema.toDomain(), nil
}

// List returns all active subjects, the population of a full tracking cycle.
func (r *SubjectRepository) List(ctx context.Context) ([]entity.Subject, error) {
	query := `
		SELECT id, email, webhook_url, created_at
		FROM subjects
		ORDER BY created_at`

	var schemas []subjectSchema
	if err := r.db.SelectContext(ctx, &schemas, query); err != nil {
		return nil, domain.WrapError(err, errcodes.StoreFailure, "failed to list subjects")
	}

	subjects := make([]entity.Subject, 0, len(schemas))
	for _, s := range schemas {
		subjects = append(subjects, *s.toDomain())
	}

	return subjects, nil
}

func (r *SubjectRepository) UpdateWebhook(ctx context.Context, id, webhookURL string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE subjects SET webhook_url = $1 WHERE id = $2`, webhookURL, id)
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to update webhook url")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.StoreFailure, "failed to check updated rows")
	}

	if affected == 0 {
		return domain.NewError(errcodes.SubjectNotFound, "subject not found")
	}

	return nil
}
