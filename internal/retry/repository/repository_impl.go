package repository

import (
	"context"
	"time"

	"github.com/billgate/purchasegw/internal/retry/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) Create(ctx context.Context, row *domain.FailedEventPublish) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO failed_event_publishes (id, aggregate_id, event_type, retries, published, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		row.ID,
		row.AggregateID,
		row.EventType,
		row.Retries,
		row.Published,
		now,
		now,
	).Error
}

func (r *repo) FindBatch(ctx context.Context, limit int) ([]domain.FailedEventPublish, error) {
	var rows []domain.FailedEventPublish
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, aggregate_id, event_type, retries, published, created_at, updated_at
		 FROM failed_event_publishes
		 WHERE published = false
		 ORDER BY created_at
		 LIMIT ?`,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Update(ctx context.Context, row *domain.FailedEventPublish) error {
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Exec(
		`UPDATE failed_event_publishes
		 SET retries = ?, published = ?, updated_at = ?
		 WHERE id = ?`,
		row.Retries,
		row.Published,
		row.UpdatedAt,
		row.ID,
	).Error
}
