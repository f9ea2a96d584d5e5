package repository

import (
	"context"
	"fmt"

	"github.com/billgate/purchasegw/internal/eventstore/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) GetByAggregateIDAndType(ctx context.Context, aggregateID string, eventType string) (*domain.StoredEvent, error) {
	var item domain.StoredEvent
	err := r.db.WithContext(ctx).Raw(
		`SELECT id, aggregate_id, event_type, event_body, occurred_on
		 FROM stored_events
		 WHERE aggregate_id = ? AND event_type = ?
		 ORDER BY occurred_on DESC
		 LIMIT 1`,
		aggregateID,
		eventType,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.ID == 0 {
		return nil, fmt.Errorf("%w: aggregate %s type %s", domain.ErrEventNotFound, aggregateID, eventType)
	}
	return &item, nil
}
