package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// FailedEventPublish is one ledger row tracking a publish that has to be
// re-attempted. EventType records which projection failed so the replay
// rebuilds the same one. Rows are never deleted here; cleanup is an
// operational concern.
type FailedEventPublish struct {
	ID          snowflake.ID `json:"id" gorm:"primaryKey"`
	AggregateID string       `json:"aggregate_id" gorm:"column:aggregate_id;index"`
	EventType   string       `json:"event_type" gorm:"column:event_type"`
	Retries     int          `json:"retries" gorm:"column:retries"`
	Published   bool         `json:"published" gorm:"column:published"`
	CreatedAt   time.Time    `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time    `json:"updated_at" gorm:"column:updated_at"`
}

func (FailedEventPublish) TableName() string { return "failed_event_publishes" }

// Repository persists the failure ledger.
type Repository interface {
	Create(ctx context.Context, row *FailedEventPublish) error
	FindBatch(ctx context.Context, limit int) ([]FailedEventPublish, error)
	Update(ctx context.Context, row *FailedEventPublish) error
}
