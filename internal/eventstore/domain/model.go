package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

var ErrEventNotFound = errors.New("stored_event_not_found")

// StoredEvent is one immutable row in the domain event store. This pipeline
// only ever reads it; the purchase-initialization subsystem writes it.
type StoredEvent struct {
	ID          snowflake.ID   `json:"id" gorm:"primaryKey"`
	AggregateID string         `json:"aggregate_id" gorm:"column:aggregate_id;index"`
	EventType   string         `json:"event_type" gorm:"column:event_type"`
	EventBody   datatypes.JSON `json:"event_body" gorm:"column:event_body;type:jsonb"`
	OccurredOn  time.Time      `json:"occurred_on" gorm:"column:occurred_on"`
}

func (StoredEvent) TableName() string { return "stored_events" }

// Body returns the serialized event payload.
func (e *StoredEvent) Body() []byte {
	return []byte(e.EventBody)
}

// Repository re-hydrates stored events for replay.
type Repository interface {
	GetByAggregateIDAndType(ctx context.Context, aggregateID string, eventType string) (*StoredEvent, error)
}
