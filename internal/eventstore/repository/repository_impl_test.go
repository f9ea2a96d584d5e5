package repository

import (
	"context"
	"testing"
	"time"

	"github.com/billgate/purchasegw/internal/eventstore/domain"
	purchasedomain "github.com/billgate/purchasegw/internal/purchase/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.StoredEvent{}))
	return db
}

func TestGetByAggregateIDAndTypeReturnsLatest(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)
	ctx := context.Background()

	older := &domain.StoredEvent{
		ID:          snowflake.ID(1),
		AggregateID: "agg-1",
		EventType:   purchasedomain.EventTypePurchaseProcessed,
		EventBody:   datatypes.JSON(`{"aggregate_id": "agg-1", "memberId": "member-old"}`),
		OccurredOn:  time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	newer := &domain.StoredEvent{
		ID:          snowflake.ID(2),
		AggregateID: "agg-1",
		EventType:   purchasedomain.EventTypePurchaseProcessed,
		EventBody:   datatypes.JSON(`{"aggregate_id": "agg-1", "memberId": "member-new"}`),
		OccurredOn:  time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC),
	}
	require.NoError(t, db.Create(older).Error)
	require.NoError(t, db.Create(newer).Error)

	stored, err := repo.GetByAggregateIDAndType(ctx, "agg-1", purchasedomain.EventTypePurchaseProcessed)
	require.NoError(t, err)
	require.Equal(t, newer.ID, stored.ID)

	outcome, err := purchasedomain.DecodeOutcomeEvent(stored.Body())
	require.NoError(t, err)
	require.Equal(t, "member-new", outcome.MemberID)
}

func TestGetByAggregateIDAndTypeFiltersType(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)

	require.NoError(t, db.Create(&domain.StoredEvent{
		ID:          snowflake.ID(1),
		AggregateID: "agg-1",
		EventType:   "some_other_event",
		EventBody:   datatypes.JSON(`{}`),
		OccurredOn:  time.Now().UTC(),
	}).Error)

	_, err := repo.GetByAggregateIDAndType(context.Background(), "agg-1", purchasedomain.EventTypePurchaseProcessed)
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}

func TestGetByAggregateIDAndTypeMissing(t *testing.T) {
	db := newTestDB(t)
	repo := Provide(db)

	_, err := repo.GetByAggregateIDAndType(context.Background(), "missing", purchasedomain.EventTypePurchaseProcessed)
	require.ErrorIs(t, err, domain.ErrEventNotFound)
}
