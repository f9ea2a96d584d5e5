package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/billgate/purchasegw/internal/bus"
	"github.com/billgate/purchasegw/internal/clock"
	"github.com/billgate/purchasegw/internal/config"
	enrichmentdomain "github.com/billgate/purchasegw/internal/enrichment/domain"
	eventstoredomain "github.com/billgate/purchasegw/internal/eventstore/domain"
	purchasedomain "github.com/billgate/purchasegw/internal/purchase/domain"
	retrydomain "github.com/billgate/purchasegw/internal/retry/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func snowflakeID(n int) snowflake.ID {
	return snowflake.ID(n)
}

type fakeLedger struct {
	rows    []retrydomain.FailedEventPublish
	updates []retrydomain.FailedEventPublish
	findErr error
}

func (f *fakeLedger) Create(_ context.Context, row *retrydomain.FailedEventPublish) error {
	f.rows = append(f.rows, *row)
	return nil
}

func (f *fakeLedger) FindBatch(_ context.Context, limit int) ([]retrydomain.FailedEventPublish, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if len(f.rows) > limit {
		return append([]retrydomain.FailedEventPublish(nil), f.rows[:limit]...), nil
	}
	return append([]retrydomain.FailedEventPublish(nil), f.rows...), nil
}

func (f *fakeLedger) Update(_ context.Context, row *retrydomain.FailedEventPublish) error {
	f.updates = append(f.updates, *row)
	for i := range f.rows {
		if f.rows[i].ID == row.ID {
			f.rows[i] = *row
		}
	}
	return nil
}

type fakeEventStore struct {
	events map[string]*eventstoredomain.StoredEvent
}

func (f *fakeEventStore) GetByAggregateIDAndType(_ context.Context, aggregateID, eventType string) (*eventstoredomain.StoredEvent, error) {
	if stored, ok := f.events[aggregateID]; ok {
		return stored, nil
	}
	return nil, fmt.Errorf("%w: aggregate %s type %s", eventstoredomain.ErrEventNotFound, aggregateID, eventType)
}

type fakeBuilder struct {
	noopAggregates map[string]bool
	errAggregates  map[string]error
}

func (f *fakeBuilder) BuildPurchaseEvent(_ context.Context, ev *purchasedomain.OutcomeEvent) (*enrichmentdomain.PurchaseIntegrationEvent, error) {
	if err := f.errAggregates[ev.AggregateID]; err != nil {
		return nil, err
	}
	if f.noopAggregates[ev.AggregateID] {
		return nil, nil
	}
	return &enrichmentdomain.PurchaseIntegrationEvent{
		AggregateID: ev.AggregateID,
		MemberID:    ev.MemberID,
		Items:       []enrichmentdomain.PurchaseItem{{BundleID: "bundle-1"}},
	}, nil
}

func (f *fakeBuilder) BuildEnrichedEvent(_ context.Context, ev *purchasedomain.OutcomeEvent) (bus.Event, error) {
	if err := f.errAggregates[ev.AggregateID]; err != nil {
		return nil, err
	}
	if f.noopAggregates[ev.AggregateID] {
		return nil, nil
	}
	return &enrichmentdomain.PurchaseProcessedEnriched{
		AggregateID: ev.AggregateID,
		MemberID:    ev.MemberID,
	}, nil
}

type scriptedBus struct {
	errs      map[string]error
	published []string
	types     []string
}

func (b *scriptedBus) Publish(_ context.Context, event bus.Event, _ string) error {
	var aggregateID string
	switch typed := event.(type) {
	case *enrichmentdomain.PurchaseIntegrationEvent:
		aggregateID = typed.AggregateID
	case *enrichmentdomain.PurchaseProcessedEnriched:
		aggregateID = typed.AggregateID
	}
	if err := b.errs[aggregateID]; err != nil {
		return err
	}
	b.published = append(b.published, aggregateID)
	b.types = append(b.types, event.EventType())
	return nil
}

type fixture struct {
	ledger  *fakeLedger
	events  *fakeEventStore
	builder *fakeBuilder
	bus     *scriptedBus
}

func newFixture(aggregateIDs ...string) *fixture {
	f := &fixture{
		ledger:  &fakeLedger{},
		events:  &fakeEventStore{events: map[string]*eventstoredomain.StoredEvent{}},
		builder: &fakeBuilder{noopAggregates: map[string]bool{}, errAggregates: map[string]error{}},
		bus:     &scriptedBus{errs: map[string]error{}},
	}
	for i, aggregateID := range aggregateIDs {
		f.ledger.rows = append(f.ledger.rows, retrydomain.FailedEventPublish{
			ID:          snowflakeID(i + 1),
			AggregateID: aggregateID,
			EventType:   enrichmentdomain.EventTypePurchaseIntegration,
			CreatedAt:   time.Date(2026, 3, 14, 9, 0, i, 0, time.UTC),
		})
		body := fmt.Sprintf(`{"aggregate_id": "%s", "memberId": "member-%d", "subscriptionId": "sub-%d"}`, aggregateID, i+1, i+1)
		f.events.events[aggregateID] = &eventstoredomain.StoredEvent{
			ID:          snowflakeID(100 + i),
			AggregateID: aggregateID,
			EventType:   purchasedomain.EventTypePurchaseProcessed,
			EventBody:   datatypes.JSON(body),
		}
	}
	return f
}

func (f *fixture) coordinator(t *testing.T) *Coordinator {
	t.Helper()
	return NewCoordinator(Params{
		Log:     zap.NewNop(),
		Config:  config.Config{RetryBatchSize: 10, RetryRunInterval: time.Minute},
		Ledger:  f.ledger,
		Events:  f.events,
		Builder: f.builder,
		Bus:     f.bus,
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)),
	})
}

func TestRunOncePublishesAndClosesRows(t *testing.T) {
	f := newFixture("agg-1", "agg-2")
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, []string{"agg-1", "agg-2"}, f.bus.published)
	require.Equal(t, []string{
		enrichmentdomain.EventTypePurchaseIntegration,
		enrichmentdomain.EventTypePurchaseIntegration,
	}, f.bus.types)

	for _, row := range f.ledger.rows {
		require.True(t, row.Published)
		require.Zero(t, row.Retries)
		require.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), row.UpdatedAt,
			"row timestamps come from the injected clock")
	}
}

func TestRunOnceReplaysEnrichedRowAsEnriched(t *testing.T) {
	f := newFixture("agg-1", "agg-2")
	f.ledger.rows[0].EventType = enrichmentdomain.EventTypePurchaseEnriched
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, []string{
		enrichmentdomain.EventTypePurchaseEnriched,
		enrichmentdomain.EventTypePurchaseIntegration,
	}, f.bus.types, "each row replays the projection that originally failed")
	require.True(t, f.ledger.rows[0].Published)
	require.True(t, f.ledger.rows[1].Published)
}

func TestRunOnceReplaysRebillRowAsEnriched(t *testing.T) {
	f := newFixture("agg-1")
	f.ledger.rows[0].EventType = enrichmentdomain.EventTypeRebillUnsuccessful
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, []string{enrichmentdomain.EventTypePurchaseEnriched}, f.bus.types)
}

func TestRunOnceLegacyRowWithoutTypeReplaysImport(t *testing.T) {
	f := newFixture("agg-1")
	f.ledger.rows[0].EventType = ""
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, []string{enrichmentdomain.EventTypePurchaseIntegration}, f.bus.types)
	require.True(t, f.ledger.rows[0].Published)
}

func TestRunOnceBrokerOutageAbortsBatchWithoutCounting(t *testing.T) {
	f := newFixture("agg-1", "agg-2", "agg-3")
	f.bus.errs["agg-2"] = sarama.ErrOutOfBrokers
	c := f.coordinator(t)

	err := c.RunOnce(context.Background())
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)

	require.Equal(t, []string{"agg-1"}, f.bus.published, "run halts before the row after the outage")
	require.True(t, f.ledger.rows[0].Published)
	require.Zero(t, f.ledger.rows[1].Retries, "an outage must not inflate retry counts")
	require.False(t, f.ledger.rows[1].Published)
	require.Zero(t, f.ledger.rows[2].Retries)
	require.False(t, f.ledger.rows[2].Published)
}

func TestRunOnceRowFailureIncrementsAndContinues(t *testing.T) {
	f := newFixture("agg-1", "agg-2", "agg-3")
	f.bus.errs["agg-2"] = errors.New("message too large")
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, []string{"agg-1", "agg-3"}, f.bus.published, "one bad row does not stop the batch")

	require.True(t, f.ledger.rows[0].Published)
	require.Equal(t, 1, f.ledger.rows[1].Retries)
	require.False(t, f.ledger.rows[1].Published)
	require.True(t, f.ledger.rows[2].Published)
}

func TestRunOnceRehydrationFailureIsRowLevel(t *testing.T) {
	f := newFixture("agg-1", "agg-2")
	delete(f.events.events, "agg-1")
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, 1, f.ledger.rows[0].Retries)
	require.False(t, f.ledger.rows[0].Published)
	require.True(t, f.ledger.rows[1].Published)
}

func TestRunOnceBuildFailureIsRowLevel(t *testing.T) {
	f := newFixture("agg-1", "agg-2")
	f.builder.errAggregates["agg-1"] = errors.New("bundle_not_found")
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Equal(t, 1, f.ledger.rows[0].Retries)
	require.True(t, f.ledger.rows[1].Published)
}

func TestRunOnceNoopOutcomeClosesRow(t *testing.T) {
	f := newFixture("agg-1")
	f.builder.noopAggregates["agg-1"] = true
	c := f.coordinator(t)

	require.NoError(t, c.RunOnce(context.Background()))
	require.Empty(t, f.bus.published)
	require.True(t, f.ledger.rows[0].Published, "an outcome that no longer projects anything is done")
}

func TestRunOnceRespectsBatchSize(t *testing.T) {
	f := newFixture("agg-1", "agg-2", "agg-3")
	c := NewCoordinator(Params{
		Log:     zap.NewNop(),
		Config:  config.Config{RetryBatchSize: 2, RetryRunInterval: time.Minute},
		Ledger:  f.ledger,
		Events:  f.events,
		Builder: f.builder,
		Bus:     f.bus,
		Clock:   clock.NewFakeClock(time.Now()),
	})

	require.NoError(t, c.RunOnce(context.Background()))
	require.Len(t, f.bus.published, 2)
}

func TestRunOnceLedgerReadFailurePropagates(t *testing.T) {
	f := newFixture("agg-1")
	f.ledger.findErr = errors.New("server has gone away")
	c := f.coordinator(t)

	require.Error(t, c.RunOnce(context.Background()))
	require.Empty(t, f.bus.published)
}
