package retry

import (
	"context"
	"time"

	"github.com/billgate/purchasegw/internal/bus"
	"github.com/billgate/purchasegw/internal/clock"
	"github.com/billgate/purchasegw/internal/config"
	enrichmentdomain "github.com/billgate/purchasegw/internal/enrichment/domain"
	eventstoredomain "github.com/billgate/purchasegw/internal/eventstore/domain"
	obsmetrics "github.com/billgate/purchasegw/internal/observability/metrics"
	purchasedomain "github.com/billgate/purchasegw/internal/purchase/domain"
	retrydomain "github.com/billgate/purchasegw/internal/retry/domain"
	"github.com/billgate/purchasegw/pkg/log/ctxlogger"
	"github.com/billgate/purchasegw/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// EventBuilder rebuilds an outbound projection for a re-hydrated outcome
// without publishing it or touching the failure ledger.
type EventBuilder interface {
	BuildPurchaseEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) (*enrichmentdomain.PurchaseIntegrationEvent, error)
	BuildEnrichedEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) (bus.Event, error)
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Config  config.Config
	Ledger  retrydomain.Repository
	Events  eventstoredomain.Repository
	Builder EventBuilder
	Bus     bus.ServiceBus
	Clock   clock.Clock
}

// Coordinator replays failed publications from the ledger on a schedule.
// Rows either become published or stay pending with an incremented retry
// count. A broker outage aborts the whole batch without touching counters.
type Coordinator struct {
	log       *zap.Logger
	ledger    retrydomain.Repository
	events    eventstoredomain.Repository
	builder   EventBuilder
	bus       bus.ServiceBus
	clock     clock.Clock
	batchSize int
	interval  time.Duration
}

func NewCoordinator(p Params) *Coordinator {
	return &Coordinator{
		log:       p.Log.Named("retry.coordinator"),
		ledger:    p.Ledger,
		events:    p.Events,
		builder:   p.Builder,
		bus:       p.Bus,
		clock:     p.Clock,
		batchSize: p.Config.RetryBatchSize,
		interval:  p.Config.RetryRunInterval,
	}
}

// RunOnce processes one bounded batch of unpublished ledger rows.
func (c *Coordinator) RunOnce(ctx context.Context) error {
	obsmetrics.Pipeline().IncRetryRun()

	rows, err := c.ledger.FindBatch(ctx, c.batchSize)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	log := ctxlogger.WithContext(ctx, c.log).With(zap.Int("batch_size", len(rows)))
	log.Info("replaying failed publications")

	for i := range rows {
		row := &rows[i]

		// Each replay runs under its own correlation id so downstream
		// consumers can tell it apart from the original attempt.
		rowCtx := correlation.ContextWithCorrelationID(ctx, correlation.NewCorrelationID())
		rowLog := ctxlogger.WithContext(rowCtx, c.log).With(zap.String("aggregate_id", row.AggregateID))

		event, key, err := c.rebuild(rowCtx, row)
		if err != nil {
			c.recordFailure(rowCtx, rowLog, row, err)
			continue
		}

		if event != nil {
			if err := c.bus.Publish(rowCtx, event, key); err != nil {
				if bus.IsBrokerConnErr(err) {
					// The broker is down for every row after this one
					// too. Leave counters untouched and stop the run.
					obsmetrics.Pipeline().IncRetryRow(obsmetrics.RetryOutcomeAborted)
					rowLog.Error("broker unavailable, aborting batch", zap.Error(err))
					return err
				}
				c.recordFailure(rowCtx, rowLog, row, err)
				continue
			}
		} else {
			rowLog.Info("outcome no longer produces an event, closing ledger row")
		}

		c.markPublished(rowCtx, rowLog, row)
	}

	return nil
}

// RunForever runs batches on the configured interval until the context ends.
func (c *Coordinator) RunForever(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("retry coordinator stopped")
			return
		case <-ticker.C:
			if err := c.RunOnce(ctx); err != nil {
				c.log.Error("retry run failed", zap.Error(err))
			}
		}
	}
}

// rebuild re-hydrates the original outcome from the event store and rebuilds
// the projection the row recorded as failed. The ledger stores the aggregate
// id and the event type, never the payload.
func (c *Coordinator) rebuild(ctx context.Context, row *retrydomain.FailedEventPublish) (bus.Event, string, error) {
	stored, err := c.events.GetByAggregateIDAndType(ctx, row.AggregateID, purchasedomain.EventTypePurchaseProcessed)
	if err != nil {
		return nil, "", err
	}

	outcome, err := purchasedomain.DecodeOutcomeEvent(stored.Body())
	if err != nil {
		return nil, "", err
	}

	var event bus.Event
	switch row.EventType {
	case enrichmentdomain.EventTypePurchaseEnriched,
		enrichmentdomain.EventTypeRebillSuccessful,
		enrichmentdomain.EventTypeRebillUnsuccessful:
		event, err = c.builder.BuildEnrichedEvent(ctx, outcome)
	default:
		// Rows written before event types were recorded carry the legacy
		// import projection.
		var purchase *enrichmentdomain.PurchaseIntegrationEvent
		purchase, err = c.builder.BuildPurchaseEvent(ctx, outcome)
		if purchase != nil {
			event = purchase
		}
	}
	if err != nil {
		return nil, "", err
	}
	return event, outcome.MemberID, nil
}

func (c *Coordinator) recordFailure(ctx context.Context, log *zap.Logger, row *retrydomain.FailedEventPublish, cause error) {
	row.Retries++
	row.UpdatedAt = c.clock.Now()
	if err := c.ledger.Update(ctx, row); err != nil {
		log.Error("failed to increment retry counter", zap.Error(err))
	}
	obsmetrics.Pipeline().IncRetryRow(obsmetrics.RetryOutcomeRetried)
	log.Warn("replay failed, will retry on next run",
		zap.Int("retries", row.Retries),
		zap.Error(cause),
	)
}

func (c *Coordinator) markPublished(ctx context.Context, log *zap.Logger, row *retrydomain.FailedEventPublish) {
	row.Published = true
	row.UpdatedAt = c.clock.Now()
	if err := c.ledger.Update(ctx, row); err != nil {
		log.Error("failed to close ledger row", zap.Error(err))
		return
	}
	obsmetrics.Pipeline().IncRetryRow(obsmetrics.RetryOutcomePublished)
	log.Info("failed publication replayed", zap.Int("retries", row.Retries))
}
