package consumer

import (
	"context"
	"errors"

	obsmetrics "github.com/billgate/purchasegw/internal/observability/metrics"
	purchasedomain "github.com/billgate/purchasegw/internal/purchase/domain"
	transactiondomain "github.com/billgate/purchasegw/internal/transaction/domain"
	"github.com/billgate/purchasegw/pkg/log/ctxlogger"
	"go.uber.org/zap"
)

// Handler consumes one inbound message body. A nil return marks the message;
// an error leaves it for transport redelivery.
type Handler interface {
	Name() string
	ConsumeEvent(ctx context.Context, body []byte) error
}

// Enricher is the projection engine the handlers drive.
type Enricher interface {
	ProcessPurchaseEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) error
	ProcessEnrichedEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) error
}

// PurchaseImportHandler drives the multi-item legacy import projection.
type PurchaseImportHandler struct {
	log *zap.Logger
	svc Enricher
}

func NewPurchaseImportHandler(log *zap.Logger, svc Enricher) *PurchaseImportHandler {
	return &PurchaseImportHandler{log: log.Named("consumer.purchase_import"), svc: svc}
}

func (h *PurchaseImportHandler) Name() string { return "purchase_import" }

func (h *PurchaseImportHandler) ConsumeEvent(ctx context.Context, body []byte) error {
	return consume(ctx, h.log, h.Name(), body, h.svc.ProcessPurchaseEvent)
}

// MemberProfileHandler drives the single enriched member-profile projection.
type MemberProfileHandler struct {
	log *zap.Logger
	svc Enricher
}

func NewMemberProfileHandler(log *zap.Logger, svc Enricher) *MemberProfileHandler {
	return &MemberProfileHandler{log: log.Named("consumer.member_profile"), svc: svc}
}

func (h *MemberProfileHandler) Name() string { return "member_profile" }

func (h *MemberProfileHandler) ConsumeEvent(ctx context.Context, body []byte) error {
	return consume(ctx, h.log, h.Name(), body, h.svc.ProcessEnrichedEvent)
}

// consume is the skeleton both handlers share; only the projection differs.
// Malformed bodies and unknown upstream shapes fail identically on every
// redelivery, so they are logged and dropped instead of returned.
func consume(ctx context.Context, log *zap.Logger, name string, body []byte, process func(context.Context, *purchasedomain.OutcomeEvent) error) error {
	ev, err := purchasedomain.DecodeOutcomeEvent(body)
	if err != nil {
		ctxlogger.WithContext(ctx, log).Error("dropping undecodable event body", zap.Error(err))
		obsmetrics.Pipeline().IncConsumed(name, obsmetrics.OutcomeSkipped)
		return nil
	}

	err = process(ctx, ev)
	switch {
	case err == nil:
		obsmetrics.Pipeline().IncConsumed(name, obsmetrics.OutcomePublished)
		return nil
	case errors.Is(err, transactiondomain.ErrInvalidResponse) || errors.Is(err, transactiondomain.ErrInvalidBillerFieldsData):
		ctxlogger.WithContext(ctx, log).Error("dropping event with unknown upstream shape",
			zap.String("aggregate_id", ev.AggregateID),
			zap.Error(err),
		)
		obsmetrics.Pipeline().IncConsumed(name, obsmetrics.OutcomeError)
		return nil
	default:
		obsmetrics.Pipeline().IncConsumed(name, obsmetrics.OutcomeFailed)
		return err
	}
}

// Classified decorates a handler, mapping repository-connectivity faults
// onto ErrRepositoryConnection before they reach the transport.
func Classified(next Handler) Handler {
	return &classified{next: next}
}

type classified struct {
	next Handler
}

func (c *classified) Name() string { return c.next.Name() }

func (c *classified) ConsumeEvent(ctx context.Context, body []byte) error {
	return ClassifyRepositoryErr(c.next.ConsumeEvent(ctx, body))
}
