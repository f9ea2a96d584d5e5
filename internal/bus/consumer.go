package bus

import (
	"context"

	"github.com/IBM/sarama"
	"github.com/billgate/purchasegw/pkg/log/ctxlogger"
	"github.com/billgate/purchasegw/pkg/telemetry/correlation"
	"go.uber.org/zap"
)

// HandlerFunc processes one inbound message body for a topic.
type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumerGroup routes inbound topics to their command handlers. Messages are
// marked only after the handler succeeds, so a failing handler sees the
// message again on the next delivery.
type ConsumerGroup struct {
	brokers  []string
	groupID  string
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func NewConsumerGroup(brokers []string, groupID string, handlers map[string]HandlerFunc, log *zap.Logger) *ConsumerGroup {
	return &ConsumerGroup{
		brokers:  brokers,
		groupID:  groupID,
		handlers: handlers,
		log:      log.Named("bus.consumer"),
	}
}

func (c *ConsumerGroup) Run(ctx context.Context) error {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Consumer.Return.Errors = true
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	group, err := sarama.NewConsumerGroup(c.brokers, c.groupID, saramaCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := group.Close(); err != nil {
			c.log.Warn("closing consumer group", zap.Error(err))
		}
	}()

	topics := make([]string, 0, len(c.handlers))
	for topic := range c.handlers {
		topics = append(topics, topic)
	}

	handler := &groupHandler{handlers: c.handlers, log: c.log}
	for {
		if err := group.Consume(ctx, topics, handler); err != nil {
			c.log.Error("consume loop error", zap.Error(err))
		}
		if ctx.Err() != nil {
			c.log.Info("context cancelled, shutting down consumer")
			return nil
		}
	}
}

type groupHandler struct {
	handlers map[string]HandlerFunc
	log      *zap.Logger
}

func (h *groupHandler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	handle, ok := h.handlers[claim.Topic()]
	if !ok {
		return nil
	}

	for msg := range claim.Messages() {
		ctx := contextFrom(session.Context(), msg)

		if err := handle(ctx, msg.Value); err != nil {
			ctxlogger.WithContext(ctx, h.log).Error("failed to process message",
				zap.String("topic", msg.Topic),
				zap.Int32("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
			// Returning without marking keeps this offset uncommitted, so
			// the group re-fetches the message instead of skipping past it.
			return err
		}
		session.MarkMessage(msg, "")
	}

	return nil
}

func contextFrom(ctx context.Context, msg *sarama.ConsumerMessage) context.Context {
	for _, header := range msg.Headers {
		if string(header.Key) == "correlationId" {
			ctx = correlation.ContextWithCorrelationID(ctx, string(header.Value))
		}
	}
	ctx, _ = correlation.EnsureCorrelationID(ctx)
	return ctx
}
