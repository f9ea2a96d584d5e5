package bus

import (
	"context"
	"encoding/json"
	"errors"
	"net"

	"github.com/IBM/sarama"
	"github.com/billgate/purchasegw/internal/config"
	obsmetrics "github.com/billgate/purchasegw/internal/observability/metrics"
	"github.com/billgate/purchasegw/pkg/log/ctxlogger"
	"github.com/billgate/purchasegw/pkg/telemetry/correlation"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ErrBrokerUnavailable marks a broker-connectivity fault, as opposed to a
// per-message failure. The retry coordinator halts a whole batch on it.
var ErrBrokerUnavailable = errors.New("broker_unavailable")

// Event is anything the pipeline can put on the wire.
type Event interface {
	EventType() string
}

// ServiceBus delivers integration events keyed by a correlation identity.
// Publish never swallows failures; retry policy belongs to the callers.
type ServiceBus interface {
	Publish(ctx context.Context, event Event, key string) error
}

type kafkaBus struct {
	producer sarama.SyncProducer
	topic    string
	log      *zap.Logger
}

// NewProducer builds the sarama sync producer with full-acknowledgement delivery.
func NewProducer(lc fx.Lifecycle, cfg config.Config) (sarama.SyncProducer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(cfg.KafkaBrokers, saramaCfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			_ = ctx
			return producer.Close()
		},
	})

	return producer, nil
}

// New wraps the producer as the pipeline's service bus.
func New(producer sarama.SyncProducer, cfg config.Config, log *zap.Logger) ServiceBus {
	return &kafkaBus{
		producer: producer,
		topic:    cfg.TopicIntegrationEvents,
		log:      log.Named("bus.publisher"),
	}
}

func (b *kafkaBus) Publish(ctx context.Context, event Event, key string) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, cid := correlation.EnsureCorrelationID(ctx)
	msg := &sarama.ProducerMessage{
		Topic: b.topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("eventType"), Value: []byte(event.EventType())},
			{Key: []byte("correlationId"), Value: []byte(cid)},
		},
	}

	log := ctxlogger.WithContext(ctx, b.log).With(
		zap.String("event_type", event.EventType()),
		zap.String("key", key),
	)

	partition, offset, err := b.producer.SendMessage(msg)
	if err != nil {
		obsmetrics.Pipeline().IncPublishFailure(event.EventType())
		log.Error("publish failed", zap.Error(err))
		return err
	}

	obsmetrics.Pipeline().IncPublished(event.EventType())
	log.Info("integration event published",
		zap.Int32("partition", partition),
		zap.Int64("offset", offset),
	)
	return nil
}

// IsBrokerConnErr reports whether an error is a broker-connectivity fault
// rather than a per-message problem.
func IsBrokerConnErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrBrokerUnavailable) {
		return true
	}
	if errors.Is(err, sarama.ErrOutOfBrokers) || errors.Is(err, sarama.ErrNotConnected) ||
		errors.Is(err, sarama.ErrClosedClient) || errors.Is(err, sarama.ErrBrokerNotAvailable) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
