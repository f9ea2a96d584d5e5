package consumer

import (
	"context"

	"github.com/billgate/purchasegw/internal/bus"
	"github.com/billgate/purchasegw/internal/config"
	enrichmentservice "github.com/billgate/purchasegw/internal/enrichment/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	Config         config.Config
	PurchaseImport *PurchaseImportHandler
	MemberProfile  *MemberProfileHandler
}

// NewConsumerGroup binds each inbound topic to its classified handler.
func NewConsumerGroup(p Params) *bus.ConsumerGroup {
	handlers := map[string]bus.HandlerFunc{
		p.Config.TopicPurchaseOutcome:      Classified(p.PurchaseImport).ConsumeEvent,
		p.Config.TopicMemberProfileOutcome: Classified(p.MemberProfile).ConsumeEvent,
	}
	return bus.NewConsumerGroup(p.Config.KafkaBrokers, p.Config.KafkaConsumerGroup, handlers, p.Log)
}

func runConsumer(lc fx.Lifecycle, group *bus.ConsumerGroup, log *zap.Logger) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				defer close(done)
				if err := group.Run(runCtx); err != nil {
					log.Error("consumer group stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	})
}

var Module = fx.Module("consumer",
	fx.Provide(
		func(svc *enrichmentservice.Service) Enricher { return svc },
		NewPurchaseImportHandler,
		NewMemberProfileHandler,
		NewConsumerGroup,
	),
	fx.Invoke(runConsumer),
)
