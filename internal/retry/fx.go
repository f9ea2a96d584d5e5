package retry

import (
	"context"

	enrichmentservice "github.com/billgate/purchasegw/internal/enrichment/service"
	eventstorerepository "github.com/billgate/purchasegw/internal/eventstore/repository"
	"github.com/billgate/purchasegw/internal/retry/repository"
	"go.uber.org/fx"
)

func runCoordinator(lc fx.Lifecycle, c *Coordinator) {
	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				defer close(done)
				c.RunForever(runCtx)
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

var Module = fx.Module("retry",
	fx.Provide(
		repository.Provide,
		eventstorerepository.Provide,
		func(svc *enrichmentservice.Service) EventBuilder { return svc },
		NewCoordinator,
	),
	fx.Invoke(runCoordinator),
)
