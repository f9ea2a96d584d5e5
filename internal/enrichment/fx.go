package enrichment

import (
	"github.com/billgate/purchasegw/internal/enrichment/service"
	"go.uber.org/fx"
)

var Module = fx.Module("enrichment",
	fx.Provide(service.NewService),
)
