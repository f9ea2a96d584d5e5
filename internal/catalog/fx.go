package catalog

import (
	"github.com/billgate/purchasegw/internal/catalog/repository"
	"github.com/billgate/purchasegw/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog",
	fx.Provide(repository.Provide),
	fx.Provide(service.ProvideSiteConfig),
)
