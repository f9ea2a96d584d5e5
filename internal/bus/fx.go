package bus

import "go.uber.org/fx"

var Module = fx.Module("bus",
	fx.Provide(NewProducer),
	fx.Provide(New),
)
