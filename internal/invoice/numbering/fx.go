package numbering

import "go.uber.org/fx"

var Module = fx.Module("invoice.numbering",
	fx.Provide(New),
)
