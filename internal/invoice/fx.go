package invoice

import (
	"github.com/smallbiznis/tradebook/internal/invoice/numbering"
	"github.com/smallbiznis/tradebook/internal/invoice/render"
	"github.com/smallbiznis/tradebook/internal/invoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module("invoice.service",
	numbering.Module,
	render.Module,
	fx.Provide(func(a *numbering.Allocator) service.NumberPreviewer { return a }),
	fx.Provide(func(r *render.PDFRenderer) service.DocumentRenderer { return r }),
	fx.Provide(service.New),
)
