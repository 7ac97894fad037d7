package sale

import (
	"github.com/smallbiznis/tradebook/internal/invoice/numbering"
	"github.com/smallbiznis/tradebook/internal/sale/repository"
	"github.com/smallbiznis/tradebook/internal/sale/service"
	"go.uber.org/fx"
)

var Module = fx.Module("sale.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(a *numbering.Allocator) service.NumberReserver { return a }),
	fx.Provide(service.New),
)
