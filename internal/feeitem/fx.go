package feeitem

import (
	"github.com/shulepay/shulepay/internal/feeitem/service"
	"go.uber.org/fx"
)

var Module = fx.Module("feeitem.service",
	fx.Provide(service.NewService),
)
