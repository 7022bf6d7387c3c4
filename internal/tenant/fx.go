package tenant

import (
	"github.com/smallbiznis/paysignal/internal/tenant/repository"
	"github.com/smallbiznis/paysignal/internal/tenant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("tenant.service",
	fx.Provide(service.NewEnforcer),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
