package ingest

import (
	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("ingest.service",
	fx.Provide(
		func(s psdomain.Service) SourceResolver { return s },
		func(s txdomain.Service) Store { return s },
		func(s tenantdomain.Service) Authorizer { return s },
	),
	fx.Provide(NewService),
)
