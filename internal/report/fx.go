package report

import (
	"context"

	"github.com/smallbiznis/paysignal/internal/config"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("report",
	fx.Provide(
		func(s tenantdomain.Service) GroupLister { return s },
		func(s txdomain.Service) Summarizer { return s },
		NewLogNotifier,
		New,
	),
	fx.Invoke(Register),
)

func Register(lc fx.Lifecycle, cfg config.Config, sched *Scheduler) {
	if !cfg.Report.Enabled {
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { return sched.Start() },
		OnStop:  sched.Stop,
	})
}
