package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/paysignal/internal/clock"
	"github.com/smallbiznis/paysignal/internal/config"
	"github.com/smallbiznis/paysignal/internal/ingest"
	"github.com/smallbiznis/paysignal/internal/observability"
	obslogger "github.com/smallbiznis/paysignal/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/paysignal/internal/observability/metrics"
	obstracing "github.com/smallbiznis/paysignal/internal/observability/tracing"
	psdomain "github.com/smallbiznis/paysignal/internal/paymentsource/domain"
	"github.com/smallbiznis/paysignal/internal/ratelimit"
	"github.com/smallbiznis/paysignal/internal/securitylog"
	tenantdomain "github.com/smallbiznis/paysignal/internal/tenant/domain"
	txdomain "github.com/smallbiznis/paysignal/internal/transaction/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Provide(func(s *ingest.Service) Pipeline { return s }),
	fx.Provide(NewServer),
	fx.Invoke(run),
)

// Pipeline is the message processing collaborator.
type Pipeline interface {
	Process(ctx context.Context, message, groupID string) (ingest.Result, error)
	TestPatterns(ctx context.Context, req ingest.TestRequest) ingest.TestResult
}

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config) *gin.Engine {
	return NewEngine(obsCfg)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine   *gin.Engine
	log      *zap.Logger
	clock    clock.Clock
	tenants  tenantdomain.Service
	sources  psdomain.Service
	txs      txdomain.Service
	pipeline Pipeline
	limiter  ratelimit.Limiter
	sink     securitylog.Sink
	metrics  *obsmetrics.Metrics
	loc      *time.Location
}

type ServerParams struct {
	fx.In

	Gin      *gin.Engine
	Log      *zap.Logger
	Clock    clock.Clock
	Tenants  tenantdomain.Service
	Sources  psdomain.Service
	Txs      txdomain.Service
	Pipeline Pipeline
	Limiter  ratelimit.Limiter
	Sink     securitylog.Sink    `optional:"true"`
	Metrics  *obsmetrics.Metrics `optional:"true"`
	Location *time.Location      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	sink := p.Sink
	if sink == nil {
		sink = securitylog.NewZapSink(p.Log, p.Clock)
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	s := &Server{
		loc:      loc,
		engine:   p.Gin,
		log:      p.Log.Named("http.server"),
		clock:    p.Clock,
		tenants:  p.Tenants,
		sources:  p.Sources,
		txs:      p.Txs,
		pipeline: p.Pipeline,
		limiter:  p.Limiter,
		sink:     sink,
		metrics:  p.Metrics,
	}

	s.registerAPIRoutes()
	s.registerFallback()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Onboarding --------
	v1.POST("/clients", s.CreateClient)

	auth := v1.Group("", s.APIKeyRequired())
	auth.GET("/account", s.GetAccount)
	auth.POST("/groups", s.AddGroup)
	auth.GET("/sources", s.ListSources)
	auth.POST("/patterns/test", s.RequireFeature(tenantdomain.FeatureCustomPatterns), s.TestPatterns)

	// -------- Group scoped --------
	group := auth.Group("/groups/:group_id", s.GroupOwnership())
	group.POST("/messages", s.ProcessMessage)
	group.GET("/transactions", s.ListTransactions)
	group.GET("/transactions/history", s.TransactionHistory)
	group.GET("/reports/daily", s.DailyReport)
	group.GET("/reports/summary", s.SummaryReport)

	adminLimit := s.RateLimit(config.ActionAdminCommand)
	group.GET("/settings", adminLimit, s.GetSettings)
	group.PUT("/source", adminLimit, s.SetSource)
	group.PUT("/enabled", adminLimit, s.SetEnabled)
	group.PUT("/custom-source", s.RequireFeature(tenantdomain.FeatureCustomPatterns), adminLimit, s.SetCustomSource)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
