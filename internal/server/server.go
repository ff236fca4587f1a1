// Package server exposes the HTTP API: batch processing, payment
// calculation, fingerprinting, rules and analyses.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/courierpay/courierpay/internal/analysis"
	analysisdomain "github.com/courierpay/courierpay/internal/analysis/domain"
	"github.com/courierpay/courierpay/internal/cache"
	"github.com/courierpay/courierpay/internal/clock"
	"github.com/courierpay/courierpay/internal/config"
	"github.com/courierpay/courierpay/internal/extraction"
	"github.com/courierpay/courierpay/internal/fingerprint"
	fpdomain "github.com/courierpay/courierpay/internal/fingerprint/domain"
	"github.com/courierpay/courierpay/internal/observability"
	obsmiddleware "github.com/courierpay/courierpay/internal/observability/logger"
	obsmetrics "github.com/courierpay/courierpay/internal/observability/metrics"
	obstracing "github.com/courierpay/courierpay/internal/observability/tracing"
	"github.com/courierpay/courierpay/internal/processor"
	"github.com/courierpay/courierpay/internal/rules"
	rulesdomain "github.com/courierpay/courierpay/internal/rules/domain"
	"github.com/courierpay/courierpay/internal/validation"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	cache.Module,
	extraction.Module,
	processor.Module,
	fingerprint.Module,
	rules.Module,
	analysis.Module,
	validation.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug: obsCfg.Debug(),
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
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
	engine *gin.Engine
	cfg    config.Config
	log    *zap.Logger
	clock  clock.Clock

	processor      *processor.Processor
	worker         *processor.Worker
	rulesSvc       rulesdomain.Service
	analysisSvc    analysisdomain.Service
	fingerprintSvc fpdomain.Service
	validationSvc  *validation.Service
	extractionCfg  *config.ExtractionConfigHolder
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	Cfg            config.Config
	Log            *zap.Logger
	Clock          clock.Clock
	Processor      *processor.Processor
	Worker         *processor.Worker
	RulesSvc       rulesdomain.Service
	AnalysisSvc    analysisdomain.Service
	FingerprintSvc fpdomain.Service
	ValidationSvc  *validation.Service
	ExtractionCfg  *config.ExtractionConfigHolder
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:         p.Gin,
		cfg:            p.Cfg,
		log:            p.Log.Named("server"),
		clock:          p.Clock,
		processor:      p.Processor,
		worker:         p.Worker,
		rulesSvc:       p.RulesSvc,
		analysisSvc:    p.AnalysisSvc,
		fingerprintSvc: p.FingerprintSvc,
		validationSvc:  p.ValidationSvc,
		extractionCfg:  p.ExtractionCfg,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/process", s.handleProcess)
	v1.POST("/process/async", s.handleProcessAsync)

	v1.POST("/payments/daily", s.handleDailyPayment)
	v1.POST("/payments/weekly-stats", s.handleWeeklyStats)

	v1.POST("/fingerprints/files", s.handleFingerprintFiles)
	v1.POST("/fingerprints/manual", s.handleFingerprintManual)
	v1.POST("/fingerprints/compare", s.handleFingerprintCompare)

	v1.GET("/rules", s.handleListRules)
	v1.POST("/rules", s.handleCreateRules)
	v1.GET("/rules/active", s.handleActiveRules)
	v1.POST("/rules/rates", s.handleUpdateRates)

	v1.POST("/analyses", s.handleSaveAnalysis)
	v1.GET("/analyses", s.handleListAnalyses)
	v1.GET("/analyses/:reference", s.handleGetAnalysis)
	v1.PUT("/analyses/:reference/entries/:date/paid", s.handleUpdatePaid)
	v1.PUT("/analyses/:reference/entries/:date/pickup", s.handleUpdatePickup)
	v1.POST("/analyses/validate", s.handleValidateAnalysis)
}
