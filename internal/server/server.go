package server

import (
	"context"
	"net/http"
	"time"

	academicsdomain "github.com/admitworks/matricula/internal/academics/domain"
	auditdomain "github.com/admitworks/matricula/internal/audit/domain"
	candidatedomain "github.com/admitworks/matricula/internal/candidate/domain"
	"github.com/admitworks/matricula/internal/config"
	"github.com/admitworks/matricula/internal/dashboard"
	feedomain "github.com/admitworks/matricula/internal/feeschedule/domain"
	"github.com/admitworks/matricula/internal/observability"
	obslogger "github.com/admitworks/matricula/internal/observability/logger"
	obsmetrics "github.com/admitworks/matricula/internal/observability/metrics"
	"github.com/admitworks/matricula/internal/payment/adapters"
	paymentdomain "github.com/admitworks/matricula/internal/payment/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, metrics *obsmetrics.Metrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obsmetrics.GinMiddleware(metrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server", zap.Error(err))
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
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	db           *gorm.DB
	genID        *snowflake.Node
	registry     *adapters.Registry
	paymentRepo  paymentdomain.Repository
	paymentSvc   paymentdomain.Service
	webhookSvc   paymentdomain.WebhookService
	receiptSvc   paymentdomain.ReceiptService
	candidateSvc candidatedomain.Service
	feeSvc       feedomain.Service
	academicsSvc academicsdomain.Service
	auditSvc     auditdomain.Service
	dashboardSvc dashboard.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	DB           *gorm.DB
	GenID        *snowflake.Node
	Registry     *adapters.Registry
	PaymentRepo  paymentdomain.Repository
	PaymentSvc   paymentdomain.Service
	WebhookSvc   paymentdomain.WebhookService
	ReceiptSvc   paymentdomain.ReceiptService
	CandidateSvc candidatedomain.Service
	FeeSvc       feedomain.Service
	AcademicsSvc academicsdomain.Service
	AuditSvc     auditdomain.Service
	DashboardSvc dashboard.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		db:           p.DB,
		genID:        p.GenID,
		registry:     p.Registry,
		paymentRepo:  p.PaymentRepo,
		paymentSvc:   p.PaymentSvc,
		webhookSvc:   p.WebhookSvc,
		receiptSvc:   p.ReceiptSvc,
		candidateSvc: p.CandidateSvc,
		feeSvc:       p.FeeSvc,
		academicsSvc: p.AcademicsSvc,
		auditSvc:     p.AuditSvc,
		dashboardSvc: p.DashboardSvc,
	}

	svc.registerAPIRoutes()
	svc.registerWebhookRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")

	payments := api.Group("/payments")
	payments.POST("/initiate", s.HandleInitiatePayment)
	payments.GET("/:id", s.HandlePaymentStatus)
	payments.GET("/:id/events", s.HandlePaymentEvents)
	payments.POST("/:id/verify", s.HandleVerifyPayment)
	payments.POST("/:id/refund", s.HandleRefundPayment)
	payments.GET("/:id/receipt", s.HandlePaymentReceipt)
	api.GET("/providers", s.HandleListProviders)

	candidates := api.Group("/candidates")
	candidates.POST("", s.HandleRegisterCandidate)
	candidates.GET("", s.HandleListCandidates)
	candidates.GET("/:id", s.HandleGetCandidate)

	fees := api.Group("/fees")
	fees.POST("", s.HandleCreateFeeSchedule)
	fees.GET("", s.HandleListFeeSchedules)
	fees.PATCH("/:id", s.HandleUpdateFeeSchedule)
	fees.GET("/quote", s.HandleFeeQuote)

	academics := api.Group("/academics")
	academics.POST("/faculties", s.HandleCreateFaculty)
	academics.GET("/faculties", s.HandleListFaculties)
	academics.POST("/departments", s.HandleCreateDepartment)
	academics.GET("/departments", s.HandleListDepartments)
	academics.POST("/programmes", s.HandleCreateProgramme)
	academics.GET("/programmes", s.HandleListProgrammes)

	api.GET("/dashboard/summary", s.HandleDashboardSummary)
	api.GET("/audit", s.HandleListAuditLogs)
}

func (s *Server) registerWebhookRoutes() {
	s.engine.POST("/webhooks/:provider", s.HandlePaymentWebhook)
}
