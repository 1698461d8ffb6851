package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/audit/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/config"
	customerdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/customer/domain"
	leaddomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/lead/domain"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/logger"
	"github.com/narmeshnigam/karyalaywebsite-sub001/internal/observability/metrics"
	paymentdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/payment/domain"
	plandomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/plan/domain"
	portdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/port/domain"
	subscriptiondomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/subscription/domain"
	ticketdomain "github.com/narmeshnigam/karyalaywebsite-sub001/internal/ticket/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Server struct {
	cfg config.Config
	log *zap.Logger
	db  *gorm.DB

	customerSvc     customerdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	portSvc         portdomain.Service
	ticketSvc       ticketdomain.Service
	leadSvc         leaddomain.Service
	paymentSvc      paymentdomain.Service
	auditSvc        auditdomain.Service

	engine         *gin.Engine
	webhookLimiter *rateLimiter
}

type Params struct {
	fx.In

	Config config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Engine *gin.Engine

	CustomerSvc     customerdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PortSvc         portdomain.Service
	TicketSvc       ticketdomain.Service
	LeadSvc         leaddomain.Service
	PaymentSvc      paymentdomain.Service
	AuditSvc        auditdomain.Service
}

func NewServer(p Params) *Server {
	return &Server{
		cfg:             p.Config,
		log:             p.Log.Named("server"),
		db:              p.DB,
		customerSvc:     p.CustomerSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		portSvc:         p.PortSvc,
		ticketSvc:       p.TicketSvc,
		leadSvc:         p.LeadSvc,
		paymentSvc:      p.PaymentSvc,
		auditSvc:        p.AuditSvc,
		engine:          p.Engine,
		webhookLimiter:  newRateLimiter(p.Config.WebhookRateLimit, p.Config.WebhookRateWindow),
	}
}

func NewEngine(cfg config.Config, httpMetrics *metrics.HTTPMetrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(metrics.GinMiddleware(httpMetrics))
	return engine
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/healthz", s.Health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	{
		api.POST("/customers", s.CreateCustomer)
		api.GET("/customers", s.ListCustomers)
		api.GET("/customers/:id", s.GetCustomer)
		api.GET("/customers/:id/subscriptions", s.ListCustomerSubscriptions)
		api.GET("/customers/:id/tickets", s.ListCustomerTickets)

		api.POST("/plans", s.CreatePlan)
		api.PATCH("/plans/:id", s.UpdatePlan)
		api.GET("/plans", s.ListPlans)
		api.GET("/plans/:id", s.GetPlan)
		api.GET("/plans/code/:code", s.GetPlanByCode)

		api.POST("/subscriptions", s.CreateSubscription)
		api.GET("/subscriptions/:id", s.GetSubscription)
		api.POST("/subscriptions/:id/activate", s.ActivateSubscription)
		api.POST("/subscriptions/:id/cancel", s.CancelSubscription)
		api.POST("/subscriptions/:id/allocate-port", s.AllocatePort)

		api.POST("/tickets", s.OpenTicket)
		api.GET("/tickets/:id", s.GetTicket)
		api.PATCH("/tickets/:id/status", s.UpdateTicketStatus)

		api.POST("/leads", s.CaptureLead)

		api.POST("/webhooks/payment/:provider", s.PaymentWebhook)
	}

	admin := s.engine.Group("/api/admin")
	{
		admin.GET("/ports", s.ListPorts)
		admin.POST("/ports", s.CreatePort)
		admin.GET("/ports/:id", s.GetPort)
		admin.GET("/ports/:id/history", s.PortHistory)
		admin.PATCH("/ports/:id/status", s.SetPortStatus)
		admin.POST("/ports/:id/reassign", s.ReassignPort)
		admin.POST("/ports/:id/release", s.ReleasePort)

		admin.GET("/leads", s.ListLeads)
		admin.GET("/audit", s.ListAuditLogs)
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: engine,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

var Module = fx.Module("server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(RunHTTP),
)
