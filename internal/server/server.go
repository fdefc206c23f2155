package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/lubetrack/lubetrack/internal/config"
	memberdomain "github.com/lubetrack/lubetrack/internal/member/domain"
	"github.com/lubetrack/lubetrack/internal/metrics"
	paymentdomain "github.com/lubetrack/lubetrack/internal/payment/domain"
	plandomain "github.com/lubetrack/lubetrack/internal/plan/domain"
	servicelogdomain "github.com/lubetrack/lubetrack/internal/servicelog/domain"
	subscriptiondomain "github.com/lubetrack/lubetrack/internal/subscription/domain"
	tenantdomain "github.com/lubetrack/lubetrack/internal/tenant/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(run),
)

func NewEngine(cfg config.Config, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(MetricsMiddleware(m))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	return r
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
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
	genID  *snowflake.Node

	tenantSvc       tenantdomain.Service
	planSvc         plandomain.Service
	subscriptionSvc subscriptiondomain.Service
	paymentSvc      paymentdomain.Service
	servicelogSvc   servicelogdomain.Service
	memberSvc       memberdomain.Service
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	GenID *snowflake.Node

	TenantSvc       tenantdomain.Service
	PlanSvc         plandomain.Service
	SubscriptionSvc subscriptiondomain.Service
	PaymentSvc      paymentdomain.Service
	ServicelogSvc   servicelogdomain.Service
	MemberSvc       memberdomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		genID:           p.GenID,
		tenantSvc:       p.TenantSvc,
		planSvc:         p.PlanSvc,
		subscriptionSvc: p.SubscriptionSvc,
		paymentSvc:      p.PaymentSvc,
		servicelogSvc:   p.ServicelogSvc,
		memberSvc:       p.MemberSvc,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Plans --------
	api.GET("/plans", s.ListPlans)
	api.GET("/plans/:id", s.GetPlanByID)

	// -------- Tenants --------
	api.POST("/tenants", s.CreateTenant)
	api.POST("/tenants/import", s.ImportTenant)
	api.GET("/tenants", s.ListTenants)
	api.GET("/tenants/:id", s.GetTenantByID)
	api.PATCH("/tenants/:id", s.UpdateTenant)
	api.POST("/tenants/:id/deactivate", s.DeactivateTenant)
	api.GET("/tenants/:id/payments", s.ListTenantPayments)

	// -------- Subscription lifecycle --------
	api.GET("/tenants/:id/entitlement", s.GetEntitlement)
	api.GET("/tenants/:id/trial", s.GetTrialState)
	api.POST("/tenants/:id/plan-change", s.RequestPlanChange)
	api.POST("/tenants/:id/credits", s.PurchaseCredits)
	api.GET("/tenants/:id/credits/eligibility", s.GetCreditEligibility)
	api.POST("/tenants/:id/renew", s.RenewPlan)
	api.POST("/tenants/:id/cancel", s.CancelSubscription)

	// -------- Checkout / webhooks --------
	api.POST("/tenants/:id/checkout", s.CreateCheckoutSession)
	api.POST("/payments/webhooks/:provider", s.HandlePaymentWebhook)

	// -------- Service records --------
	api.POST("/tenants/:id/services", s.RegisterService)
	api.GET("/tenants/:id/services", s.ListServices)
	api.GET("/tenants/:id/services/:recordId", s.GetServiceByID)
	api.PATCH("/tenants/:id/services/:recordId", s.UpdateService)
	api.DELETE("/tenants/:id/services/:recordId", s.DeleteService)
	api.GET("/tenants/:id/dashboard", s.GetDashboard)

	// -------- Members --------
	api.POST("/tenants/:id/members", s.CreateMember)
	api.GET("/tenants/:id/members", s.ListMembers)
	api.POST("/tenants/:id/members/:memberId/deactivate", s.DeactivateMember)
	api.POST("/tenants/:id/members/:memberId/activate", s.ActivateMember)
}
