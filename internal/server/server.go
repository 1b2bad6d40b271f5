package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oldski/sportsfestDashboard-sub002/internal/audit"
	auditdomain "github.com/oldski/sportsfestDashboard-sub002/internal/audit/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/config"
	"github.com/oldski/sportsfestDashboard-sub002/internal/events"
	"github.com/oldski/sportsfestDashboard-sub002/internal/eventyear"
	"github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment"
	fulfillmentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/fulfillment/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/lock"
	"github.com/oldski/sportsfestDashboard-sub002/internal/observability"
	obsmiddleware "github.com/oldski/sportsfestDashboard-sub002/internal/observability/logger"
	obstracing "github.com/oldski/sportsfestDashboard-sub002/internal/observability/tracing"
	"github.com/oldski/sportsfestDashboard-sub002/internal/order"
	orderdomain "github.com/oldski/sportsfestDashboard-sub002/internal/order/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/payment"
	paymentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/payment/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/product"
	"github.com/oldski/sportsfestDashboard-sub002/internal/ratelimit"
	"github.com/oldski/sportsfestDashboard-sub002/internal/revalidation"
	"github.com/oldski/sportsfestDashboard-sub002/internal/roster"
	rosterdomain "github.com/oldski/sportsfestDashboard-sub002/internal/roster/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/team"
	teamdomain "github.com/oldski/sportsfestDashboard-sub002/internal/team/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/tent"
	tentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/tent/domain"
	"github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning"
	transferwarningdomain "github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	authorization.Module,
	audit.Module,
	events.Module,
	revalidation.Module,
	lock.Module,
	ratelimit.Module,
	eventyear.Module,
	product.Module,
	order.Module,
	tent.Module,
	team.Module,
	fulfillment.Module,
	payment.Module,
	transferwarning.Module,
	roster.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
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

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", srv.Addr))
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
	engine         *gin.Engine
	orderSvc       orderdomain.Service
	paymentSvc     paymentdomain.Service
	fulfillmentSvc fulfillmentdomain.Service
	tentSvc        tentdomain.Service
	teamSvc        teamdomain.Service
	rosterSvc      rosterdomain.Service
	warningSvc     transferwarningdomain.Service
	auditSvc       auditdomain.Service
	authz          authorization.Service
	limiter        *ratelimit.NotificationLimiter
}

type ServerParams struct {
	fx.In

	Gin            *gin.Engine
	OrderSvc       orderdomain.Service
	PaymentSvc     paymentdomain.Service
	FulfillmentSvc fulfillmentdomain.Service
	TentSvc        tentdomain.Service
	TeamSvc        teamdomain.Service
	RosterSvc      rosterdomain.Service
	WarningSvc     transferwarningdomain.Service
	AuditSvc       auditdomain.Service
	Authz          authorization.Service
	Limiter        *ratelimit.NotificationLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:         p.Gin,
		orderSvc:       p.OrderSvc,
		paymentSvc:     p.PaymentSvc,
		fulfillmentSvc: p.FulfillmentSvc,
		tentSvc:        p.TentSvc,
		teamSvc:        p.TeamSvc,
		rosterSvc:      p.RosterSvc,
		warningSvc:     p.WarningSvc,
		auditSvc:       p.AuditSvc,
		authz:          p.Authz,
		limiter:        p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api", ScopeRequired())

	// -------- Orders --------
	api.GET("/orders", s.ListOrders)
	api.POST("/orders", s.CreateOrder)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/orders/:id/cancel", s.CancelOrder)
	api.POST("/orders/:id/payments", s.RecordPayment)
	api.POST("/orders/:id/reconcile", s.ReconcileOrder)
	api.POST("/orders/:id/notifications/:provider", NotificationRateLimit(s.limiter), s.HandlePaymentNotification)
	api.POST("/orders/:id/fulfill", s.FulfillOrder)

	// -------- Tents & Teams --------
	api.GET("/tents/:event_year_id", s.GetTentTracking)
	api.GET("/teams", s.ListTeams)
	api.GET("/teams/:id/roster", s.ListTeamRoster)
	api.POST("/teams/:id/players", s.AddPlayerToTeam)
	api.DELETE("/teams/:id/players/:player_id", s.RemovePlayerFromTeam)
	api.PATCH("/teams/:id/players/:player_id/captain", s.ToggleCaptain)

	// -------- Rosters --------
	api.POST("/players/:id/transfer", s.TransferPlayer)
	api.POST("/rosters/auto-generate", s.AutoGenerateRosters)

	// -------- Transfer Warnings --------
	api.GET("/transfer-warnings", s.ListTransferWarnings)
	api.GET("/players/:id/transfer-warnings", s.ListPlayerTransferWarnings)
	api.POST("/players/:id/transfer-warnings/resolve", s.ResolvePlayerTransferWarnings)

	// -------- Audit --------
	api.GET("/audit-logs", s.ListAuditLogs)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

// respond writes the standard envelope for operation results. A refused
// operation is still a 200: the message is meant for display.
func respond(c *gin.Context, success bool, message string, data any) {
	c.JSON(http.StatusOK, gin.H{"success": success, "message": message, "data": data})
}
