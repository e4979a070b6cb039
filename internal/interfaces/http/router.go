// Package http wires the gin engine: middleware chain, route registration and
// handler construction.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/vetiver-net/vetiver/internal/infrastructure/auth"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/handlers"
	"github.com/vetiver-net/vetiver/internal/interfaces/http/middleware"
	sharedConfig "github.com/vetiver-net/vetiver/internal/shared/config"
	"github.com/vetiver-net/vetiver/internal/shared/logger"
)

// Handlers groups the constructed handlers the router mounts.
type Handlers struct {
	Instance *handlers.InstanceHandler
	Node     *handlers.NodeHandler
	Panel    *handlers.PanelHandler
	Payment  *handlers.PaymentHandler
	Ledger   *handlers.LedgerHandler
}

// Router owns the gin engine and the registered routes.
type Router struct {
	engine *gin.Engine
}

func NewRouter(
	cfg *sharedConfig.ServerConfig,
	jwtService *auth.JWTService,
	h Handlers,
	log logger.Interface,
) *Router {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery(log))
	engine.Use(middleware.RequestLogger(log))
	engine.Use(middleware.CORS(cfg.AllowedOrigins))

	authMW := middleware.NewAuthMiddleware(jwtService, log)

	api := engine.Group("/api")
	{
		// Anonymous gateway callback. The tracking id in the query string is
		// the only credential; the use case absorbs replays.
		api.POST("/payment/ipn", h.Payment.IPN)

		// Service-to-service usage ingestion.
		api.POST("/instance/report",
			middleware.ServiceToken(cfg.ServiceAPIKey), h.Instance.Report)

		authed := api.Group("", authMW.RequireAuth())
		{
			authed.POST("/node/initiate-node", h.Node.InitiateNode)
			authed.GET("/node", h.Node.List)

			authed.GET("/instance", h.Instance.List)
			authed.GET("/instance/:id", h.Instance.Get)
			authed.POST("/instance/:id/pause", h.Instance.Pause)
			authed.POST("/instance/:id/unpause", h.Instance.Unpause)
			authed.DELETE("/instance/delete/:id", h.Instance.Delete)

			authed.POST("/panel", h.Panel.Register)
			authed.DELETE("/panel/:id", h.Panel.Delete)

			authed.POST("/payment", h.Payment.Create)
			authed.POST("/payment/:id/accept", h.Payment.Accept)
			authed.GET("/payment", h.Payment.List)
			authed.GET("/payment/:id", h.Payment.Get)

			authed.GET("/ledger/transactions", h.Ledger.ListTransactions)

			admin := authed.Group("", authMW.RequireAdmin())
			{
				admin.POST("/payment/:id/approve", h.Payment.Approve)
				admin.POST("/payment/:id/reject", h.Payment.Reject)
				admin.POST("/node", h.Node.Create)
				admin.POST("/ledger/adjust", h.Ledger.AdjustBalance)
			}
		}
	}

	return &Router{engine: engine}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
