package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"supplymarket_api/internal/app/web/handlers"
	"supplymarket_api/internal/auth"
	"supplymarket_api/internal/core/models"
	"supplymarket_api/metrics"
	"supplymarket_api/pkg/middleware"
)

type Handlers struct {
	Users     *handlers.UserHandler
	Offers    *handlers.OfferHandler
	Orders    *handlers.OrderHandler
	Dashboard *handlers.DashboardHandler
	TINs      *handlers.TINHandler
	Directory *handlers.DirectoryHandler
}

type RouterConfig struct {
	JWTSecret string
	RateLimit float64
	RateBurst int
	Log       *log.Entry
}

func SetupRoutes(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.PrometheusMiddleware(),
		middleware.RequestLogger(cfg.Log),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := router.Group("/api", middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))

	api.POST("/users/register", h.Users.Register)
	api.POST("/users/login", h.Users.Login)
	api.GET("/market", h.Dashboard.Market)
	api.GET("/suppliers", auth.OptionalAuthMiddleware(cfg.JWTSecret), h.Directory.List)

	authed := api.Group("", auth.AuthMiddleware(cfg.JWTSecret))
	company := auth.RoleMiddleware(models.RoleCompany)
	customer := auth.RoleMiddleware(models.RoleCustomer)

	authed.GET("/offers/search", h.Offers.Search)
	authed.POST("/offers", company, h.Offers.Add)
	authed.PATCH("/offers/:id", company, h.Offers.Update)
	authed.DELETE("/offers/:id", company, h.Offers.Delete)
	authed.POST("/offers/import", company, h.Offers.Import)
	authed.GET("/offers/:id/contact", h.Offers.Contact)

	authed.POST("/orders", customer, h.Orders.Place)
	authed.GET("/orders", h.Orders.List)
	authed.GET("/orders/:id", h.Orders.Get)
	authed.POST("/orders/:id/status", company, h.Orders.UpdateStatus)

	authed.GET("/dashboard", h.Dashboard.Dashboard)

	authed.POST("/tins", company, h.TINs.Register)
	authed.GET("/tins/me", company, h.TINs.Mine)

	return router
}
