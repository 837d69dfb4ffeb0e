// Package router builds the gin engine and mounts every module.
package router

import (
	"net/http"
	"time"

	apphttp "medcrm_backend/internal/http"
	"medcrm_backend/platform/httpkit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// New creates the engine with the shared middleware chain and module routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestID())
	engine.Use(httpkit.RequestLogger(app.Logger, app.Metrics))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(cors.New(corsConfig(app.Config)))

	engine.GET("/api/health", func(c *gin.Context) {
		if app.Health != nil {
			if err := app.Health.Ping(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if app.Gatherer != nil {
		engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Gatherer, promhttp.HandlerOpts{})))
	}

	limiter := httpkit.NewIPRateLimiter(app.Config.GetWebhookRatePerMinute(), app.Logger)
	v1 := engine.Group("/api/v1")
	webhook := v1.Group("/webhook")
	webhook.Use(limiter.RateLimit())

	rc := &apphttp.RouterContext{
		Engine:  engine,
		V1:      v1,
		Admin:   v1.Group("/admin"),
		Webhook: webhook,
	}

	for _, m := range app.Modules {
		m.RegisterRoutes(rc)
		app.Logger.Debug("module routes registered", "module", m.Name())
	}

	return engine
}

func corsConfig(cfg apphttp.RouterConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID", "X-Webhook-API-Key"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: cfg.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}
	if cfg.GetCORSAllowAll() {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		return c
	}
	c.AllowOrigins = cfg.GetCORSOrigins()
	if len(c.AllowOrigins) == 0 {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	}
	return c
}
