package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"addonshub-go/internal/config"
	addonsapi "addonshub-go/internal/handlers/addons"
	mw "addonshub-go/internal/middleware"
	"addonshub-go/internal/modules"
	"addonshub-go/internal/session"
	"addonshub-go/internal/version"
)

// Dependencies carries the runtime services the HTTP engine is built from.
type Dependencies struct {
	Handler *addonsapi.Handler
	Catalog modules.Catalog
	Store   session.Store
}

// BuildEngine assembles the gin engine with the standard middleware chain
// and the admin API routes.
func BuildEngine(cfg *config.Manager, deps Dependencies) *gin.Engine {
	current := cfg.Get()
	if current.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(mw.RequestID())
	engine.Use(mw.RequestLogger())
	engine.Use(mw.Recovery())
	engine.Use(mw.CORS())
	engine.Use(mw.Metrics())
	if current.RateLimitRPS > 0 {
		engine.Use(mw.RateLimiter(current.RateLimitRPS, current.RateLimitBurst))
	}

	root := engine.Group(current.BasePath)

	root.GET("/healthz", healthHandler(deps))
	root.GET("/metrics", mw.MetricsHandler)
	root.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"version": version.Version})
	})

	api := root.Group("/api/addons")
	api.Use(ManagementAuth(cfg))
	{
		api.POST("/login", deps.Handler.Login)
		api.POST("/logout", deps.Handler.Logout)
		api.POST("/module/upgrade", deps.Handler.Upgrade)
	}
	return engine
}

func healthHandler(deps Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		checks := gin.H{}
		if deps.Catalog != nil {
			if err := deps.Catalog.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks["catalog"] = err.Error()
			} else {
				checks["catalog"] = "ok"
			}
		}
		if deps.Store != nil {
			if err := deps.Store.Health(ctx); err != nil {
				status = http.StatusServiceUnavailable
				checks["session_store"] = err.Error()
			} else {
				checks["session_store"] = "ok"
			}
		}
		c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
	}
}
