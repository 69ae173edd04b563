package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/leadscout/api/handler"
	"github.com/use-agent/leadscout/api/middleware"
	"github.com/use-agent/leadscout/cache"
	"github.com/use-agent/leadscout/config"
	"github.com/use-agent/leadscout/scraper"
	"github.com/use-agent/leadscout/store"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if enabled) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(p *scraper.Pipeline, st store.Store, cc *cache.Cache, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health is open, no auth required.
	v1.GET("/health", handler.Health(startTime))

	// Protected group: auth + rate limit.
	protected := v1.Group("")
	if cfg.Auth.Enabled {
		protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	}
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape-leads", handler.ScrapeLeads(p, st, cc, cfg.Webhook))
	protected.GET("/leads", handler.Leads(st))

	return r
}
