package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"loco-dispatcher/config"
	"loco-dispatcher/internal/mw"
	"loco-dispatcher/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg config.ServerConfig, s store.Store, opts Options) *gin.Engine {
	r := gin.Default()
	r.Use(mw.Metrics())
	if opts.MaxUploadBytes > 0 {
		r.MaxMultipartMemory = opts.MaxUploadBytes
	}

	handler := NewHandler(s, opts)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst, cfg.RequestIPHeader)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(ttl, 2*ttl)
	caching := mw.Cache(cacheStore, ttl)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(rateLimiter, mw.Invalidate(cacheStore))
	{
		api.GET("/health", handler.Health)

		api.GET("/stations", caching, handler.ListStations)
		api.GET("/trains", caching, handler.ListTrains)
		api.GET("/shoulders", caching, handler.ListShoulders)
		api.GET("/locomotives", caching, handler.ListLocomotives)
		api.GET("/locomotives/:id", caching, handler.GetLocomotive)
		api.POST("/locomotives/:id/service", handler.PerformService)

		api.GET("/assignments", caching, handler.ListAssignments)
		api.POST("/assignments", handler.CreateAssignment)
		api.POST("/import/assignments", handler.ImportAssignments)

		api.GET("/graph", caching, handler.Graph)
		api.GET("/conflicts", caching, handler.ListConflicts)
		api.GET("/efficiency", caching, handler.Efficiency)
		api.GET("/efficiency/export", handler.ExportEfficiency)
		api.GET("/recommend/:shoulder_id", caching, handler.Recommend)
		api.GET("/optimization", caching, handler.Optimization)
		api.GET("/dashboard/kpis", caching, handler.KPIs)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
