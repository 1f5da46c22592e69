// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, webhook delivery replay handling, and rate limiting.
//
// Route surface:
//   - /webhooks/*  feed ingestion endpoints, permissive CORS per the feed
//     vendor's browser-side delivery tester
//   - /api/v1/*    public reads for the marketing site, plus X-API-Key
//     gated blog mutations under /admin
//   - /health, /metrics, optional /swagger
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/apexcre/estate-backend/docs"
	"github.com/apexcre/estate-backend/internal/config"
	"github.com/apexcre/estate-backend/internal/http/handlers"
	"github.com/apexcre/estate-backend/internal/http/middleware"
	"github.com/apexcre/estate-backend/internal/repo"
	"github.com/apexcre/estate-backend/internal/services"
	"github.com/apexcre/estate-backend/internal/utils"
)

// webhookAllowHeaders is the exact header allowlist the feed vendor's
// delivery client sends in its preflight.
var webhookAllowHeaders = []string{
	"authorization", "x-client-info", "apikey", "content-type",
	middleware.HeaderIdempotencyKey,
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured request logs
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Security headers
//  8. Rate limiter (per IP, bypassed on delivery replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(1 << 20))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health. feed_synced_24h surfaces feed staleness so an external
	// monitor can alert when the vendor stops syncing.
	r.GET("/health", func(c *gin.Context) {
		synced, err := repo.LastSyncOperationSince(c.Request.Context(), db, time.Now().Add(-24*time.Hour))
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "feed_synced_24h": synced})
	})

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	dedupSvc := &services.DedupService{DB: db}
	ingestSvc := &services.IngestService{DB: db, Dedup: dedupSvc}
	detailsSvc := &services.DetailsService{DB: db}
	syncSvc := &services.SyncService{DB: db, Source: cfg.SyncSource}
	catalogSvc := &services.CatalogService{DB: db}
	postSvc := &services.PostService{DB: db}

	record := func(ctx context.Context, endpoint, key string, status int) error {
		_, err := repo.CreateDelivery(ctx, db, endpoint, key, status, cfg.DeliveryTTL)
		return err
	}
	h := handlers.New(ingestSvc, detailsSvc, syncSvc, dedupSvc, catalogSvc, postSvc, record)

	// Webhook surface. The feed posts cross-origin from anywhere, so these
	// groups always answer with a wildcard origin and the vendor's header
	// allowlist; preflight gets 204 via gin-contrib/cors. Only the cleanup
	// endpoint is also callable over GET (external schedulers).
	deliveryGuard := middleware.DeliveryValidator(
		middleware.DeliveryOptions{MaxLen: 200},
		func(ctx context.Context, endpoint, key string, now time.Time) (bool, error) {
			rec, err := repo.GetDelivery(ctx, db, endpoint, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	)
	wh := r.Group("/webhooks")

	feed := wh.Group("")
	feed.Use(webhookCORS("POST", "OPTIONS"), deliveryGuard, rl.Handler())
	{
		feed.POST("/receive-webhook", h.ReceiveWebhook)
		feed.POST("/receive-property-details", h.ReceivePropertyDetails)
		feed.POST("/sync-properties", h.SyncProperties)
	}

	cleanup := wh.Group("")
	cleanup.Use(webhookCORS("GET", "POST", "OPTIONS"), deliveryGuard, rl.Handler())
	{
		cleanup.POST("/cleanup-duplicates", h.CleanupDuplicates)
		cleanup.GET("/cleanup-duplicates", h.CleanupDuplicates)
	}

	// Public API for the marketing site.
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(corsFor(cfg.CORS.AllowedOrigins))
	api.Use(rl.Handler())
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	{
		api.GET("/properties", h.ListProperties)
		api.GET("/properties/:id", h.GetProperty)

		api.GET("/posts", h.ListPosts)
		api.GET("/posts/:slug", h.GetPost)

		admin := api.Group("/admin")
		admin.Use(middleware.APIKey(cfg.AdminAPIKey))
		{
			admin.POST("/posts", h.CreatePost)
			admin.PUT("/posts/:id", h.UpdatePost)
			admin.DELETE("/posts/:id", h.DeletePost)

			admin.GET("/sync-operations", func(c *gin.Context) {
				ops, err := repo.ListSyncOperations(c.Request.Context(), db, utils.AtoiDefault(c.Query("limit"), 50))
				if err != nil {
					handlers.Fail(c, http.StatusInternalServerError, handlers.ErrCodeListFailed, "could not list sync operations")
					return
				}
				c.JSON(http.StatusOK, gin.H{"items": ops})
			})
		}
	}
}

// webhookCORS builds the wildcard-origin policy the feed vendor's delivery
// client expects, restricted to the given methods.
func webhookCORS(methods ...string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     methods,
		AllowHeaders:     webhookAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

// corsFor builds the public API CORS policy: wildcard when no allowlist is
// configured, explicit origins otherwise.
func corsFor(origins []string) gin.HandlerFunc {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-Key"},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return cors.New(c)
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
