// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, compression,
// CORS, security headers, identity, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
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

	_ "github.com/jari-app/jari-backend/docs" // swagger spec registration
	"github.com/jari-app/jari-backend/internal/config"
	"github.com/jari-app/jari-backend/internal/domain"
	"github.com/jari-app/jari-backend/internal/http/handlers"
	"github.com/jari-app/jari-backend/internal/http/middleware"
	"github.com/jari-app/jari-backend/internal/realtime"
	"github.com/jari-app/jari-backend/internal/repo"
	"github.com/jari-app/jari-backend/internal/services"
)

// entryRepoShim adapts the repository free functions to the services.EntryRepo
// interface expected by the EntryService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type entryRepoShim struct{}

// CreateEntry proxies repo.CreateEntry.
func (entryRepoShim) CreateEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) (*domain.GratitudeEntry, error) {
	return repo.CreateEntry(ctx, db, e)
}

// GetEntry proxies repo.GetEntry.
func (entryRepoShim) GetEntry(ctx context.Context, db *gorm.DB, id, userID string) (*domain.GratitudeEntry, error) {
	return repo.GetEntry(ctx, db, id, userID)
}

// SaveEntry proxies repo.SaveEntry.
func (entryRepoShim) SaveEntry(ctx context.Context, db *gorm.DB, e *domain.GratitudeEntry) error {
	return repo.SaveEntry(ctx, db, e)
}

// DeleteEntry proxies repo.DeleteEntry.
func (entryRepoShim) DeleteEntry(ctx context.Context, db *gorm.DB, id, userID string) error {
	return repo.DeleteEntry(ctx, db, id, userID)
}

// CountEntries proxies repo.CountEntries.
func (entryRepoShim) CountEntries(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter) (int64, error) {
	return repo.CountEntries(ctx, db, userID, f)
}

// ListEntriesPage proxies repo.ListEntriesPage.
func (entryRepoShim) ListEntriesPage(ctx context.Context, db *gorm.DB, userID string, f repo.EntryFilter, offset, limit int) ([]domain.GratitudeEntry, error) {
	return repo.ListEntriesPage(ctx, db, userID, f, offset, limit)
}

// GetOrCreateProfile proxies repo.GetOrCreateProfile.
func (entryRepoShim) GetOrCreateProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	return repo.GetOrCreateProfile(ctx, db, userID)
}

// UpdateStreak proxies repo.UpdateStreak.
func (entryRepoShim) UpdateStreak(ctx context.Context, db *gorm.DB, userID string, current, longest int, lastDay time.Time) error {
	return repo.UpdateStreak(ctx, db, userID, current, longest, lastDay)
}

// UpsertMoodAnalytics proxies repo.UpsertMoodAnalytics.
func (entryRepoShim) UpsertMoodAnalytics(ctx context.Context, db *gorm.DB, userID string, day time.Time, intensity int) (*domain.MoodAnalytics, error) {
	return repo.UpsertMoodAnalytics(ctx, db, userID, day, intensity)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability (tracing, metrics), compression, CORS and security
// headers, health and metrics endpoints, the optional Swagger UI, and the
// versioned journal API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Logger: structured logs with credential masking
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Gzip (stream and metrics routes excluded)
//  8. CORS and Security headers
//
// Identity, idempotency validation, and the rate limiter apply to the API
// group only, in that order: replays are detected per authenticated user,
// and the limiter can key buckets by user and skip detected replays.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, completer services.Completer, hub *realtime.Hub, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging (Authorization / X-User-ID masked)
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Response compression; hijacked and scrape routes stay uncompressed
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{
		cfg.APIBasePath + "/chat/stream",
		"/metrics",
	})))

	// 8) CORS posture (safe defaults: allow all if none configured)
	corsHeaders := []string{
		"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID",
		middleware.HeaderIdempotencyKey,
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps
		// simple health checks and tests).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist.
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     corsHeaders,
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API documentation (opt-in)
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/completer/hub
	entrySvc := services.NewEntryService(db, entryRepoShim{})
	profileSvc := services.NewProfileService(db)
	chatSvc := services.NewChatService(db, completer, hub)
	chatSvc.ContextWindow = cfg.ChatContextSize

	h := handlers.New(entrySvc, profileSvc, chatSvc, hub, db, cfg.IdempotencyTTL)

	// Public API: identity required, then idempotency validation so replays
	// are detected per user, then the rate limiter so it sees both the user
	// id and the replay flag.
	api := groupWithPrefix(r, cfg.APIBasePath)
	api.Use(middleware.RequireUser())
	api.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
			Scope:  "entries",
		},
		func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	api.Use(rl.Handler())
	{
		// Entries
		api.POST("/entries", h.CreateEntry)
		api.GET("/entries", h.ListEntries)
		api.PUT("/entries/:id", h.UpdateEntry)
		api.DELETE("/entries/:id", h.DeleteEntry)
		api.POST("/entries/:id/favorite", h.ToggleFavorite)

		// Profile
		api.GET("/profile", h.GetProfile)
		api.PUT("/profile", h.UpdateProfile)
		api.GET("/profile/stats", h.GetStats)

		// Analytics
		api.GET("/analytics/mood", h.MoodTrend)

		// Preferences
		api.GET("/preferences", h.GetPreferences)
		api.PUT("/preferences", h.PutPreferences)

		// Companion chat
		api.POST("/chat/messages", h.SendMessage)
		api.GET("/chat/messages", h.ChatHistory)
		api.GET("/chat/stream", h.ChatStream)
	}
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
