package http

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/eperpus/membership/internal/auth"
	"github.com/eperpus/membership/internal/cache"
	"github.com/eperpus/membership/internal/config"
	"github.com/eperpus/membership/internal/http/handlers"
	"github.com/eperpus/membership/internal/http/middlewares"
	"github.com/eperpus/membership/internal/observability"
	"github.com/eperpus/membership/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB is plenty for membership forms

func NewRouter(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("membership-api"))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(allowedOrigins()))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	promRegistry := prometheus.NewRegistry()
	prom := observability.NewProm(promRegistry)
	r.Use(prom.GinHandleMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))

	// health
	ping := func() error {
		if pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return pool.Ping(ctx)
	}

	h := handlers.NewHealthHandler(ping)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	// wire up repositories
	membersRepo := postgres.NewMembersRepo(pool, prom)
	loansRepo := postgres.NewLoansRepo(pool, prom)
	refreshRepo := postgres.NewRefreshTokensRepo(pool)

	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	authMW := middlewares.NewAuthMiddleware(jwtManager)

	// handlers
	authHandler := handlers.NewAuthHandler(membersRepo, membersRepo, jwtManager, refreshRepo, cfg)
	membersHandler := handlers.NewMembersHandler(membersRepo)
	loansHandler := handlers.NewLoansHandler(loansRepo)
	remindersHandler := handlers.NewRemindersHandler(loansRepo, cache.New(30*time.Second))

	// credential endpoints get a per-IP limiter
	authLimiter := middlewares.NewRateLimiter(10, time.Minute)

	authGroup := r.Group("/auth")
	authGroup.Use(authLimiter.RateLimiterMiddleware(middlewares.KeyByIP))
	{
		// refresh and logout carry no body, so only the credential
		// endpoints insist on JSON
		authGroup.POST("/signup", middlewares.RequireJSON(), authHandler.SignUp)
		authGroup.POST("/login", middlewares.RequireJSON(), authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authHandler.Logout)
	}

	me := r.Group("/members/me")
	me.Use(authMW.RequireAuth())
	me.Use(middlewares.RequireJSON())
	{
		me.GET("", membersHandler.GetProfile)
		me.PUT("", membersHandler.UpdateProfile)
		me.PUT("/password", membersHandler.ChangePassword)
		me.GET("/loans", loansHandler.History)
		me.GET("/reminders", remindersHandler.Get)
	}

	return r
}

func allowedOrigins() []string {
	raw := os.Getenv("CORS_ORIGINS")

	if raw == "" {
		return []string{"http://localhost:3000"}
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}

	return out
}
