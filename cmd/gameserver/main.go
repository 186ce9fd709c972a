// Command gameserver runs the real-time drawing-and-guessing game server:
// an HTTP control plane (health/info) plus a websocket endpoint that admits
// players into rooms and drives each room's turn state machine.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/config"
	"github.com/brushline/doodleserver/internal/connmgr"
	"github.com/brushline/doodleserver/internal/identity"
	"github.com/brushline/doodleserver/internal/lobbychat"
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/middleware"
	"github.com/brushline/doodleserver/internal/ratelimit"
	"github.com/brushline/doodleserver/internal/store"
	"github.com/brushline/doodleserver/internal/tracing"
	"github.com/brushline/doodleserver/internal/words"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	otelgin "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load() // local-dev convenience; missing .env is not an error

	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	if err := logging.Initialize(cfg.Environment != "production"); err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if collector := os.Getenv("OTEL_COLLECTOR_ADDR"); collector != "" {
		tp, err := tracing.InitTracer(ctx, "doodleserver", collector)
		if err != nil {
			logging.Warn(ctx, "tracing disabled: failed to initialize", zap.Error(err))
		} else {
			defer tp.Shutdown(context.Background())
		}
	}

	validator := buildValidator(ctx, cfg)
	gateway := identity.NewGateway(validator)

	var redisClient *redis.Client
	if cfg.RedisEnabled {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	}

	limiter, err := ratelimit.New(ratelimit.Formats{
		Chat:       cfg.RateLimitChat,
		DrawOp:     cfg.RateLimitDrawOps,
		Connection: cfg.RateLimitConnection,
	}, redisClient)
	if err != nil {
		slog.Error("failed to build rate limiter", "error", err)
		os.Exit(1)
	}

	sessionStore, err := store.New(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil && cfg.RedisEnabled {
		// SessionStore writes are best-effort (spec.md §4.9); a store we
		// cannot reach at startup still lets the game server run.
		logging.Warn(ctx, "session store unavailable at startup, writes will no-op", zap.Error(err))
		sessionStore, _ = store.New("", "")
	}

	wordSource := words.New(time.Now().UnixNano())
	filter := lobbychat.NewFilter(nil) // the profanity list is injected data per spec.md §1; none supplied by default

	clk := clock.NewReal()
	mgr := connmgr.New(clk, gateway, limiter, wordSource, filter, sessionStore, connmgr.Options{
		HeartbeatInterval:    time.Duration(cfg.HeartbeatIntervalMs) * time.Millisecond,
		ConnectionTimeout:    time.Duration(cfg.ConnectionTimeoutMs) * time.Millisecond,
		DisconnectGrace:      time.Duration(cfg.DisconnectGraceMs) * time.Millisecond,
		WordSelectionTimeout: time.Duration(cfg.WordSelectionTimeout) * time.Millisecond,
		IdleRoomMax:          time.Duration(cfg.IdleRoomMaxMs) * time.Millisecond,
		AllowedOrigins:       cfg.AllowedOrigins,
	})
	defer mgr.Shutdown()

	router := buildRouter(cfg, mgr)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logging.Info(ctx, "game server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error(ctx, "server exited with error", zap.Error(err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logging.Info(context.Background(), "shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func buildValidator(ctx context.Context, cfg *config.Config) identity.Validator {
	if cfg.IdentityGatewayURL == "" {
		logging.Warn(ctx, "IDENTITY_GATEWAY_URL not set, using StaticValidator (dev/test only)")
		return identity.StaticValidator{}
	}
	validator, err := identity.NewJWKSValidator(ctx, cfg.IdentityGatewayURL, "doodleserver")
	if err != nil {
		logging.Error(ctx, "failed to build JWKS validator, falling back to static", zap.Error(err))
		return identity.StaticValidator{}
	}
	return validator
}

func buildRouter(cfg *config.Config, mgr *connmgr.Manager) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(otelgin.Middleware("doodleserver"))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderXCorrelationID},
		AllowCredentials: true,
	}))

	startedAt := time.Now()
	router.GET("/health", mgr.Health(startedAt))
	router.GET("/info", mgr.Info())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", mgr.ServeWS)

	return router
}
