// Package config validates and loads server configuration from the
// environment, following the same fail-fast-with-aggregated-errors pattern
// across every required variable.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"log/slog"
	"os"
)

// Config holds validated environment configuration for the game server.
type Config struct {
	// Listening port, defaults to 3001.
	Port string

	// Identity provider (C1). Optional per spec.md §6 ("all optional
	// except the first two" refers to IdentityGatewayURL/ServiceKey being
	// the only variables a production deployment cannot do without; a
	// StaticValidator is used when they are empty, e.g. local dev/tests).
	IdentityGatewayURL string
	IdentityServiceKey string

	HeartbeatIntervalMs  int
	ConnectionTimeoutMs  int
	AllowedOrigins       []string
	DisconnectGraceMs    int
	IdleRoomMaxMs        int
	WordSelectionTimeout int

	// Redis-backed SessionStore / rate limiter.
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string

	LogLevel    string
	Environment string

	// Rate limits, expressed in ulule/limiter's "<count>-<period>" format.
	RateLimitChat       string
	RateLimitDrawOps    string
	RateLimitConnection string
}

// Load validates all environment variables and returns a Config.
// Returns an error describing every validation failure at once.
func Load() (*Config, error) {
	cfg := &Config{}
	var errs []string

	cfg.Port = getEnvOrDefault("PORT", "3001")
	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("PORT must be a valid port number between 1 and 65535 (got %q)", cfg.Port))
	}

	cfg.IdentityGatewayURL = os.Getenv("IDENTITY_GATEWAY_URL")
	cfg.IdentityServiceKey = os.Getenv("IDENTITY_SERVICE_KEY")

	cfg.HeartbeatIntervalMs = getEnvIntOrDefault("HEARTBEAT_INTERVAL_MS", 25000, &errs)
	cfg.ConnectionTimeoutMs = getEnvIntOrDefault("CONNECTION_TIMEOUT_MS", 20000, &errs)
	cfg.DisconnectGraceMs = getEnvIntOrDefault("DISCONNECT_GRACE_MS", 120000, &errs)
	cfg.IdleRoomMaxMs = getEnvIntOrDefault("IDLE_ROOM_MAX_MS", 30*60*1000, &errs)
	cfg.WordSelectionTimeout = getEnvIntOrDefault("WORD_SELECTION_TIMEOUT_MS", 15000, &errs)

	originsStr := os.Getenv("ALLOWED_ORIGINS")
	if originsStr == "" {
		cfg.AllowedOrigins = []string{"http://localhost:3000"}
	} else {
		cfg.AllowedOrigins = strings.Split(originsStr, ",")
	}

	cfg.RedisEnabled = os.Getenv("REDIS_ENABLED") == "true"
	if cfg.RedisEnabled {
		cfg.RedisAddr = os.Getenv("REDIS_ADDR")
		if cfg.RedisAddr == "" {
			cfg.RedisAddr = "localhost:6379"
			slog.Warn("REDIS_ADDR not set, using default", "addr", cfg.RedisAddr)
		}
		cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	cfg.Environment = getEnvOrDefault("GO_ENV", "production")

	cfg.RateLimitChat = getEnvOrDefault("RATE_LIMIT_CHAT", "3-10s")
	cfg.RateLimitDrawOps = getEnvOrDefault("RATE_LIMIT_DRAW_OPS", "120-1s")
	cfg.RateLimitConnection = getEnvOrDefault("RATE_LIMIT_CONNECTION", "5-1m")

	if len(errs) > 0 {
		return nil, fmt.Errorf("environment validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	logValidated(cfg)
	return cfg, nil
}

func logValidated(cfg *Config) {
	slog.Info("configuration validated",
		"port", cfg.Port,
		"identity_gateway_url", cfg.IdentityGatewayURL,
		"identity_service_key", redactSecret(cfg.IdentityServiceKey),
		"redis_enabled", cfg.RedisEnabled,
		"redis_addr", cfg.RedisAddr,
		"log_level", cfg.LogLevel,
		"environment", cfg.Environment,
	)
}

func getEnvOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvIntOrDefault(key string, def int, errs *[]string) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s must be an integer (got %q)", key, v))
		return def
	}
	return n
}

func redactSecret(secret string) string {
	if len(secret) <= 8 {
		if secret == "" {
			return ""
		}
		return "***"
	}
	return secret[:8] + "***"
}
