// Package ratelimit enforces the three server-authoritative rate limits:
// chat/guess events, draw operations, and connection attempts, each keyed
// per user.
package ratelimit

import (
	"context"
	"fmt"

	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Kind identifies which limit a check is against, used as the metrics label.
type Kind string

const (
	Chat       Kind = "chat"
	DrawOp     Kind = "draw_op"
	Connection Kind = "connection"
)

// Limiter enforces the three per-user rate limits.
type Limiter struct {
	chat       *limiter.Limiter
	drawOp     *limiter.Limiter
	connection *limiter.Limiter
}

// Formats holds the ulule/limiter rate format strings for each kind, read
// from configuration.
type Formats struct {
	Chat       string
	DrawOp     string
	Connection string
}

// New builds a Limiter. When redisClient is nil the limiter falls back to an
// in-process memory store, which is correct for a single-instance deployment
// but does not share state across replicas.
func New(formats Formats, redisClient *redis.Client) (*Limiter, error) {
	chatRate, err := limiter.NewRateFromFormatted(formats.Chat)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: invalid chat rate: %w", err)
	}
	drawRate, err := limiter.NewRateFromFormatted(formats.DrawOp)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: invalid draw_op rate: %w", err)
	}
	connRate, err := limiter.NewRateFromFormatted(formats.Connection)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: invalid connection rate: %w", err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{Prefix: "doodle:ratelimit:"})
		if err != nil {
			return nil, fmt.Errorf("ratelimit: redis store: %w", err)
		}
	} else {
		store = memory.NewStore()
	}

	return &Limiter{
		chat:       limiter.New(store, chatRate),
		drawOp:     limiter.New(store, drawRate),
		connection: limiter.New(store, connRate),
	}, nil
}

// Allow reports whether userID may proceed under kind's limit, failing open
// (allowing the request) if the backing store itself errors.
func (l *Limiter) Allow(ctx context.Context, kind Kind, userID string) bool {
	var inst *limiter.Limiter
	switch kind {
	case Chat:
		inst = l.chat
	case DrawOp:
		inst = l.drawOp
	case Connection:
		inst = l.connection
	default:
		return true
	}

	// All three limiters share one store, so the key carries the kind to keep
	// their counters apart.
	result, err := inst.Get(ctx, string(kind)+":"+userID)
	if err != nil {
		return true
	}
	if result.Reached {
		metrics.RateLimitExceeded.WithLabelValues(string(kind)).Inc()
		return false
	}
	return true
}
