package identity

import (
	"context"
	"errors"
	"time"

	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrGatewayUnavailable is returned when the breaker is open and the
// handshake must fail fast rather than wait on a known-bad provider.
var ErrGatewayUnavailable = errors.New("identity: gateway unavailable")

// Gateway wraps a Validator with a circuit breaker and a single retry,
// matching the failure-handling band the specification assigns to identity
// provider calls: retry once, then fail the handshake.
type Gateway struct {
	validator Validator
	breaker   *gobreaker.CircuitBreaker
}

// NewGateway builds a Gateway around validator, named "identity-gateway" in
// breaker state metrics.
func NewGateway(validator Validator) *Gateway {
	settings := gobreaker.Settings{
		Name:        "identity-gateway",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn(context.Background(), "circuit breaker state change",
				zap.String("breaker", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	}
	return &Gateway{validator: validator, breaker: gobreaker.NewCircuitBreaker(settings)}
}

// Authenticate validates tokenString, retrying once on transient failure
// before giving up.
func (g *Gateway) Authenticate(ctx context.Context, tokenString string) (Profile, error) {
	result, err := g.breaker.Execute(func() (interface{}, error) {
		profile, err := g.validator.ValidateToken(ctx, tokenString)
		if err != nil {
			profile, err = g.validator.ValidateToken(ctx, tokenString)
		}
		return profile, err
	})
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues("identity-gateway").Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Profile{}, ErrGatewayUnavailable
		}
		return Profile{}, err
	}
	return result.(Profile), nil
}
