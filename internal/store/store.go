// Package store implements the SessionStore (C2): best-effort persistence of
// completed games to Redis. Failures never surface to callers — they are
// logged and counted, following the graceful-degradation pattern the
// teacher uses for its Redis-backed bus.Service.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// Session is the game_session record.
type Session struct {
	ID           string          `json:"id"`
	RoomID       string          `json:"room_id"`
	HostID       string          `json:"host_id,omitempty"`
	Mode         string          `json:"mode"`
	SettingsJSON json.RawMessage `json:"settings_json,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	EndedAt      time.Time       `json:"ended_at"`
}

// Participant is the game_participant record.
type Participant struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Score     int    `json:"score"`
}

// Round is the game_round record, one per completed turn.
type Round struct {
	SessionID  string          `json:"session_id"`
	RoundIndex int             `json:"round_index"`
	DrawerID   string          `json:"drawer_id"`
	Word       string          `json:"word"`
	ScoresJSON json.RawMessage `json:"scores_json,omitempty"`
	EndedAt    time.Time       `json:"ended_at"`
}

// Store persists session/participant/round records to Redis, degrading to
// a no-op when the circuit is open or Redis was never configured.
type Store struct {
	client *redis.Client
	cb     *gobreaker.CircuitBreaker
}

// New builds a Store connected to addr. Pass an empty addr to run in
// single-instance mode, where every write is a no-op.
func New(addr, password string) (*Store, error) {
	if addr == "" {
		return &Store{}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("store: connect to redis: %w", err)
	}

	settings := gobreaker.Settings{
		Name:        "session-store",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     15 * time.Second,
		OnStateChange: func(name string, _, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
		},
	}

	return &Store{client: client, cb: gobreaker.NewCircuitBreaker(settings)}, nil
}

// NewFromClient wraps an already-constructed *redis.Client, used by tests
// to point the Store at a miniredis instance.
func NewFromClient(client *redis.Client) *Store {
	settings := gobreaker.Settings{Name: "session-store"}
	return &Store{client: client, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (s *Store) enabled() bool { return s != nil && s.client != nil }

// Ping reports Redis connectivity; a disabled store always reports nil.
func (s *Store) Ping(ctx context.Context) error {
	if !s.enabled() {
		return nil
	}
	return s.client.Ping(ctx).Err()
}

// SaveGame writes a session record, its participants, and its round history
// in a single pipeline. Errors are logged and counted, never returned to the
// caller, since the game has already concluded in memory regardless.
func (s *Store) SaveGame(ctx context.Context, session Session, participants []Participant, rounds []Round) {
	if !s.enabled() {
		return
	}

	_, err := s.cb.Execute(func() (interface{}, error) {
		pipe := s.client.TxPipeline()

		sessionKey := fmt.Sprintf("game_session:%s", session.ID)
		sessionBytes, err := json.Marshal(session)
		if err != nil {
			return nil, fmt.Errorf("marshal session: %w", err)
		}
		pipe.Set(ctx, sessionKey, sessionBytes, 30*24*time.Hour)

		for _, p := range participants {
			pBytes, err := json.Marshal(p)
			if err != nil {
				return nil, fmt.Errorf("marshal participant: %w", err)
			}
			pipe.RPush(ctx, fmt.Sprintf("game_participant:%s", session.ID), pBytes)
		}

		for _, r := range rounds {
			rBytes, err := json.Marshal(r)
			if err != nil {
				return nil, fmt.Errorf("marshal round: %w", err)
			}
			pipe.RPush(ctx, fmt.Sprintf("game_round:%s", session.ID), rBytes)
		}

		_, err = pipe.Exec(ctx)
		return nil, err
	})

	if err != nil {
		metrics.SessionStoreOperations.WithLabelValues("save_game", "error").Inc()
		if err == gobreaker.ErrOpenState {
			logging.Warn(ctx, "session store circuit open, dropping save", zap.String("session_id", session.ID))
			return
		}
		logging.Error(ctx, "session store save failed", zap.String("session_id", session.ID), zap.Error(err))
		return
	}
	metrics.SessionStoreOperations.WithLabelValues("save_game", "ok").Inc()
}

// Close releases the underlying Redis connection.
func (s *Store) Close() error {
	if !s.enabled() {
		return nil
	}
	return s.client.Close()
}
