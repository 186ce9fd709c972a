package ratelimit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(t *testing.T) *Limiter {
	t.Helper()
	l, err := New(Formats{Chat: "2-1m", DrawOp: "5-1m", Connection: "1-1m"}, nil)
	require.NoError(t, err)
	return l
}

func TestAllowPermitsUpToLimit(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, Chat, "u1"))
	assert.True(t, l.Allow(ctx, Chat, "u1"))
	assert.False(t, l.Allow(ctx, Chat, "u1"))
}

func TestAllowLimitsAreIndependentPerKind(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, Connection, "u1"))
	assert.False(t, l.Allow(ctx, Connection, "u1"))

	assert.True(t, l.Allow(ctx, Chat, "u1"))
}

func TestAllowLimitsAreIndependentPerUser(t *testing.T) {
	l := newTestLimiter(t)
	ctx := context.Background()

	assert.True(t, l.Allow(ctx, Connection, "u1"))
	assert.False(t, l.Allow(ctx, Connection, "u1"))
	assert.True(t, l.Allow(ctx, Connection, "u2"))
}
