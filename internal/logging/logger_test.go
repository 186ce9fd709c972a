package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitializeIsIdempotent(t *testing.T) {
	assert.NoError(t, Initialize(true))
	assert.NoError(t, Initialize(true))
	assert.NotNil(t, GetLogger())
}

func TestWithHelpersTagContext(t *testing.T) {
	ctx := context.Background()
	ctx = WithRoom(ctx, "abc123")
	ctx = WithTurn(ctx, "turn-1")
	ctx = WithUser(ctx, "user-1")

	assert.Equal(t, "abc123", ctx.Value(RoomIDKey))
	assert.Equal(t, "turn-1", ctx.Value(TurnIDKey))
	assert.Equal(t, "user-1", ctx.Value(UserIDKey))
}

func TestAppendContextFieldsNilContext(t *testing.T) {
	fields := appendContextFields(nil, nil)
	assert.Nil(t, fields)
}
