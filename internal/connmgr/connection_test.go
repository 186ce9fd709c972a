package connmgr

import (
	"testing"

	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(capacity int) *Connection {
	return &Connection{
		send:         make(chan protocol.Envelope, capacity),
		prioritySend: make(chan protocol.Envelope, capacity),
	}
}

func TestEnqueueRoutesByPriority(t *testing.T) {
	c := newTestConnection(4)

	c.enqueue(protocol.Envelope{Type: protocol.EventTimerUpdate})
	c.enqueue(protocol.Envelope{Type: protocol.EventTurnEnded})

	require.Len(t, c.send, 1)
	require.Len(t, c.prioritySend, 1)

	low := <-c.send
	assert.Equal(t, protocol.EventTimerUpdate, low.Type)

	high := <-c.prioritySend
	assert.Equal(t, protocol.EventTurnEnded, high.Type)
}

func TestEnqueueDropsLowPriorityOnOverflow(t *testing.T) {
	c := newTestConnection(1)

	c.enqueue(protocol.Envelope{Type: protocol.EventDrawingStroke})
	// queue is now full; a second low-priority event must be dropped
	// silently rather than blocking or evicting the first.
	c.enqueue(protocol.Envelope{Type: protocol.EventDrawingStroke})

	assert.Len(t, c.send, 1)
}

func TestLowPriorityClassification(t *testing.T) {
	assert.True(t, lowPriorityEvents[protocol.EventDrawingStroke])
	assert.True(t, lowPriorityEvents[protocol.EventTimerUpdate])
	assert.False(t, lowPriorityEvents[protocol.EventTurnEnded])
	assert.False(t, lowPriorityEvents[protocol.EventError])
}
