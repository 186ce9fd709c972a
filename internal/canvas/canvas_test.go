package canvas

import (
	"testing"

	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/stretchr/testify/assert"
)

func TestAppendAndSnapshotPreservesOrder(t *testing.T) {
	l := New()
	l.Append(protocol.DrawOp{Kind: protocol.OpStroke, UserID: "u1", Points: []protocol.Point{{X: 0, Y: 0}}})
	l.Append(protocol.DrawOp{Kind: protocol.OpBucketFill, UserID: "u1"})

	snap := l.Snapshot()

	assert.Len(t, snap, 2)
	assert.Equal(t, protocol.OpStroke, snap[0].Kind)
	assert.Equal(t, protocol.OpBucketFill, snap[1].Kind)
}

func TestUndoRemovesMostRecentByDrawer(t *testing.T) {
	l := New()
	l.Append(protocol.DrawOp{Kind: protocol.OpStroke, UserID: "u1"})
	l.Append(protocol.DrawOp{Kind: protocol.OpBucketFill, UserID: "u1"})

	l.Append(protocol.DrawOp{Kind: protocol.OpUndo, UserID: "u1"})

	snap := l.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, protocol.OpStroke, snap[0].Kind)
}

func TestClearEmptiesLog(t *testing.T) {
	l := New()
	l.Append(protocol.DrawOp{Kind: protocol.OpStroke, UserID: "u1"})

	l.Append(protocol.DrawOp{Kind: protocol.OpClear, UserID: "u1"})

	assert.Equal(t, 0, l.Len())
}

func TestAppendBoundsLogLength(t *testing.T) {
	l := New()
	for i := 0; i < MaxOps+10; i++ {
		l.Append(protocol.DrawOp{Kind: protocol.OpStroke, UserID: "u1"})
	}

	assert.Equal(t, MaxOps, l.Len())
}
