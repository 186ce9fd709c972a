// Package canvas implements the CanvasLog (C11): the ordered, authoritative
// sequence of drawing operations for the current turn, modeled on the
// teacher's container/list-backed ordered queues in room.go.
package canvas

import (
	"container/list"

	"github.com/brushline/doodleserver/internal/protocol"
)

// MaxOps bounds the log so a misbehaving drawer cannot exhaust memory with
// an unbounded stream of strokes; beyond this the oldest ops are dropped
// from replay (the live broadcast already reached every subscriber).
const MaxOps = 4000

// Log is the ordered sequence of DrawOp entries for one turn.
type Log struct {
	ops *list.List
}

// New returns an empty Log.
func New() *Log {
	return &Log{ops: list.New()}
}

// Append adds op to the log, applying clear/undo semantics: a clear empties
// the log, an undo removes the issuer's latest stroke or bucket_fill, and any
// other op is appended (evicting the oldest op beyond MaxOps).
func (l *Log) Append(op protocol.DrawOp) {
	switch op.Kind {
	case protocol.OpClear:
		l.ops.Init()
		return
	case protocol.OpUndo:
		l.undo(op.UserID)
		return
	default:
		l.ops.PushBack(op)
		if l.ops.Len() > MaxOps {
			l.ops.Remove(l.ops.Front())
		}
	}
}

// undo removes the most recent stroke or bucket_fill issued by userID.
func (l *Log) undo(userID string) {
	for e := l.ops.Back(); e != nil; e = e.Prev() {
		op := e.Value.(protocol.DrawOp)
		if op.UserID != userID {
			continue
		}
		if op.Kind == protocol.OpStroke || op.Kind == protocol.OpBucketFill {
			l.ops.Remove(e)
			return
		}
	}
}

// Clear empties the log, used at turn end.
func (l *Log) Clear() {
	l.ops.Init()
}

// Snapshot returns the full ordered op list, for late joiners and
// reconnecting players.
func (l *Log) Snapshot() []protocol.DrawOp {
	ops := make([]protocol.DrawOp, 0, l.ops.Len())
	for e := l.ops.Front(); e != nil; e = e.Next() {
		ops = append(ops, e.Value.(protocol.DrawOp))
	}
	return ops
}

// Len reports how many ops are currently retained.
func (l *Log) Len() int {
	return l.ops.Len()
}
