package room

import (
	"time"

	"github.com/brushline/doodleserver/internal/canvas"
	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/hints"
	"github.com/brushline/doodleserver/internal/protocol"
)

// ConnState is a player's connection lifecycle state.
type ConnState string

const (
	ConnConnected ConnState = "connected"
	ConnGrace     ConnState = "grace"
	ConnGone      ConnState = "gone"
)

// Player is one participant in a Room.
type Player struct {
	UserID              string
	DisplayName         string
	AvatarRef           string
	ConnState           ConnState
	IsDrawer            bool
	HasGuessedCorrectly bool
	ScoreTurn           int
	LastActivity        time.Time
	JoinOrder           int
	graceTimer          clock.Timer
}

func (p *Player) snapshot(scoreGame int) protocol.PlayerSnapshot {
	return protocol.PlayerSnapshot{
		UserID:              p.UserID,
		DisplayName:         p.DisplayName,
		AvatarRef:           p.AvatarRef,
		Connected:           p.ConnState == ConnConnected,
		IsDrawer:            p.IsDrawer,
		HasGuessedCorrectly: p.HasGuessedCorrectly,
		ScoreGame:           scoreGame,
		ScoreTurn:           p.ScoreTurn,
	}
}

// turnState is the Room's private per-turn working state.
type turnState struct {
	turnID          int
	drawerID        string
	word            string
	wordChoices     []string
	timeTotalMs     int64
	startedAt       time.Time
	guessedOrder    []string
	canvasLog       *canvas.Log
	hintScheduler   *hints.Scheduler
	wordSelectTimer clock.Timer
	tickTimer       clock.Timer
	ticksElapsed    int64
	skipVotes       map[string]bool
	kickVotes       map[string]map[string]bool
}

func (t *turnState) timeRemainingMs(now time.Time) int64 {
	if t == nil {
		return 0
	}
	elapsed := now.Sub(t.startedAt).Milliseconds()
	remaining := t.timeTotalMs - elapsed
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}
