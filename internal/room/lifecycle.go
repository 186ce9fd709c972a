package room

import (
	"context"
	"fmt"
	"time"

	"github.com/brushline/doodleserver/internal/canvas"
	"github.com/brushline/doodleserver/internal/hints"
	"github.com/brushline/doodleserver/internal/logging"
	"github.com/brushline/doodleserver/internal/metrics"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/brushline/doodleserver/internal/scoreboard"
	"github.com/brushline/doodleserver/internal/store"
	"github.com/brushline/doodleserver/internal/words"
	"go.uber.org/zap"
)

const (
	defaultWordSelectionTimeout = 15 * time.Second
	defaultDisconnectGrace      = 120 * time.Second
)

func scoreboardGuesserPoints(elapsedMs, totalMs int64) int {
	return scoreboard.GuesserPoints(elapsedMs, totalMs)
}

func (r *Room) startGame() {
	r.status = StatusStarting
	r.startedAt = r.clk.Now()
	r.sessionID = fmt.Sprintf("%s-%d", r.RoomID, r.startedAt.UnixNano())
	r.seedTurnOrder()
	r.roundIndex = 0
	r.rounds = nil
	r.board.Reset()

	r.broadcast(protocol.EventGameStarting, r.snapshot(), "")
	r.beginWordSelection()
}

func (r *Room) beginWordSelection() {
	drawerID, ok := r.nextDrawer()
	if !ok {
		r.endRound()
		return
	}

	r.nextTurnID++
	turnID := r.nextTurnID
	r.turn = &turnState{
		turnID:    turnID,
		drawerID:  drawerID,
		canvasLog: canvas.New(),
		skipVotes: make(map[string]bool),
		kickVotes: make(map[string]map[string]bool),
	}
	r.status = StatusWordSelection

	for _, p := range r.players {
		p.IsDrawer = p.UserID == drawerID
		p.HasGuessedCorrectly = false
		p.ScoreTurn = 0
	}

	choices, err := r.words.Choices(words.Language(r.Settings.Language), r.Settings.CustomWords)
	if err != nil {
		logging.Error(context.Background(), "word choice selection failed", zap.Error(err))
		r.endTurn("cancelled")
		return
	}
	r.turn.wordChoices = choices

	r.sendTo(drawerID, protocol.EventWordSelection, struct {
		Choices  []string `json:"choices"`
		Deadline int64    `json:"deadline_ms"`
	}{choices, r.clk.Now().Add(r.wordSelectionTimeout).UnixMilli()})

	r.broadcast(protocol.EventTurnStarting, r.turnSnapshot(false), drawerID)

	r.turn.wordSelectTimer = r.clk.AfterFunc(r.wordSelectionTimeout, func() {
		r.enqueue(msgWordSelectionTimeout{turnID: turnID})
	})
}

func (r *Room) nextDrawer() (string, bool) {
	for r.turnIdx < len(r.turnOrder) {
		candidate := r.turnOrder[r.turnIdx]
		r.turnIdx++
		if _, ok := r.players[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

func (r *Room) handleWordSelectionTimeout(turnID int) {
	if r.turn == nil || r.turn.turnID != turnID || r.status != StatusWordSelection {
		return
	}
	if len(r.turn.wordChoices) == 0 {
		r.endTurn("cancelled")
		return
	}
	r.beginDrawingPhase(r.turn.wordChoices[0])
}

func (r *Room) beginDrawingPhase(word string) {
	if r.turn.wordSelectTimer != nil {
		r.turn.wordSelectTimer.Stop()
	}

	r.turn.word = word
	r.turn.timeTotalMs = int64(r.Settings.DrawTimeSeconds) * 1000
	r.turn.startedAt = r.clk.Now()
	r.status = StatusDrawing

	r.turn.hintScheduler = hints.New(r.clk, word, int64(r.turn.turnID))
	turnID := r.turn.turnID
	r.turn.hintScheduler.Schedule(r.Settings.Hints, r.turn.timeTotalMs, func(h protocol.WordHint) {
		r.enqueue(msgHintRevealed{turnID: turnID, hint: h})
	})

	r.broadcast(protocol.EventTurnStarting, r.turnSnapshot(false), r.turn.drawerID)
	r.sendTo(r.turn.drawerID, protocol.EventTurnStarting, r.turnSnapshot(true))

	r.scheduleTick(turnID)
}

func (r *Room) scheduleTick(turnID int) {
	r.turn.tickTimer = r.clk.AfterFunc(time.Second, func() {
		r.enqueue(msgTurnTick{turnID: turnID})
	})
}

func (r *Room) handleTurnTick(turnID int) {
	if r.turn == nil || r.turn.turnID != turnID || r.status != StatusDrawing {
		return
	}
	remaining := r.turn.timeRemainingMs(r.clk.Now())
	r.broadcast(protocol.EventTimerUpdate, struct {
		RemainingMs int64 `json:"remaining_ms"`
	}{remaining}, "")

	if remaining <= 0 {
		r.endTurn("time_up")
		return
	}
	r.scheduleTick(turnID)
}

func (r *Room) handleHintRevealed(ev msgHintRevealed) {
	if r.turn == nil || r.turn.turnID != ev.turnID {
		return
	}
	r.broadcast(protocol.EventHintRevealed, ev.hint, r.turn.drawerID)
}

func (r *Room) endTurn(reason string) {
	if r.turn == nil {
		return
	}
	r.cancelTurnTimers()

	guesserPoints := make([]int, 0, len(r.turn.guessedOrder))
	results := make([]protocol.GuessResult, 0, len(r.turn.guessedOrder))
	for i, userID := range r.turn.guessedOrder {
		p := r.players[userID]
		if p == nil {
			continue
		}
		elapsed := r.clk.Now().Sub(r.turn.startedAt).Milliseconds()
		points := p.ScoreTurn
		guesserPoints = append(guesserPoints, points)
		results = append(results, protocol.GuessResult{UserID: userID, Points: points, ElapsedMs: elapsed, GuessOrder: i})
		r.board.AddTurnPoints(userID, points)
	}

	otherPlayers := len(r.players) - 1
	drawerPoints := scoreboard.DrawerPoints(guesserPoints, otherPlayers)
	if drawer, ok := r.players[r.turn.drawerID]; ok {
		drawer.ScoreTurn = drawerPoints
		r.board.AddTurnPoints(r.turn.drawerID, drawerPoints)
	}

	elapsedTotal := r.clk.Now().Sub(r.turn.startedAt).Milliseconds()
	turnResult := protocol.TurnResult{
		DrawerID:     r.turn.drawerID,
		Word:         r.turn.word,
		Guesses:      results,
		DrawerPoints: drawerPoints,
		ElapsedMs:    elapsedTotal,
		EndReason:    reason,
	}
	r.broadcast(protocol.EventTurnEnded, turnResult, "")
	metrics.TurnsCompleted.WithLabelValues(reason).Inc()

	r.rounds = append(r.rounds, store.Round{
		SessionID:  r.sessionID,
		RoundIndex: r.roundIndex,
		DrawerID:   r.turn.drawerID,
		Word:       r.turn.word,
		EndedAt:    r.clk.Now(),
	})

	for _, p := range r.players {
		p.IsDrawer = false
	}
	r.turn = nil

	if _, ok := r.nextDrawerPeek(); ok {
		r.beginWordSelection()
		return
	}
	r.endRound()
}

func (r *Room) nextDrawerPeek() (string, bool) {
	for i := r.turnIdx; i < len(r.turnOrder); i++ {
		if _, ok := r.players[r.turnOrder[i]]; ok {
			return r.turnOrder[i], true
		}
	}
	return "", false
}

func (r *Room) endRound() {
	r.status = StatusRoundEnd
	r.broadcast(protocol.EventRoundEnded, r.board.Snapshot(), "")

	if r.roundIndex+1 < r.Settings.Rounds {
		r.roundIndex++
		r.turnIdx = 0
		r.beginWordSelection()
		return
	}
	r.endGame()
}

func (r *Room) endGame() {
	r.status = StatusGameEnd
	result := protocol.GameResult{
		Winners:    r.board.Winners(),
		FinalScore: r.board.Snapshot(),
	}
	r.broadcast(protocol.EventGameEnded, result, "")

	r.persistGame(result)

	r.status = StatusWaiting
	r.lobby.Clear()
	r.turnOrder = nil
	r.turnIdx = 0
}

func (r *Room) persistGame(result protocol.GameResult) {
	participants := make([]store.Participant, 0, len(r.players))
	for id, score := range result.FinalScore {
		participants = append(participants, store.Participant{SessionID: r.sessionID, UserID: id, Score: score})
	}
	mode := "public"
	if r.IsPrivate {
		mode = "private"
	}
	session := store.Session{
		ID:        r.sessionID,
		RoomID:    r.RoomID,
		HostID:    r.HostID,
		Mode:      mode,
		StartedAt: r.startedAt,
		EndedAt:   r.clk.Now(),
	}
	r.store.SaveGame(context.Background(), session, participants, r.rounds)
}

func mergeSettings(base protocol.Settings, partial protocol.SettingsPatch) (protocol.Settings, error) {
	merged := base
	if partial.MaxPlayers != 0 {
		if partial.MaxPlayers < 2 || partial.MaxPlayers > 20 {
			return base, fmt.Errorf("max_players out of range")
		}
		merged.MaxPlayers = partial.MaxPlayers
	}
	if partial.Rounds != 0 {
		if partial.Rounds < 1 || partial.Rounds > 10 {
			return base, fmt.Errorf("rounds out of range")
		}
		merged.Rounds = partial.Rounds
	}
	if partial.DrawTimeSeconds != 0 {
		if partial.DrawTimeSeconds < 30 || partial.DrawTimeSeconds > 240 {
			return base, fmt.Errorf("draw_time_seconds out of range")
		}
		merged.DrawTimeSeconds = partial.DrawTimeSeconds
	}
	if partial.Language != "" {
		if partial.Language != protocol.LanguageEnglish && partial.Language != protocol.LanguageSpanish {
			return base, fmt.Errorf("unsupported language")
		}
		merged.Language = partial.Language
	}
	if partial.Hints != 0 {
		if partial.Hints < 0 || partial.Hints > 5 {
			return base, fmt.Errorf("hints out of range")
		}
		merged.Hints = partial.Hints
	}
	if partial.WordMode != "" {
		switch partial.WordMode {
		case protocol.WordModeNormal, protocol.WordModeHidden, protocol.WordModeCombination:
			merged.WordMode = partial.WordMode
		default:
			return base, fmt.Errorf("unsupported word_mode")
		}
	}
	if len(partial.CustomWords) > 0 {
		if len(partial.CustomWords) < words.MinCustomWords {
			return base, fmt.Errorf("custom_words must have at least %d entries", words.MinCustomWords)
		}
		merged.CustomWords = partial.CustomWords
	}
	if partial.AllowMidGameJoin != nil {
		merged.AllowMidGameJoin = *partial.AllowMidGameJoin
	}
	return merged, nil
}
