package room

import (
	"github.com/brushline/doodleserver/internal/guess"
	"github.com/brushline/doodleserver/internal/protocol"
)

func (r *Room) handleJoin(ev msgJoin) {
	if len(r.players) >= r.Settings.MaxPlayers {
		r.emitError(ev.userID, protocol.ErrRoomFull, "room is full")
		return
	}
	if r.status != StatusWaiting && !(ev.midGame && r.Settings.AllowMidGameJoin) {
		r.emitError(ev.userID, protocol.ErrGameInProgress, "game already in progress")
		return
	}

	r.joinSeq++
	player := &Player{
		UserID:       ev.userID,
		DisplayName:  ev.displayName,
		AvatarRef:    ev.avatarRef,
		ConnState:    ConnConnected,
		LastActivity: r.clk.Now(),
		JoinOrder:    r.joinSeq,
	}
	r.players[ev.userID] = player

	if r.IsPrivate && r.HostID == "" {
		r.HostID = ev.userID
	}

	if r.status != StatusWaiting && r.Settings.AllowMidGameJoin {
		r.turnOrder = append(r.turnOrder, ev.userID)
	}

	r.sendTo(ev.userID, protocol.EventRoomJoined, r.snapshot())
	r.broadcast(protocol.EventPlayerJoined, player.snapshot(0), ev.userID)
	r.lobby.System(player.DisplayName+" joined", r.clk.Now().UnixMilli())

	if r.status != StatusWaiting {
		r.sendTo(ev.userID, protocol.EventCanvasState, r.canvasSnapshot())
	}
}

func (r *Room) handleLeave(userID string) {
	r.removePlayer(userID, "left")
}

func (r *Room) handleDisconnect(userID string) {
	p, ok := r.players[userID]
	if !ok {
		return
	}
	p.ConnState = ConnGrace
	p.graceTimer = r.clk.AfterFunc(r.disconnectGrace, func() {
		r.enqueue(msgGraceExpired{userID: userID})
	})
}

func (r *Room) handleReconnect(userID string) {
	p, ok := r.players[userID]
	if !ok {
		return
	}
	if p.graceTimer != nil {
		p.graceTimer.Stop()
		p.graceTimer = nil
	}
	p.ConnState = ConnConnected
	r.sendTo(userID, protocol.EventRoomJoined, r.snapshot())
	if r.turn != nil {
		r.sendTo(userID, protocol.EventCanvasState, r.canvasSnapshot())
	}
}

func (r *Room) handleGraceExpired(userID string) {
	p, ok := r.players[userID]
	if !ok || p.ConnState != ConnGrace {
		return
	}
	wasDrawer := p.IsDrawer
	r.removePlayer(userID, "disconnected")
	if wasDrawer && r.turn != nil {
		r.endTurn("drawer_left")
	}
}

func (r *Room) removePlayer(userID, reason string) {
	p, ok := r.players[userID]
	if !ok {
		return
	}
	if p.graceTimer != nil {
		p.graceTimer.Stop()
	}
	delete(r.players, userID)
	r.lobby.RemovePlayer(userID)
	r.out.OnPlayerLeft(userID)

	for i, id := range r.turnOrder {
		if id == userID {
			r.turnOrder = append(r.turnOrder[:i], r.turnOrder[i+1:]...)
			if i <= r.turnIdx {
				r.turnIdx--
			}
			break
		}
	}

	if r.IsPrivate && r.HostID == userID {
		r.succeedHost()
	}

	r.broadcast(protocol.EventPlayerLeft, struct {
		UserID string `json:"user_id"`
		Reason string `json:"reason"`
	}{userID, reason}, "")

	if len(r.players) == 0 {
		r.lobby.Clear()
		r.board.Reset()
	}
}

func (r *Room) succeedHost() {
	var earliest *Player
	for _, p := range r.players {
		if earliest == nil || p.JoinOrder < earliest.JoinOrder {
			earliest = p
		}
	}
	if earliest != nil {
		r.HostID = earliest.UserID
	} else {
		r.HostID = ""
	}
}

func (r *Room) handleUpdateSettings(ev msgUpdateSettings) {
	if r.IsPrivate && ev.userID != r.HostID {
		r.emitError(ev.userID, protocol.ErrNotHost, "only the host may change settings")
		return
	}
	if r.status != StatusWaiting {
		r.emitError(ev.userID, protocol.ErrGameInProgress, "cannot change settings mid-game")
		return
	}
	merged, err := mergeSettings(r.Settings, ev.partial)
	if err != nil {
		r.emitError(ev.userID, protocol.ErrInvalidSettings, err.Error())
		return
	}
	r.Settings = merged
	r.broadcast(protocol.EventRoomSettingsUpdate, r.Settings, "")
	r.lobby.System("room settings updated", r.clk.Now().UnixMilli())
}

func (r *Room) handlePlayerReady(ev msgPlayerReady) {
	p, ok := r.players[ev.userID]
	if !ok {
		r.emitError(ev.userID, protocol.ErrPlayerNotFound, "unknown player")
		return
	}
	_ = p
	r.lobby.SetReady(ev.userID, ev.ready)
	r.broadcast(protocol.EventPlayerReadyChanged, struct {
		UserID string `json:"user_id"`
		Ready  bool   `json:"ready"`
	}{ev.userID, ev.ready}, "")
	verb := "unready"
	if ev.ready {
		verb = "ready"
	}
	r.lobby.System(p.DisplayName+" is "+verb, r.clk.Now().UnixMilli())
}

func (r *Room) handleStartGame(userID string) {
	if r.status != StatusWaiting {
		r.emitError(userID, protocol.ErrGameInProgress, "game already in progress")
		return
	}
	if r.IsPrivate && userID != r.HostID && !r.lobby.AllReady(r.orderedUserIDs()) {
		r.emitError(userID, protocol.ErrNotHost, "only the host may start, unless all players are ready")
		return
	}
	if len(r.players) < 2 {
		r.emitError(userID, protocol.ErrBadRequest, "need at least two players")
		return
	}
	r.startGame()
}

func (r *Room) handleSelectWord(ev msgSelectWord) {
	if r.turn == nil || ev.turnID != r.turn.turnID {
		return
	}
	if ev.userID != r.turn.drawerID {
		r.emitError(ev.userID, protocol.ErrNotDrawer, "only the drawer selects the word")
		return
	}
	valid := false
	for _, w := range r.turn.wordChoices {
		if w == ev.word {
			valid = true
			break
		}
	}
	if !valid {
		r.emitError(ev.userID, protocol.ErrInvalidWord, "word is not one of the offered choices")
		return
	}
	r.beginDrawingPhase(ev.word)
}

func (r *Room) handleDrawOp(ev msgDrawOp) {
	if r.turn == nil || r.status != StatusDrawing {
		return
	}
	if ev.userID != r.turn.drawerID {
		r.emitError(ev.userID, protocol.ErrNotDrawer, "only the drawer may draw")
		return
	}
	ev.op.UserID = ev.userID
	r.turn.canvasLog.Append(ev.op)
	r.broadcast(protocol.EventDrawingStroke, ev.op, ev.userID)
}

func (r *Room) handleCanvasClear(userID string) {
	if r.turn == nil || userID != r.turn.drawerID {
		return
	}
	r.turn.canvasLog.Clear()
	r.broadcast(protocol.EventCanvasCleared, nil, "")
}

func (r *Room) handleCanvasUndo(userID string) {
	if r.turn == nil || userID != r.turn.drawerID {
		return
	}
	r.turn.canvasLog.Append(protocol.DrawOp{Kind: protocol.OpUndo, UserID: userID})
	r.broadcast(protocol.EventCanvasState, r.canvasSnapshot(), "")
}

func (r *Room) handleRequestCanvasSync(userID string) {
	r.sendTo(userID, protocol.EventCanvasState, r.canvasSnapshot())
}

func (r *Room) canvasSnapshot() []protocol.DrawOp {
	if r.turn == nil {
		return nil
	}
	return r.turn.canvasLog.Snapshot()
}

func (r *Room) handleChatMessage(ev msgChatMessage) {
	if r.status == StatusWaiting {
		r.lobby.Post(ev.userID, ev.text, r.clk.Now().UnixMilli())
		r.broadcast(protocol.EventLobbyMessage, r.lobby.Messages()[len(r.lobby.Messages())-1], ev.userID)
		return
	}

	if r.status != StatusDrawing || r.turn == nil {
		return
	}
	if ev.userID == r.turn.drawerID {
		r.emitError(ev.userID, protocol.ErrNotDrawerChat, "the drawer cannot chat during drawing")
		return
	}
	r.evaluateGuess(ev.userID, ev.text)
}

func (r *Room) evaluateGuess(userID, text string) {
	p, ok := r.players[userID]
	if !ok {
		return
	}
	if p.HasGuessedCorrectly {
		r.emitError(userID, protocol.ErrAlreadyGuessed, "already guessed correctly this turn")
		return
	}

	classification := guess.Evaluate(text, r.turn.word)
	switch classification {
	case guess.Correct:
		p.HasGuessedCorrectly = true
		r.turn.guessedOrder = append(r.turn.guessedOrder, userID)
		elapsed := r.clk.Now().Sub(r.turn.startedAt).Milliseconds()
		p.ScoreTurn = scoreboardGuesserPoints(elapsed, r.turn.timeTotalMs)

		r.broadcast(protocol.EventPlayerGuessed, struct {
			UserID string `json:"user_id"`
		}{userID}, "")
		r.sendTo(userID, protocol.EventCorrectGuess, struct {
			UserID string `json:"user_id"`
			Word   string `json:"word"`
		}{userID, r.turn.word})

		if r.allNonDrawersGuessed() {
			r.endTurn("all_guessed")
		}
	case guess.Close:
		r.sendTo(userID, protocol.EventChatMessage, struct {
			Kind string `json:"kind"`
		}{"close"})
		r.broadcast(protocol.EventChatMessage, struct {
			UserID string `json:"user_id"`
			Text   string `json:"text"`
		}{userID, text}, userID)
	default:
		r.broadcast(protocol.EventChatMessage, struct {
			UserID string `json:"user_id"`
			Text   string `json:"text"`
		}{userID, text}, "")
	}
}

func (r *Room) allNonDrawersGuessed() bool {
	for id, p := range r.players {
		if id == r.turn.drawerID {
			continue
		}
		if !p.HasGuessedCorrectly {
			return false
		}
	}
	return true
}

// skipMajorityThreshold is the number of votes needed to skip the current
// turn: more than half of the non-drawer players.
func (r *Room) skipMajorityThreshold() int {
	eligible := len(r.players) - 1
	if eligible < 1 {
		eligible = 1
	}
	return eligible/2 + 1
}

func (r *Room) handleVoteSkip(userID string) {
	if r.turn == nil || userID == r.turn.drawerID {
		return
	}
	if _, ok := r.players[userID]; !ok {
		return
	}
	r.turn.skipVotes[userID] = true
	r.broadcast(protocol.EventVoteUpdate, struct {
		Kind  string `json:"kind"`
		Votes int    `json:"votes"`
		Need  int    `json:"need"`
	}{"skip", len(r.turn.skipVotes), r.skipMajorityThreshold()}, "")

	if len(r.turn.skipVotes) >= r.skipMajorityThreshold() {
		r.endTurn("skipped")
	}
}

// kickMajorityThreshold is the number of votes needed to remove a player:
// more than half of the players excluding the target.
func (r *Room) kickMajorityThreshold(targetID string) int {
	eligible := len(r.players) - 1
	if eligible < 1 {
		eligible = 1
	}
	return eligible/2 + 1
}

func (r *Room) handleVoteKick(ev msgVoteKick) {
	if _, ok := r.players[ev.targetID]; !ok {
		r.emitError(ev.userID, protocol.ErrPlayerNotFound, "unknown player")
		return
	}
	if _, ok := r.players[ev.userID]; !ok || ev.userID == ev.targetID {
		return
	}
	if r.turn == nil {
		r.removePlayer(ev.targetID, "kicked")
		return
	}
	if r.turn.kickVotes[ev.targetID] == nil {
		r.turn.kickVotes[ev.targetID] = make(map[string]bool)
	}
	r.turn.kickVotes[ev.targetID][ev.userID] = true
	votes := len(r.turn.kickVotes[ev.targetID])

	r.broadcast(protocol.EventVoteUpdate, struct {
		Kind     string `json:"kind"`
		TargetID string `json:"target_id"`
		Votes    int    `json:"votes"`
		Need     int    `json:"need"`
	}{"kick", ev.targetID, votes, r.kickMajorityThreshold(ev.targetID)}, "")

	if votes >= r.kickMajorityThreshold(ev.targetID) {
		wasDrawer := r.turn != nil && r.turn.drawerID == ev.targetID
		r.removePlayer(ev.targetID, "kicked")
		if wasDrawer && r.turn != nil {
			r.endTurn("drawer_kicked")
		}
	}
}

func (r *Room) currentTurnIDOrZero() int {
	if r.turn == nil {
		return 0
	}
	return r.turn.turnID
}
