package room

import "github.com/brushline/doodleserver/internal/protocol"

// ID is an exported helper for callers that only hold a *Room and need
// its identity without reaching into unexported fields (connmgr logging).
func (r *Room) ID() string { return r.RoomID }

// Join enqueues a player admission. midGame marks an admission after the
// game has already started (subject to settings.allow_mid_game_join).
// Returns false if the room's input queue is saturated (backpressure).
func (r *Room) Join(userID, displayName, avatarRef string, midGame bool) bool {
	return r.enqueue(msgJoin{userID: userID, displayName: displayName, avatarRef: avatarRef, midGame: midGame})
}

// Leave enqueues a voluntary departure (leave_room event).
func (r *Room) Leave(userID string) bool {
	return r.enqueue(msgLeave{userID: userID})
}

// Disconnect enqueues a liveness-loss notification; the player enters grace.
func (r *Room) Disconnect(userID string) bool {
	return r.enqueue(msgDisconnect{userID: userID})
}

// Reconnect enqueues resumption of a graced player on a new connection.
func (r *Room) Reconnect(userID string) bool {
	return r.enqueue(msgReconnect{userID: userID})
}

// Dispatch decodes an inbound client envelope into a typed room message and
// enqueues it. It returns ok=false when the envelope is malformed (the
// caller should respond bad_request) and queued=false when the room's input
// channel is saturated (the caller should treat this as backpressure).
func (r *Room) Dispatch(userID, eventType string, env protocol.Envelope) (ok, queued bool) {
	switch eventType {
	case protocol.EventLeaveRoom:
		return true, r.enqueue(msgLeave{userID: userID})

	case protocol.EventUpdateRoomSettings:
		var partial protocol.SettingsPatch
		if err := env.Decode(&partial); err != nil {
			return false, false
		}
		return true, r.enqueue(msgUpdateSettings{userID: userID, partial: partial})

	case protocol.EventStartGame:
		return true, r.enqueue(msgStartGame{userID: userID})

	case protocol.EventPlayerReady:
		var body struct {
			Ready bool `json:"ready"`
		}
		if err := env.Decode(&body); err != nil {
			return false, false
		}
		return true, r.enqueue(msgPlayerReady{userID: userID, ready: body.Ready})

	case protocol.EventSelectWord:
		var body struct {
			Word   string `json:"word"`
			TurnID int    `json:"turn_id"`
		}
		if err := env.Decode(&body); err != nil {
			return false, false
		}
		return true, r.enqueue(msgSelectWord{userID: userID, word: body.Word, turnID: body.TurnID})

	case protocol.EventDrawOp:
		var op protocol.DrawOp
		if err := env.Decode(&op); err != nil {
			return false, false
		}
		return true, r.enqueue(msgDrawOp{userID: userID, op: op})

	case protocol.EventCanvasClear:
		return true, r.enqueue(msgCanvasClear{userID: userID})

	case protocol.EventCanvasUndo:
		return true, r.enqueue(msgCanvasUndo{userID: userID})

	case protocol.EventChatMessage, protocol.EventLobbyChat:
		var body struct {
			Text string `json:"text"`
		}
		if err := env.Decode(&body); err != nil {
			return false, false
		}
		return true, r.enqueue(msgChatMessage{userID: userID, text: body.Text})

	case protocol.EventRequestCanvasSync:
		return true, r.enqueue(msgRequestCanvasSync{userID: userID})

	case protocol.EventVoteSkip:
		return true, r.enqueue(msgVoteSkip{userID: userID})

	case protocol.EventVoteKick:
		var body struct {
			UserID string `json:"user_id"`
		}
		if err := env.Decode(&body); err != nil {
			return false, false
		}
		return true, r.enqueue(msgVoteKick{userID: userID, targetID: body.UserID})

	default:
		return false, false
	}
}
