// Package protocol defines the wire format: every frame carries one JSON
// event object, an envelope of {type, data}, following the tagged-event
// pattern common across the retrieved reference servers.
package protocol

import "encoding/json"

// Envelope is the outer shape of every frame exchanged over the connection.
type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Encode wraps payload into an Envelope of the given type.
func Encode(eventType string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: eventType}, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: eventType, Data: data}, nil
}

// Decode unmarshals an Envelope's Data into target.
func (e Envelope) Decode(target any) error {
	return json.Unmarshal(e.Data, target)
}

// Client→Server event types.
const (
	EventAuthenticate       = "authenticate"
	EventJoinPublicGame     = "join_public_game"
	EventCreatePrivateRoom  = "create_private_room"
	EventJoinPrivateRoom    = "join_private_room"
	EventLeaveRoom          = "leave_room"
	EventLobbyChat          = "lobby_chat"
	EventUpdateRoomSettings = "update_room_settings"
	EventStartGame          = "start_game"
	EventPlayerReady        = "player_ready"
	EventSelectWord         = "select_word"
	EventDrawOp             = "draw_op"
	EventCanvasClear        = "canvas_clear"
	EventCanvasUndo         = "canvas_undo"
	EventChatMessage        = "chat_message"
	EventRequestCanvasSync  = "request_canvas_sync"
	EventVoteKick           = "vote_kick"
	EventVoteSkip           = "vote_skip"
	EventPing               = "ping"
	EventMobileEvent        = "mobile_event"
	EventConnectionQuality  = "connection_quality"
)

// Server→Client event types.
const (
	EventAuthenticated      = "authenticated"
	EventRoomJoined         = "room_joined"
	EventRoomCreated        = "room_created"
	EventPlayerJoined       = "player_joined"
	EventPlayerLeft         = "player_left"
	EventRoomSettingsUpdate = "room_settings_updated"
	EventLobbyMessage       = "lobby_message"
	EventPlayerReadyChanged = "player_ready_changed"
	EventGameStarting       = "game_starting"
	EventTurnStarting       = "turn_starting"
	EventWordSelection      = "word_selection"
	EventDrawingStroke      = "drawing_stroke"
	EventCanvasCleared      = "canvas_cleared"
	EventCanvasState        = "canvas_state"
	EventPlayerGuessed      = "player_guessed"
	EventCorrectGuess       = "correct_guess"
	EventTimerUpdate        = "timer_update"
	EventHintRevealed       = "hint_revealed"
	EventScoreUpdate        = "score_update"
	EventTurnEnded          = "turn_ended"
	EventRoundEnded         = "round_ended"
	EventGameEnded          = "game_ended"
	EventError              = "error"
	EventRateLimited        = "rate_limited"
	EventPong               = "pong"
	EventVoteUpdate         = "vote_update"
	EventMobileHints        = "mobile_hints"
)

// ErrorCode enumerates the normative error codes of the event catalogue.
type ErrorCode string

const (
	ErrAuthFailed        ErrorCode = "auth_failed"
	ErrProfileIncomplete ErrorCode = "profile_incomplete"
	ErrAuthExpired       ErrorCode = "auth_expired"
	ErrBadRequest        ErrorCode = "bad_request"
	ErrRateLimited       ErrorCode = "rate_limited"
	ErrRoomNotFound      ErrorCode = "room_not_found"
	ErrRoomFull          ErrorCode = "room_full"
	ErrGameInProgress    ErrorCode = "game_in_progress"
	ErrNotHost           ErrorCode = "not_host"
	ErrNotDrawer         ErrorCode = "not_drawer"
	ErrNotDrawerChat     ErrorCode = "not_drawer_chat"
	ErrInvalidWord       ErrorCode = "invalid_word"
	ErrInvalidSettings   ErrorCode = "invalid_settings"
	ErrPlayerNotFound    ErrorCode = "player_not_found"
	ErrAlreadyGuessed    ErrorCode = "already_guessed"
	ErrGameNotActive     ErrorCode = "game_not_active"
	ErrBackpressure      ErrorCode = "backpressure"
)

// ErrorPayload is the data of an `error` event.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// RateLimitedPayload is the data of a `rate_limited` event.
type RateLimitedPayload struct {
	Kind         string `json:"kind"`
	RetryAfterMs int64  `json:"retry_after_ms"`
}
