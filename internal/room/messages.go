package room

import "github.com/brushline/doodleserver/internal/protocol"

// msg is the tagged union of everything that can enter a Room's single
// input channel: client events, timer ticks, and admission/departure
// notifications all arrive this way, giving the Room's one consumer total
// serialization with no locks on room state.
type msg interface{ isRoomMsg() }

type msgJoin struct {
	userID      string
	displayName string
	avatarRef   string
	midGame     bool
}

type msgLeave struct{ userID string }

type msgDisconnect struct{ userID string }

type msgReconnect struct{ userID string }

type msgGraceExpired struct {
	userID string
}

type msgUpdateSettings struct {
	userID  string
	partial protocol.SettingsPatch
}

type msgStartGame struct{ userID string }

type msgPlayerReady struct {
	userID string
	ready  bool
}

type msgSelectWord struct {
	userID string
	word   string
	turnID int
}

type msgDrawOp struct {
	userID string
	op     protocol.DrawOp
}

type msgCanvasClear struct{ userID string }

type msgCanvasUndo struct{ userID string }

type msgChatMessage struct {
	userID string
	text   string
}

type msgRequestCanvasSync struct{ userID string }

type msgVoteSkip struct{ userID string }

type msgVoteKick struct {
	userID   string
	targetID string
}

type msgWordSelectionTimeout struct{ turnID int }

type msgTurnTick struct{ turnID int }

type msgHintRevealed struct {
	turnID int
	hint   protocol.WordHint
}

func (msgJoin) isRoomMsg()                {}
func (msgLeave) isRoomMsg()               {}
func (msgDisconnect) isRoomMsg()          {}
func (msgReconnect) isRoomMsg()           {}
func (msgGraceExpired) isRoomMsg()        {}
func (msgUpdateSettings) isRoomMsg()      {}
func (msgStartGame) isRoomMsg()           {}
func (msgPlayerReady) isRoomMsg()         {}
func (msgSelectWord) isRoomMsg()          {}
func (msgDrawOp) isRoomMsg()              {}
func (msgCanvasClear) isRoomMsg()         {}
func (msgCanvasUndo) isRoomMsg()          {}
func (msgChatMessage) isRoomMsg()         {}
func (msgRequestCanvasSync) isRoomMsg()   {}
func (msgVoteSkip) isRoomMsg()            {}
func (msgVoteKick) isRoomMsg()            {}
func (msgWordSelectionTimeout) isRoomMsg() {}
func (msgTurnTick) isRoomMsg()            {}
func (msgHintRevealed) isRoomMsg()        {}
