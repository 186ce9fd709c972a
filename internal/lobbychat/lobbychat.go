// Package lobbychat implements LobbyChat (C12): pre-game chat and
// readiness tracking with a server-side content filter.
package lobbychat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/brushline/doodleserver/internal/protocol"
)

// MaxTextCodePoints bounds a single chat line.
const MaxTextCodePoints = 200

// Filter replaces matched whole-word tokens with asterisks of equal length.
// The blocklist is injected data, per spec's treatment of the profanity
// list as an external collaborator.
type Filter struct {
	pattern *regexp.Regexp
}

// NewFilter compiles a word-boundary-matching filter over blocklist.
func NewFilter(blocklist []string) *Filter {
	if len(blocklist) == 0 {
		return &Filter{}
	}
	escaped := make([]string, len(blocklist))
	for i, w := range blocklist {
		escaped[i] = regexp.QuoteMeta(w)
	}
	pattern := regexp.MustCompile(`(?i)\b(` + strings.Join(escaped, "|") + `)\b`)
	return &Filter{pattern: pattern}
}

// Apply masks every matched token in text.
func (f *Filter) Apply(text string) string {
	if f == nil || f.pattern == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return strings.Repeat("*", utf8.RuneCountInString(match))
	})
}

// Chat holds the pre-game message list and readiness set for one room.
type Chat struct {
	filter   *Filter
	messages []protocol.LobbyMessage
	ready    map[string]bool
	nextID   int
}

// New builds a Chat using filter to mask chat text.
func New(filter *Filter) *Chat {
	return &Chat{filter: filter, ready: make(map[string]bool)}
}

// Post appends a chat message from senderUserID, truncating to
// MaxTextCodePoints and applying the content filter. nowMs is the caller's
// current clock reading in epoch milliseconds.
func (c *Chat) Post(senderUserID, text string, nowMs int64) protocol.LobbyMessage {
	runes := []rune(text)
	if len(runes) > MaxTextCodePoints {
		runes = runes[:MaxTextCodePoints]
	}
	filtered := c.filter.Apply(string(runes))

	c.nextID++
	msg := protocol.LobbyMessage{
		ID:           fmt.Sprintf("lm-%d", c.nextID),
		SenderUserID: senderUserID,
		Kind:         "chat",
		Text:         filtered,
		TsMs:         nowMs,
	}
	c.messages = append(c.messages, msg)
	return msg
}

// System appends a system message (join/leave/ready/unready/settings-change).
func (c *Chat) System(text string, nowMs int64) protocol.LobbyMessage {
	c.nextID++
	msg := protocol.LobbyMessage{
		ID:   fmt.Sprintf("lm-%d", c.nextID),
		Kind: "system",
		Text: text,
		TsMs: nowMs,
	}
	c.messages = append(c.messages, msg)
	return msg
}

// SetReady updates userID's readiness flag.
func (c *Chat) SetReady(userID string, ready bool) {
	c.ready[userID] = ready
}

// IsReady reports userID's current readiness.
func (c *Chat) IsReady(userID string) bool {
	return c.ready[userID]
}

// AllReady reports whether every user in userIDs is ready. An empty room is
// never "all ready".
func (c *Chat) AllReady(userIDs []string) bool {
	if len(userIDs) == 0 {
		return false
	}
	for _, id := range userIDs {
		if !c.ready[id] {
			return false
		}
	}
	return true
}

// Messages returns the full buffered message list.
func (c *Chat) Messages() []protocol.LobbyMessage {
	return c.messages
}

// Clear empties both the message list and readiness set, called when the
// room becomes empty.
func (c *Chat) Clear() {
	c.messages = nil
	c.ready = make(map[string]bool)
}

// RemovePlayer drops userID's readiness entry, called on leave.
func (c *Chat) RemovePlayer(userID string) {
	delete(c.ready, userID)
}
