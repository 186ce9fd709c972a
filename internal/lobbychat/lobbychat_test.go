package lobbychat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterMasksWholeWordTokens(t *testing.T) {
	f := NewFilter([]string{"darn"})

	assert.Equal(t, "that is **** annoying", f.Apply("that is darn annoying"))
	assert.Equal(t, "darnation stays", f.Apply("darnation stays"))
}

func TestPostTruncatesAndFilters(t *testing.T) {
	c := New(NewFilter([]string{"bad"}))

	msg := c.Post("u1", "this is bad", 1000)

	assert.Equal(t, "this is ***", msg.Text)
	assert.Equal(t, "chat", msg.Kind)
}

func TestAllReadyRequiresEveryPlayer(t *testing.T) {
	c := New(nil)
	c.SetReady("u1", true)

	assert.False(t, c.AllReady([]string{"u1", "u2"}))

	c.SetReady("u2", true)
	assert.True(t, c.AllReady([]string{"u1", "u2"}))
}

func TestClearResetsMessagesAndReadiness(t *testing.T) {
	c := New(nil)
	c.Post("u1", "hi", 0)
	c.SetReady("u1", true)

	c.Clear()

	assert.Empty(t, c.Messages())
	assert.False(t, c.IsReady("u1"))
}
