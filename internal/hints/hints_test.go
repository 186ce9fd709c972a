package hints

import (
	"testing"
	"time"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/protocol"
	"github.com/stretchr/testify/assert"
)

func TestPatternStartsFullyHidden(t *testing.T) {
	s := New(clock.NewFake(time.Unix(0, 0)), "cat nap", 1)

	assert.Equal(t, "___ ___", s.Pattern())
}

func TestScheduleFiresHintsAtExpectedOffsets(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	s := New(fake, "dragon", 7)

	var revealed []protocol.WordHint
	s.Schedule(2, 60000, func(h protocol.WordHint) { revealed = append(revealed, h) })

	fake.Advance(60 * time.Second)

	assert.Len(t, revealed, 2)
	assert.NotEqual(t, "______", s.Pattern())
}

func TestCancelPreventsFurtherReveals(t *testing.T) {
	fake := clock.NewFake(time.Unix(0, 0))
	s := New(fake, "dragon", 7)

	var revealed []protocol.WordHint
	s.Schedule(2, 60000, func(h protocol.WordHint) { revealed = append(revealed, h) })
	s.Cancel()

	fake.Advance(60 * time.Second)

	assert.Empty(t, revealed)
}
