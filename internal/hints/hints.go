// Package hints implements the HintScheduler (C10): deterministic,
// turn-seeded letter reveal scheduling over the drawing phase.
package hints

import (
	"math/rand"
	"time"
	"unicode"

	"github.com/brushline/doodleserver/internal/clock"
	"github.com/brushline/doodleserver/internal/protocol"
)

// Scheduler reveals H unrevealed letter positions of word at times
// T*k/(H+1) remaining on a turn of total length T, for k = 1..H.
type Scheduler struct {
	clk      clock.Clock
	word     []rune
	revealed map[int]bool
	rng      *rand.Rand
	timers   []clock.Timer
}

// New builds a Scheduler for word, seeded by seed (derived from the turn id
// so reveal order is reproducible given the same turn).
func New(clk clock.Clock, word string, seed int64) *Scheduler {
	return &Scheduler{
		clk:      clk,
		word:     []rune(word),
		revealed: make(map[int]bool),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Schedule arms H reveals for a turn of totalMs length, invoking onReveal
// with each newly revealed WordHint as its deadline fires.
func (s *Scheduler) Schedule(hintsCount int, totalMs int64, onReveal func(protocol.WordHint)) {
	for k := 1; k <= hintsCount; k++ {
		remaining := time.Duration(totalMs*int64(k)/int64(hintsCount+1)) * time.Millisecond
		delay := time.Duration(totalMs)*time.Millisecond - remaining
		if delay < 0 {
			delay = 0
		}
		timer := s.clk.AfterFunc(delay, func() {
			if hint, ok := s.reveal(); ok {
				onReveal(hint)
			}
		})
		s.timers = append(s.timers, timer)
	}
}

// reveal selects a random unrevealed, non-whitespace/punctuation letter
// position and marks it (and any position sharing its glyph) revealed.
func (s *Scheduler) reveal() (protocol.WordHint, bool) {
	var candidates []int
	for i, r := range s.word {
		if !s.revealed[i] && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		return protocol.WordHint{}, false
	}

	idx := candidates[s.rng.Intn(len(candidates))]
	letter := s.word[idx]
	for i, r := range s.word {
		if r == letter {
			s.revealed[i] = true
		}
	}
	return protocol.WordHint{Index: idx, Letter: string(letter)}, true
}

// Pattern returns the current word_pattern: underscores for unrevealed
// letters, the original character preserved for whitespace/punctuation and
// already-revealed positions.
func (s *Scheduler) Pattern() string {
	out := make([]rune, len(s.word))
	for i, r := range s.word {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			out[i] = r
		case s.revealed[i]:
			out[i] = r
		default:
			out[i] = '_'
		}
	}
	return string(out)
}

// Cancel stops every unfired reveal, called on turn-end exit.
func (s *Scheduler) Cancel() {
	for _, t := range s.timers {
		t.Stop()
	}
}
