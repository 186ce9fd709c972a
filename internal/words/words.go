// Package words implements the WordSource (C3): per-language word lists
// plus per-room custom lists for private rooms.
package words

import (
	"errors"
	"fmt"
	"math/rand"
)

// Language selects one of the built-in word lists.
type Language string

const (
	English Language = "english"
	Spanish Language = "spanish"
)

// MinCustomWords is the minimum size a custom word list must meet before it
// can override a room's built-in language list.
const MinCustomWords = 10

// ErrCustomListTooShort is returned when a caller supplies fewer than
// MinCustomWords entries.
var ErrCustomListTooShort = errors.New("words: custom word list must have at least 10 entries")

// Source supplies word choices for a room, preferring a custom list when one
// has been validated for that room.
type Source struct {
	rng     *rand.Rand
	builtin map[Language][]string
}

// New builds a Source seeded from seed, so turn-to-turn word selection is
// reproducible given the same seed sequence.
func New(seed int64) *Source {
	return &Source{
		rng:     rand.New(rand.NewSource(seed)),
		builtin: map[Language][]string{English: english, Spanish: spanish},
	}
}

// ValidateCustomList checks a candidate custom word list; it must have at
// least MinCustomWords non-empty entries.
func ValidateCustomList(list []string) error {
	count := 0
	for _, w := range list {
		if w != "" {
			count++
		}
	}
	if count < MinCustomWords {
		return ErrCustomListTooShort
	}
	return nil
}

// Choices returns exactly three distinct word choices. customWords, when
// non-empty and valid, overrides language entirely.
func (s *Source) Choices(language Language, customWords []string) ([]string, error) {
	pool := s.builtin[language]
	if len(customWords) > 0 {
		if err := ValidateCustomList(customWords); err != nil {
			return nil, err
		}
		pool = customWords
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("words: no word pool for language %q", language)
	}

	n := 3
	if len(pool) < n {
		n = len(pool)
	}

	indices := s.rng.Perm(len(pool))[:n]
	choices := make([]string, n)
	for i, idx := range indices {
		choices[i] = pool[idx]
	}
	return choices, nil
}
