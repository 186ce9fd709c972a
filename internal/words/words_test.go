package words

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChoicesReturnsThreeDistinctWords(t *testing.T) {
	s := New(42)

	choices, err := s.Choices(English, nil)

	require.NoError(t, err)
	assert.Len(t, choices, 3)
	seen := map[string]bool{}
	for _, w := range choices {
		assert.False(t, seen[w], "duplicate word %q", w)
		seen[w] = true
	}
}

func TestChoicesPrefersValidCustomList(t *testing.T) {
	s := New(1)
	custom := make([]string, 12)
	for i := range custom {
		custom[i] = "customword"
	}

	choices, err := s.Choices(English, custom)

	require.NoError(t, err)
	for _, w := range choices {
		assert.Equal(t, "customword", w)
	}
}

func TestChoicesRejectsShortCustomList(t *testing.T) {
	s := New(1)

	_, err := s.Choices(English, []string{"a", "b", "c"})

	assert.ErrorIs(t, err, ErrCustomListTooShort)
}

func TestValidateCustomListIgnoresEmptyEntries(t *testing.T) {
	list := make([]string, MinCustomWords)
	for i := range list {
		list[i] = "word"
	}
	list[0] = ""

	err := ValidateCustomList(list)

	assert.ErrorIs(t, err, ErrCustomListTooShort)
}
