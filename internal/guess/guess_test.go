package guess

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStripsDiacriticsAndPunctuation(t *testing.T) {
	assert.Equal(t, "cafe", Normalize("Café!"))
	assert.Equal(t, "hello world", Normalize("  Hello,   World.  "))
}

func TestEvaluateExactMatchIsCorrect(t *testing.T) {
	assert.Equal(t, Correct, Evaluate("Cafe", "café"))
}

func TestEvaluateOneEditAwayIsClose(t *testing.T) {
	assert.Equal(t, Close, Evaluate("umbrela", "umbrella"))
}

func TestEvaluateShortWordNeverClose(t *testing.T) {
	// "cat" has length 3, below the close-guess length floor of 4.
	assert.Equal(t, Chat, Evaluate("cap", "cat"))
}

func TestEvaluateUnrelatedTextIsChat(t *testing.T) {
	assert.Equal(t, Chat, Evaluate("good luck everyone", "dragon"))
}

func TestLevenshteinBasic(t *testing.T) {
	assert.Equal(t, 1, levenshtein("cat", "cats"))
	assert.Equal(t, 0, levenshtein("same", "same"))
	assert.Equal(t, 3, levenshtein("", "abc"))
}
