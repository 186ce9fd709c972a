// Package guess implements the GuessEvaluator (C8): normalizes a chat line
// against the secret word and classifies it as correct, close, or chat.
//
// No library in the reference corpus implements Levenshtein distance or a
// normalized-diff classifier, so both are hand-rolled here on the standard
// library; diacritics stripping reuses golang.org/x/text, which appears
// throughout the pack as a transitive text-processing dependency.
package guess

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Classification is the outcome of evaluating one candidate guess.
type Classification string

const (
	Correct Classification = "correct"
	Close   Classification = "close"
	Chat    Classification = "chat"
)

var diacriticsStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Normalize lowercases, trims, collapses internal whitespace, strips
// diacritics, and removes all non-alphanumeric characters.
func Normalize(s string) string {
	stripped, _, err := transform.String(diacriticsStripper, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	lastWasSpace := false
	for _, r := range strings.ToLower(stripped) {
		switch {
		case unicode.IsSpace(r):
			lastWasSpace = true
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = false
			b.WriteRune(r)
		default:
			// punctuation is dropped entirely, not replaced with a space
		}
	}
	return strings.TrimSpace(b.String())
}

// Evaluate classifies candidate against target (both un-normalized). It
// keeps no record of earlier guesses; callers enforce the once-per-player
// invariant.
func Evaluate(candidate, target string) Classification {
	normCandidate := Normalize(candidate)
	normTarget := Normalize(target)

	if normCandidate == normTarget {
		return Correct
	}

	if len([]rune(normTarget)) >= 4 && levenshtein(normCandidate, normTarget) == 1 {
		return Close
	}

	return Chat
}

// levenshtein computes the edit distance between a and b using the
// classic two-row dynamic programming table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			deletion := prev[j] + 1
			insertion := curr[j-1] + 1
			substitution := prev[j-1] + cost
			curr[j] = min3(deletion, insertion, substitution)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
