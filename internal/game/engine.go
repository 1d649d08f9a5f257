// internal/game/engine.go
//
// Guess evaluation for wordduel.
// Responsibilities:
//   - Normalize guesses and secrets (trim + uppercase).
//   - Score guesses using the classic two-pass Wordle algorithm.
//   - Report wins and streaks over outcome histories.
//
// Words may be any length; the secret decides how long a guess must be.
package game

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize trims surrounding whitespace and uppercases s.
func Normalize(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Score compares guess against secret and returns one Mark per letter.
//
// Pass 1:
//   - Mark exact matches as correct.
//   - Count remaining (non-correct) secret letters.
//
// Pass 2:
//   - For each non-correct guess letter: if there is remaining count for that
//     letter, mark present and decrement the count; otherwise mark absent.
//
// Duplicate letters are therefore credited at most as many times as they
// occur in the secret, and exact matches always win over present credit.
func Score(secret, guess string) ([]Mark, error) {
	s := []rune(Normalize(secret))
	g := []rune(Normalize(guess))
	if len(s) != len(g) {
		return nil, ErrLengthMismatch
	}

	res := make([]Mark, len(g))
	counts := make(map[rune]int, len(s))

	// First pass: correct positions + counts for the rest of the secret.
	for i := range s {
		if g[i] == s[i] {
			res[i] = MarkCorrect
		} else {
			counts[s[i]]++
		}
	}

	// Second pass: present/absent for non-correct tiles.
	for i := range g {
		if res[i] == MarkCorrect {
			continue
		}
		if counts[g[i]] > 0 {
			res[i] = MarkPresent
			counts[g[i]]--
		} else {
			res[i] = MarkAbsent
		}
	}
	return res, nil
}

// Solved returns true if every mark is correct.
func Solved(marks []Mark) bool {
	if len(marks) == 0 {
		return false
	}
	for _, m := range marks {
		if m != MarkCorrect {
			return false
		}
	}
	return true
}

// CheckGuess validates a normalized guess against the secret length.
func CheckGuess(guess string, secretLen int) error {
	if utf8.RuneCountInString(guess) != secretLen {
		return ErrLengthMismatch
	}
	for _, r := range guess {
		if !unicode.IsLetter(r) {
			return ErrInvalidGuess
		}
	}
	return nil
}

// Streak counts the leading run of wins in outcomes ordered most recent first.
func Streak(outcomes []Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o != OutcomeWon {
			break
		}
		n++
	}
	return n
}
