// internal/words/words.go
//
// Provides the word corpus for the game engine.
//
// Responsibilities:
//   - Load the corpus from a WORDS_FILE path or fall back to the embedded default.
//   - Normalize entries (trim + uppercase) and drop invalid or duplicate words.
//   - Hand the result to the store for seeding at startup.
//
// File format (tab separated, one entry per line, "#" starts a comment):
//
//	WORD	part_of_speech	definition
//
// Constraints:
//   • Words must be letters only; length is free (the secret decides it).
//   • The first occurrence of a word wins.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/robalobadob/wordduel/assets"
	"github.com/robalobadob/wordduel/internal/game"
)

// ErrEmpty is returned when no valid word could be loaded.
var ErrEmpty = errors.New("words: corpus is empty")

// Load reads the corpus from path, or the embedded default when path is empty.
func Load(path string) ([]game.Word, error) {
	if path == "" {
		return Parse(strings.NewReader(assets.WordsTSV))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open words file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads tab separated entries from r.
// Lines with only a word are accepted and get no metadata.
func Parse(r io.Reader) ([]game.Word, error) {
	var out []game.Word
	seen := make(map[string]struct{})
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		w := game.Word{Text: game.Normalize(fields[0])}
		if !isAlpha(w.Text) {
			continue
		}
		if _, dup := seen[w.Text]; dup {
			continue
		}
		if len(fields) > 1 {
			w.PartOfSpeech = strings.TrimSpace(fields[1])
		}
		if len(fields) > 2 {
			w.Definition = strings.TrimSpace(fields[2])
		}
		seen[w.Text] = struct{}{}
		out = append(out, w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

// isAlpha reports whether s is a non-empty run of letters.
func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
