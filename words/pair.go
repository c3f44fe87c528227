// Package words supplies themed word pairs for Word Wolf.
//
// A Service maps a theme to one Pair. Generated batches are cached per theme
// and consumed one pair at a time; when generation is unavailable or returns
// anything that fails validation, a pair from the fixed fallback pool is used
// instead.
package words

import (
	"errors"
	"strings"
	"unicode/utf8"
)

const (
	// BatchSize is the number of pairs requested from a generator per theme.
	BatchSize = 10

	// MaxThemeLength is the longest accepted theme, in characters.
	MaxThemeLength = 20
)

var (
	ErrInvalidTheme = errors.New("theme must be 1-20 characters")
	ErrEmptyWord    = errors.New("word pair contains an empty word")
	ErrSameWords    = errors.New("word pair words must differ")
)

// Pair is the citizen word and the wolf word for one game.
type Pair struct {
	CitizenWord string `json:"citizenWord"`
	WolfWord    string `json:"wolfWord"`
}

// Validate reports whether both words are present and distinct.
func (p Pair) Validate() error {
	if strings.TrimSpace(p.CitizenWord) == "" || strings.TrimSpace(p.WolfWord) == "" {
		return ErrEmptyWord
	}
	if strings.TrimSpace(p.CitizenWord) == strings.TrimSpace(p.WolfWord) {
		return ErrSameWords
	}
	return nil
}

func (p Pair) trimmed() Pair {
	return Pair{
		CitizenWord: strings.TrimSpace(p.CitizenWord),
		WolfWord:    strings.TrimSpace(p.WolfWord),
	}
}

// NormalizeTheme trims the theme and checks its length.
func NormalizeTheme(theme string) (string, error) {
	theme = strings.TrimSpace(theme)
	if theme == "" || utf8.RuneCountInString(theme) > MaxThemeLength {
		return "", ErrInvalidTheme
	}
	return theme, nil
}
