// Package rider resolves the rider of a block by matching the block header
// against the roster.
package rider

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/roster"
)

// Matcher finds the roster entry mentioned in the first line of a block.
type Matcher interface {
	Match(firstLine string, r roster.Roster) (string, bool)
}

const (
	KindSubstring = "substring"
	KindToken     = "token"
	KindFuzzy     = "fuzzy"
)

// NewMatcher creates a matcher by kind. maxDistance is only used by the fuzzy
// matcher.
func NewMatcher(kind string, maxDistance int) (Matcher, error) {
	switch kind {
	case KindSubstring, "":
		return SubstringMatcher{}, nil
	case KindToken:
		return ExactTokenMatcher{}, nil
	case KindFuzzy:
		return FuzzyMatcher{MaxDistance: maxDistance}, nil
	default:
		return nil, fmt.Errorf("unknown matcher kind %q", kind)
	}
}

// Identify uses the SubstringMatcher.
func Identify(blockText string, r roster.Roster) string {
	return IdentifyWith(SubstringMatcher{}, blockText, r)
}

// IdentifyWith returns the roster name found in the first line of blockText
// or model.NameNotFound.
func IdentifyWith(m Matcher, blockText string, r roster.Roster) string {
	if name, ok := m.Match(FirstLine(blockText), r); ok {
		return name
	}
	return model.NameNotFound
}

func FirstLine(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return line
}

// SubstringMatcher compares with all whitespace removed from the line and
// all blanks removed from the candidate. The first roster entry contained in
// the line wins, so a name that is part of another name or of a team name
// may shadow later entries.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(firstLine string, r roster.Roster) (string, bool) {
	line := removeWhitespace(firstLine)
	for i := 0; i < r.Len(); i++ {
		candidate := strings.ReplaceAll(r.At(i), " ", "")
		if candidate != "" && strings.Contains(line, candidate) {
			return r.At(i), true
		}
	}
	return "", false
}

// ExactTokenMatcher splits the line into words at blanks, punctuation,
// letter/digit changes and case changes ("Tech3SPAAugustoFERNANDEZ14th" ->
// Tech 3 SPA Augusto FERNANDEZ 14 th). A roster entry matches if its words
// appear as a contiguous sequence.
type ExactTokenMatcher struct{}

func (ExactTokenMatcher) Match(firstLine string, r roster.Roster) (string, bool) {
	words := Words(firstLine)
	for i := 0; i < r.Len(); i++ {
		if containsSequence(words, Words(r.At(i))) {
			return r.At(i), true
		}
	}
	return "", false
}

func containsSequence(words, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(words) {
		return false
	}
outer:
	for i := 0; i+len(seq) <= len(words); i++ {
		for j := range seq {
			if words[i+j] != seq[j] {
				continue outer
			}
		}
		return true
	}
	return false
}

// Words splits s at non alphanumeric runes and at case or letter/digit
// transitions. An uppercase run followed by a lowercase rune gives its last
// rune to the next word ("SPAAugusto" -> SPA Augusto).
func Words(s string) []string {
	var ret []string
	runes := []rune(s)
	start := -1
	flush := func(end int) {
		if start >= 0 && end > start {
			ret = append(ret, string(runes[start:end]))
		}
		start = -1
	}
	for i, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			flush(i)
			continue
		}
		if start < 0 {
			start = i
			continue
		}
		prev := runes[i-1]
		switch {
		case unicode.IsDigit(r) != unicode.IsDigit(prev):
			flush(i)
			start = i
		case unicode.IsUpper(r) && unicode.IsLower(prev):
			flush(i)
			start = i
		case unicode.IsLower(r) && unicode.IsUpper(prev) && i-1 > start:
			flush(i - 1)
			start = i - 1
		}
	}
	flush(len(runes))
	return ret
}

func removeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
