// Package lexer splits lines of the timing sheet into classified tokens.
// Row detection works on token sequences (see Shape) instead of one large
// pattern, so each column rule can be checked on its own.
package lexer

import (
	"strings"
	"unicode"
)

type Kind int

const (
	Word Kind = iota
	Integer
	Decimal
	LapTime
)

func (k Kind) String() string {
	switch k {
	case Integer:
		return "integer"
	case Decimal:
		return "decimal"
	case LapTime:
		return "laptime"
	default:
		return "word"
	}
}

type Token struct {
	Kind   Kind
	Text   string
	Offset int // byte offset in the tokenized line
	Frac   int // number of fractional digits (Decimal and LapTime)
}

// Tokenize splits line at whitespace and classifies each run. A run holding
// a lap time glued to a preceding value (12.5701'31.117) is split in front
// of the lap time.
func Tokenize(line string) []Token {
	var ret []Token
	start := -1
	for i, r := range line {
		if unicode.IsSpace(r) {
			if start >= 0 {
				ret = appendRun(ret, line[start:i], start)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		ret = appendRun(ret, line[start:], start)
	}
	return ret
}

func appendRun(toks []Token, run string, offset int) []Token {
	for run != "" {
		s, e, ok := gluedLapTime(run)
		if !ok {
			return append(toks, classify(run, offset))
		}
		if s > 0 {
			toks = append(toks, classify(run[:s], offset))
		}
		toks = append(toks, classify(run[s:e], offset+s))
		run = run[e:]
		offset += e
	}
	return toks
}

// gluedLapTime locates the lap time to split run at. The minutes take one
// or two digits, so the split prefers an empty prefix, then a prefix that is
// a sector (three decimals), then any decimal. Runs without such a split are
// left alone.
func gluedLapTime(run string) (start, end int, ok bool) {
	a := strings.IndexByte(run, '\'')
	if a < 1 || a+7 > len(run) {
		return 0, 0, false
	}
	end = a + 7
	var candidates []int
	for _, s := range []int{a - 1, a - 2} {
		if s >= 0 && isLapTime(run[s:end]) {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return 0, 0, false
	}
	for _, s := range candidates {
		if s == 0 {
			return s, end, end < len(run)
		}
	}
	for _, s := range candidates {
		if IsSector(classify(run[:s], 0)) {
			return s, end, true
		}
	}
	for _, s := range candidates {
		if classify(run[:s], 0).Kind == Decimal {
			return s, end, true
		}
	}
	return 0, 0, false
}

func classify(text string, offset int) Token {
	t := Token{Kind: Word, Text: text, Offset: offset}
	if isLapTime(text) {
		t.Kind = LapTime
		t.Frac = 3
		return t
	}
	intPart, fracPart, hasDot := strings.Cut(text, ".")
	if !isDigits(intPart) {
		return t
	}
	if !hasDot {
		t.Kind = Integer
		return t
	}
	if isDigits(fracPart) {
		t.Kind = Decimal
		t.Frac = len(fracPart)
	}
	return t
}

// isLapTime checks the D{1,2}'DD.DDD form.
func isLapTime(s string) bool {
	minutes, rest, ok := strings.Cut(s, "'")
	if !ok || len(minutes) < 1 || len(minutes) > 2 || !isDigits(minutes) {
		return false
	}
	secs, millis, ok := strings.Cut(rest, ".")
	return ok && len(secs) == 2 && isDigits(secs) && len(millis) == 3 && isDigits(millis)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
