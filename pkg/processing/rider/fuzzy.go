package rider

import (
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/mpapenbr/racepace/pkg/roster"
)

// DefaultMaxDistance is used by FuzzyMatcher if MaxDistance is not set.
const DefaultMaxDistance = 2

// FuzzyMatcher accepts the roster entry with the smallest edit distance to
// any part of the line (case insensitive, without whitespace). Entries with
// equal distance are resolved by roster order.
type FuzzyMatcher struct {
	MaxDistance int
}

func (f FuzzyMatcher) Match(firstLine string, r roster.Roster) (string, bool) {
	maxDist := f.MaxDistance
	if maxDist <= 0 {
		maxDist = DefaultMaxDistance
	}
	line := []rune(strings.ToLower(removeWhitespace(firstLine)))
	best, bestDist := -1, maxDist+1
	for i := 0; i < r.Len(); i++ {
		candidate := strings.ToLower(strings.ReplaceAll(r.At(i), " ", ""))
		if candidate == "" {
			continue
		}
		if d := windowDistance(line, candidate); d < bestDist {
			best, bestDist = i, d
			if d == 0 {
				break
			}
		}
	}
	if best < 0 {
		return "", false
	}
	return r.At(best), true
}

// windowDistance is the smallest distance between candidate and any part of
// line that is at most one rune shorter or longer than candidate.
func windowDistance(line []rune, candidate string) int {
	n := len([]rune(candidate))
	best := levenshtein.ComputeDistance(string(line), candidate)
	for size := n - 1; size <= n+1; size++ {
		if size <= 0 || size > len(line) {
			continue
		}
		for start := 0; start+size <= len(line); start++ {
			if d := levenshtein.ComputeDistance(string(line[start:start+size]), candidate); d < best {
				best = d
			}
		}
	}
	return best
}
