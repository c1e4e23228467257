package lexer

// Shape describes a telemetry row:
//
//	laptime position sector{MinSectors,MaxSectors} speed sector
//
// A sector is either a lap time token or a decimal with three fractional
// digits. The speed is a decimal with SpeedMinFrac..SpeedMaxFrac fractional
// digits.
type Shape struct {
	Name         string
	MinSectors   int
	MaxSectors   int
	SpeedMinFrac int
	SpeedMaxFrac int
}

var (
	// Row is the signature of a single telemetry row as read by the extractor.
	Row = Shape{
		Name:         "row",
		MinSectors:   3,
		MaxSectors:   3,
		SpeedMinFrac: 1,
		SpeedMaxFrac: 3,
	}
	// MergedRow also accepts a fourth sector column before the speed.
	// Used to detect rows that were concatenated onto one line.
	MergedRow = Shape{
		Name:         "merged-row",
		MinSectors:   3,
		MaxSectors:   4,
		SpeedMinFrac: 1,
		SpeedMaxFrac: 3,
	}
)

// MatchAt reports how many tokens starting at toks[i] form a row of shape s.
// Sector counts are tried from MinSectors upwards so that a speed column
// carrying three decimals is not taken for a sector, which would swallow the
// lap time of a following row.
func (s Shape) MatchAt(toks []Token, i int) (int, bool) {
	if i+1 >= len(toks) || toks[i].Kind != LapTime || toks[i+1].Kind != Integer {
		return 0, false
	}
	for n := s.MinSectors; n <= s.MaxSectors; n++ {
		if s.matchTail(toks, i+2, n) {
			// laptime + position + sectors + speed + closing sector
			return 2 + n + 2, true
		}
	}
	return 0, false
}

func (s Shape) matchTail(toks []Token, start, sectors int) bool {
	if start+sectors+2 > len(toks) {
		return false
	}
	for j := start; j < start+sectors; j++ {
		if !IsSector(toks[j]) {
			return false
		}
	}
	speed := toks[start+sectors]
	if speed.Kind != Decimal || speed.Frac < s.SpeedMinFrac || speed.Frac > s.SpeedMaxFrac {
		return false
	}
	return IsSector(toks[start+sectors+1])
}

// FindAll returns the token indexes where non-overlapping rows of shape s
// start, scanning left to right.
func (s Shape) FindAll(toks []Token) []int {
	var ret []int
	for i := 0; i < len(toks); {
		if n, ok := s.MatchAt(toks, i); ok {
			ret = append(ret, i)
			i += n
			continue
		}
		i++
	}
	return ret
}

func IsSector(t Token) bool {
	return t.Kind == LapTime || (t.Kind == Decimal && t.Frac == 3)
}
