// Package segment slices the normalized report into one block per rider.
package segment

import (
	"regexp"
	"strings"

	"github.com/mpapenbr/racepace/pkg/model"
)

// UnfinishedMarker ends the block of a rider who retired during a lap.
const UnfinishedMarker = "unfinished"

// riderHeader matches e.g. "37Red Bull GASGAS Tech3SPAAugustoFERNANDEZ14th":
// number, team, nationality, rider name and finishing rank. Tokens may adjoin
// without blanks but the header never crosses a line break.
// The rider name class includes the range ' to Ñ, so digits inside names or
// teams ("Tech3") are accepted.
var riderHeader = regexp.MustCompile(
	`(\d{1,3})[ \t]*` +
		`([A-Za-z \t&.'-]+)[ \t]*` +
		`([A-Z]{2,4})[ \t]*` +
		`([A-Za-z \t&.'-Ññ]+)[ \t]*` +
		`(\d{1,2}(?:st|nd|rd|th))`)

// HeaderOffsets returns the start offsets of all rider headers in document.
func HeaderOffsets(document string) []int {
	matches := riderHeader.FindAllStringIndex(document, -1)
	ret := make([]int, len(matches))
	for i, m := range matches {
		ret[i] = m[0]
	}
	return ret
}

// MarkerOffsets returns the offsets of all unfinished markers in document.
func MarkerOffsets(document string) []int {
	var ret []int
	for from := 0; ; {
		idx := strings.Index(document[from:], UnfinishedMarker)
		if idx < 0 {
			return ret
		}
		ret = append(ret, from+idx)
		from += idx + len(UnfinishedMarker)
	}
}

// Segment returns one block per rider header in document order.
// A block ends at the next header or at the first unfinished marker found
// before it, whichever comes first. The last block extends to the end of the
// document unless a marker follows it.
func Segment(document string) []model.PilotBlock {
	headers := HeaderOffsets(document)
	markers := MarkerOffsets(document)
	ret := make([]model.PilotBlock, 0, len(headers))
	m := 0
	for i, start := range headers {
		end := len(document)
		if i+1 < len(headers) {
			end = headers[i+1]
		}
		for m < len(markers) && markers[m] <= start {
			m++
		}
		if m < len(markers) && markers[m] < end {
			end = markers[m]
		}
		ret = append(ret, model.PilotBlock{
			Start: start,
			End:   end,
			Text:  document[start:end],
		})
	}
	return ret
}
