//nolint:lll,funlen // readability
package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fernandez = "37Red Bull GASGAS Tech3SPAAugustoFERNANDEZ14th"
	bagnaia   = "1Ducati Lenovo TeamITAFrancesco BAGNAIA1st"
	marquez   = "93Repsol Honda TeamSPAMarc MARQUEZ22nd"
	row1      = "1'40.262 1 36.532 26.017 25.143 285.8 12.570"
	row2      = "1'31.117 2 30.123 31.456 29.538 290.1 12.345"
)

func doc(lines ...string) string {
	return strings.Join(lines, "\n")
}

func TestHeaderOffsets(t *testing.T) {
	tests := []struct {
		name     string
		document string
		want     []int
	}{
		{name: "empty", document: "", want: []int{}},
		{name: "rows only", document: doc(row1, row2, "unfinished"), want: []int{}},
		{name: "single", document: fernandez, want: []int{0}},
		{name: "with blanks", document: "37 Red Bull GASGAS Tech3 SPA Augusto FERNANDEZ 14th", want: []int{0}},
		{name: "two", document: doc(fernandez, row1, bagnaia), want: []int{0, len(fernandez) + 1 + len(row1) + 1}},
		{name: "accented name", document: "5Gresini Racing MotoGPFRAJohann ZARCOÑ3rd", want: []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HeaderOffsets(tt.document))
		})
	}
}

func TestMarkerOffsets(t *testing.T) {
	assert.Nil(t, MarkerOffsets("no marker here"))
	assert.Equal(t, []int{0, 11}, MarkerOffsets("unfinished\nunfinished"))
	assert.Nil(t, MarkerOffsets("Unfinished"), "marker is case sensitive")
}

func TestSegmentNoHeaders(t *testing.T) {
	got := Segment(doc("Runs=1", row1, row2, "unfinished"))
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSegmentBlocks(t *testing.T) {
	document := doc(
		"Race analysis",
		fernandez, row1, row2,
		bagnaia, row1, "unfinished", "boilerplate",
		marquez, row2,
	)
	blocks := Segment(document)
	require.Len(t, blocks, 3)

	assert.Equal(t, doc(fernandez, row1, row2)+"\n", blocks[0].Text)
	assert.Equal(t, strings.Index(document, bagnaia), blocks[0].End)

	// ends at the marker, not at the next header
	assert.Equal(t, strings.Index(document, "unfinished"), blocks[1].End)
	assert.Equal(t, doc(bagnaia, row1)+"\n", blocks[1].Text)

	assert.Equal(t, len(document), blocks[2].End)
	assert.Equal(t, doc(marquez, row2), blocks[2].Text)
}

func TestSegmentMarkerBeforeFirstHeaderIgnored(t *testing.T) {
	document := doc("unfinished", fernandez, row1)
	blocks := Segment(document)
	require.Len(t, blocks, 1)
	assert.Equal(t, len(document), blocks[0].End)
}

func TestSegmentMarkerAfterLastHeader(t *testing.T) {
	document := doc(fernandez, row1, "unfinished", "unfinished", row2)
	blocks := Segment(document)
	require.Len(t, blocks, 1)
	assert.Equal(t, strings.Index(document, "unfinished"), blocks[0].End)
}

func TestSegmentOrderedAndDisjoint(t *testing.T) {
	documents := []string{
		"",
		doc(fernandez),
		doc(fernandez, bagnaia, marquez),
		doc(fernandez, row1, "unfinished", bagnaia, "unfinished", marquez, "unfinished"),
		doc("x", "unfinished", fernandez, "unfinished", row1, bagnaia, row2, row1),
	}
	for _, d := range documents {
		blocks := Segment(d)
		for i := range blocks {
			assert.LessOrEqual(t, blocks[i].Start, blocks[i].End)
			assert.Equal(t, d[blocks[i].Start:blocks[i].End], blocks[i].Text)
			if i > 0 {
				assert.Greater(t, blocks[i].Start, blocks[i-1].Start)
				assert.LessOrEqual(t, blocks[i-1].End, blocks[i].Start)
			}
		}
	}
}
