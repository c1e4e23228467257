//nolint:lll,funlen // readability
package rider

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/roster"
)

const fernandezHeader = "37Red Bull GASGAS Tech3SPAAugustoFERNANDEZ14th"

func sampleRoster() roster.Roster {
	return roster.New(
		"Francesco BAGNAIA",
		"Augusto FERNANDEZ",
		"Raul FERNANDEZ",
		"Marc MARQUEZ",
		"Alex MARQUEZ",
		"Fabio DI GIANNANTONIO",
	)
}

func TestIdentify(t *testing.T) {
	tests := []struct {
		name   string
		block  string
		roster roster.Roster
		want   string
	}{
		{name: "example header", block: fernandezHeader + "\n1'31.117 2 30.123 31.456 29.538 290.1 12.345", roster: sampleRoster(), want: "Augusto FERNANDEZ"},
		{name: "blanks in header", block: "93 Repsol Honda Team SPA Marc MARQUEZ 2nd", roster: sampleRoster(), want: "Marc MARQUEZ"},
		{name: "only first line used", block: "1Ducati Lenovo TeamITA 1st\nFrancesco BAGNAIA", roster: sampleRoster(), want: model.NameNotFound},
		{name: "empty roster", block: fernandezHeader, roster: roster.New(), want: model.NameNotFound},
		{name: "empty block", block: "", roster: sampleRoster(), want: model.NameNotFound},
		{name: "multi word surname", block: "49Gresini Racing MotoGPITAFabioDI GIANNANTONIO4th", roster: sampleRoster(), want: "Fabio DI GIANNANTONIO"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Identify(tt.block, tt.roster))
		})
	}
}

func TestSubstringMatcherFirstMatchWins(t *testing.T) {
	// "Marc MARQUEZ" is listed first and is contained in the header as well
	r := roster.New("Marc MARQUEZ", "Marc MARQUEZZ")
	assert.Equal(t, "Marc MARQUEZ", Identify("93TeamSPAMarcMARQUEZZ2nd", r))

	r = roster.New("Marc MARQUEZZ", "Marc MARQUEZ")
	assert.Equal(t, "Marc MARQUEZZ", Identify("93TeamSPAMarcMARQUEZZ2nd", r))
}

func TestWords(t *testing.T) {
	assert.Equal(t,
		[]string{"37", "Red", "Bull", "GASGAS", "Tech", "3", "SPA", "Augusto", "FERNANDEZ", "14", "th"},
		Words(fernandezHeader))
	assert.Equal(t, []string{"Augusto", "FERNANDEZ"}, Words("Augusto FERNANDEZ"))
	assert.Equal(t, []string{"Raúl", "FERNÁNDEZ"}, Words("Raúl FERNÁNDEZ"))
	assert.Nil(t, Words(" - "))
}

func TestExactTokenMatcher(t *testing.T) {
	r := roster.New("Marc MARQUEZ", "Augusto FERNANDEZ")
	got, ok := ExactTokenMatcher{}.Match(fernandezHeader, r)
	assert.True(t, ok)
	assert.Equal(t, "Augusto FERNANDEZ", got)

	// a substring of a token is not enough
	_, ok = ExactTokenMatcher{}.Match("10TeamFRAAugustoFERNANDEZZ1st", r)
	assert.False(t, ok)
}

func TestFuzzyMatcher(t *testing.T) {
	r := sampleRoster()
	tests := []struct {
		name   string
		line   string
		want   string
		wantOk bool
	}{
		{name: "exact", line: fernandezHeader, want: "Augusto FERNANDEZ", wantOk: true},
		{name: "case differs", line: "37Red Bull GASGAS Tech3SPAAugustoFernandez14th", want: "Augusto FERNANDEZ", wantOk: true},
		{name: "one typo", line: "37Red Bull GASGAS Tech3SPAAugustoFERNANDES14th", want: "Augusto FERNANDEZ", wantOk: true},
		{name: "missing char", line: "1Ducati Lenovo TeamITAFrancescoBAGNAI1st", want: "Francesco BAGNAIA", wantOk: true},
		{name: "unknown", line: "99Some TeamUSAJohnDOE1st", wantOk: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FuzzyMatcher{}.Match(tt.line, r)
			assert.Equal(t, tt.wantOk, ok)
			if tt.wantOk {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNewMatcher(t *testing.T) {
	for _, kind := range []string{"", KindSubstring, KindToken, KindFuzzy} {
		m, err := NewMatcher(kind, 1)
		assert.NoError(t, err)
		assert.NotNil(t, m)
	}
	_, err := NewMatcher("soundex", 0)
	assert.Error(t, err)
}
