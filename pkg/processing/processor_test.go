//nolint:lll,funlen // readability
package processing

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing/laptime"
	"github.com/mpapenbr/racepace/pkg/processing/rider"
	"github.com/mpapenbr/racepace/pkg/roster"
)

const (
	fernandez = "37Red Bull GASGAS Tech3SPAAugustoFERNANDEZ14th"
	bagnaia   = "1Ducati Lenovo TeamITAFrancesco BAGNAIA1st"
	unknown   = "99Some TeamUSAJohn DOE20th"
	row1      = "1'40.262 1 36.532 26.017 25.143 285.8 12.570"
	row2      = "1'31.117 2 30.123 31.456 29.538 290.1 12.345"
	row3      = "1'32.001 3 30.001 1'01.456 29.538 290.123 12.345"
)

func sampleRoster() roster.Roster {
	return roster.New("Francesco BAGNAIA", "Augusto FERNANDEZ")
}

func boilerplate(prefix string, n int) []string {
	ret := make([]string, n)
	for i := range ret {
		ret[i] = prefix
	}
	return ret
}

// samplePages builds a two page report: page 0 has 8 head and 7 tail lines of
// boilerplate, page 1 has 2 head and 7 tail lines.
func samplePages() []string {
	page0 := append(boilerplate("MotoGP Race Analysis", 8),
		fernandez,
		row1+" "+row2, // merged rows
		row3,
		bagnaia,
		row1,
		row2,
		"unfinished",
	)
	page0 = append(page0, boilerplate("Fastest lap legend", 7)...)

	page1 := append(boilerplate("Lap time T1 T2 T3 Speed T4", 2),
		unknown,
		row3,
		"Runs=1",
		"Total laps=2",
		row2,
		"x",
	)
	page1 = append(page1, boilerplate("Page footer", 7)...)
	return []string{strings.Join(page0, "\n"), strings.Join(page1, "\n")}
}

func TestProcessorProcess(t *testing.T) {
	p := NewProcessor(WithRoster(sampleRoster()), WithWorkers(2))
	got, err := p.Process(context.Background(), samplePages())
	require.NoError(t, err)

	want := []model.PilotResult{
		{Name: "Augusto FERNANDEZ", Laps: []float64{100.262, 91.117, 92.001}},
		{Name: "Francesco BAGNAIA", Laps: []float64{100.262, 91.117}},
		{Name: model.NameNotFound, Laps: []float64{92.001, 91.117}},
	}
	assert.Equal(t, want, got)
}

func TestProcessorNormalizeKeepsPageOrder(t *testing.T) {
	pages := make([]string, 20)
	for i := range pages {
		pages[i] = strings.Repeat("x", i+1)
	}
	p := NewProcessor(WithWorkers(4))
	doc, err := p.Normalize(context.Background(), pages)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(pages, "\n"), doc)
}

func TestProcessorNormalizeCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewProcessor().Normalize(ctx, []string{"a", "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAggregateWithoutHeaders(t *testing.T) {
	got := Aggregate(strings.Join([]string{row1, row2, "unfinished"}, "\n"), sampleRoster())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAggregateBlockWithoutRows(t *testing.T) {
	got := Aggregate(fernandez+"\nRuns=1\n", sampleRoster())
	require.Len(t, got, 1)
	assert.Equal(t, "Augusto FERNANDEZ", got[0].Name)
	assert.Equal(t, []float64{}, got[0].Laps)
}

func TestProcessorWithMatcher(t *testing.T) {
	p := NewProcessor(
		WithRoster(roster.New("Augusto FERNANDES")),
		WithMatcher(rider.FuzzyMatcher{MaxDistance: 1}))
	got := p.Aggregate(fernandez + "\n" + row1)
	require.Len(t, got, 1)
	assert.Equal(t, "Augusto FERNANDES", got[0].Name)
}

func TestFormatTime(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{seconds: 91.117, want: "1:31.117"},
		{seconds: 0, want: "0:00.000"},
		{seconds: 5.007, want: "0:05.007"},
		{seconds: 59.9996, want: "1:00.000"},
		{seconds: 725.007, want: "12:05.007"},
		{seconds: -1.5, want: "-0:01.500"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTime(tt.seconds))
		})
	}
}

func TestFormatTimeInvertsConvert(t *testing.T) {
	tests := map[string]string{
		"1'31.117":  "1:31.117",
		"0'59.999":  "0:59.999",
		"2'00.000":  "2:00.000",
		"9'07.070":  "9:07.070",
		"59'59.999": "59:59.999",
	}
	for token, want := range tests {
		secs, err := laptime.ParseToken(token)
		require.NoError(t, err)
		assert.Equal(t, want, FormatTime(secs), token)
	}
}
