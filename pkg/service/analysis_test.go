package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing"
	"github.com/mpapenbr/racepace/pkg/roster"
	"github.com/mpapenbr/racepace/pkg/source"
	"github.com/mpapenbr/racepace/pkg/source/pdftext"
)

type staticLoader struct {
	data []byte
	err  error
}

func (s staticLoader) Load(ctx context.Context, key model.EventKey) ([]byte, error) {
	return s.data, s.err
}

// splitPages treats the document as pages separated by form feeds.
func splitPages(data []byte) ([]string, error) {
	return strings.Split(string(data), "\f"), nil
}

const document = "37Red Bull GASGAS Tech3SPAAugustoFERNANDEZ14th\n" +
	"1'40.262 1 36.532 26.017 25.143 285.8 12.570\n" +
	"1'31.117 2 30.123 31.456 29.538 290.1 12.345\n"

func newService(l source.Loader) *AnalysisService {
	return NewAnalysisService(l,
		processing.NewProcessor(processing.WithRoster(roster.New("Augusto FERNANDEZ"))),
		WithExtractor(splitPages))
}

var spa = model.EventKey{Season: "2023", EventCode: "SPA"}

func TestAnalyze(t *testing.T) {
	got, err := newService(staticLoader{data: []byte(document)}).Analyze(context.Background(), spa)
	require.NoError(t, err)
	assert.Equal(t, []model.PilotResult{
		{Name: "Augusto FERNANDEZ", Laps: []float64{100.262, 91.117}},
	}, got)
}

func TestAnalyzeLoadError(t *testing.T) {
	_, err := newService(staticLoader{err: source.ErrNotFound}).Analyze(context.Background(), spa)
	assert.ErrorIs(t, err, source.ErrNotFound)
}

func TestAnalyzeExtractError(t *testing.T) {
	s := NewAnalysisService(staticLoader{data: []byte("x")}, processing.NewProcessor(),
		WithExtractor(func([]byte) ([]string, error) {
			return nil, pdftext.ErrMalformed
		}))
	_, err := s.Analyze(context.Background(), spa)
	assert.True(t, errors.Is(err, pdftext.ErrMalformed))
}

func TestReport(t *testing.T) {
	r, err := newService(staticLoader{data: []byte(document)}).
		Report(context.Background(), spa, []int{2})
	require.NoError(t, err)
	assert.Equal(t, spa, r.Event)
	require.Len(t, r.Riders, 1)
	assert.Equal(t, &model.Pace{Laps: 1, Average: 91.117, Fastest: 91.117, Slowest: 91.117},
		r.Riders[0].Pace)
}
