// Package pace computes race pace figures of a rider's lap times.
package pace

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mpapenbr/racepace/pkg/model"
)

var ErrInvalidSelection = errors.New("invalid lap selection")

// Compute returns the pace over the laps selected by their zero based index.
// A nil selection means all laps. Returns nil if no lap is selected.
func Compute(laps []float64, selected []int) (*model.Pace, error) {
	work := laps
	if selected != nil {
		work = make([]float64, 0, len(selected))
		for _, idx := range lo.Uniq(selected) {
			if idx < 0 || idx >= len(laps) {
				return nil, fmt.Errorf("%w: lap index %d (laps: %d)",
					ErrInvalidSelection, idx, len(laps))
			}
			work = append(work, laps[idx])
		}
	}
	if len(work) == 0 {
		return nil, nil
	}
	return &model.Pace{
		Laps:    len(work),
		Average: Average(work),
		Fastest: lo.Min(work),
		Slowest: lo.Max(work),
	}, nil
}

// Average is the arithmetic mean rounded to milliseconds.
func Average(laps []float64) float64 {
	if len(laps) == 0 {
		return 0
	}
	sum := decimal.Sum(decimal.Zero, lo.Map(laps, func(l float64, _ int) decimal.Decimal {
		return decimal.NewFromFloat(l)
	})...)
	avg, _ := sum.Div(decimal.NewFromInt(int64(len(laps)))).Round(3).Float64()
	return avg
}

// Summarize attaches the pace over all laps to every result.
func Summarize(results []model.PilotResult) []model.RiderSummary {
	return lo.Map(results, func(r model.PilotResult, _ int) model.RiderSummary {
		p, _ := Compute(r.Laps, nil)
		return model.RiderSummary{PilotResult: r, Pace: p}
	})
}

// SummarizeSelected attaches the pace over the given lap numbers (1-based) to
// every result. Lap numbers beyond a rider's laps are ignored for that rider.
// A nil selection means all laps.
func SummarizeSelected(results []model.PilotResult, lapNumbers []int) (
	[]model.RiderSummary, error,
) {
	if lapNumbers == nil {
		return Summarize(results), nil
	}
	for _, n := range lapNumbers {
		if n < 1 {
			return nil, fmt.Errorf("%w: lap number %d", ErrInvalidSelection, n)
		}
	}
	ret := make([]model.RiderSummary, 0, len(results))
	for _, r := range results {
		idx := lo.FilterMap(lapNumbers, func(n, _ int) (int, bool) {
			return n - 1, n <= len(r.Laps)
		})
		p, err := Compute(r.Laps, idx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, model.RiderSummary{PilotResult: r, Pace: p})
	}
	return ret, nil
}

// MaxLapNumber is the highest lap number a selection may name.
const MaxLapNumber = 200

// ParseLapNumbers parses a lap selection like "2-10,12,15-20" into lap
// numbers (1-based, at most MaxLapNumber). Duplicates are dropped, the order
// of first appearance is kept. An empty string yields nil (all laps).
func ParseLapNumbers(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	ret := []int{}
	var seen [MaxLapNumber + 1]bool
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		from, to, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
		}
		end := start
		if isRange {
			if end, err = strconv.Atoi(strings.TrimSpace(to)); err != nil {
				return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
			}
		}
		if start < 1 || end < start {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelection, part)
		}
		if end > MaxLapNumber {
			return nil, fmt.Errorf("%w: %q exceeds lap %d", ErrInvalidSelection, part, MaxLapNumber)
		}
		for n := start; n <= end; n++ {
			if !seen[n] {
				seen[n] = true
				ret = append(ret, n)
			}
		}
	}
	return ret, nil
}
