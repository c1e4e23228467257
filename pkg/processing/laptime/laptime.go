// Package laptime reads the lap times of a rider block.
package laptime

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/processing/lexer"
	"github.com/mpapenbr/racepace/pkg/processing/normalize"
)

var ErrInvalidLapTime = errors.New("invalid lap time")

type (
	Option    func(*Extractor)
	Extractor struct {
		log    *log.Logger
		onSkip func(line string, err error)
	}
)

func WithLogger(l *log.Logger) Option {
	return func(e *Extractor) {
		e.log = l
	}
}

// WithSkipHandler registers a callback for rows that were dropped because of
// invalid values.
func WithSkipHandler(f func(line string, err error)) Option {
	return func(e *Extractor) {
		e.onSkip = f
	}
}

func NewExtractor(opts ...Option) *Extractor {
	ret := &Extractor{log: log.Default().Named("laptime")}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Extract uses an Extractor with default settings.
func Extract(blockText string) []float64 {
	return NewExtractor().Extract(blockText)
}

// Extract returns the lap times (seconds) of all telemetry rows in
// blockText. Rows are only recognized at the start of a line. The result is
// never nil.
func (e *Extractor) Extract(blockText string) []float64 {
	ret := []float64{}
	for _, line := range normalize.SplitLines(normalize.FixLapTimes(blockText)) {
		toks := lexer.Tokenize(line)
		if _, ok := lexer.Row.MatchAt(toks, 0); !ok {
			continue
		}
		secs, err := ParseToken(toks[0].Text)
		if err != nil {
			e.log.Warn("skipping row", log.String("line", line), log.ErrorField(err))
			if e.onSkip != nil {
				e.onSkip(line, err)
			}
			continue
		}
		ret = append(ret, secs)
	}
	return ret
}

// ParseToken converts a m'ss.fff token into seconds.
func ParseToken(token string) (float64, error) {
	m, rest, ok := strings.Cut(token, "'")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLapTime, token)
	}
	s, ms, ok := strings.Cut(rest, ".")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLapTime, token)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidLapTime, token, err)
	}
	seconds, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %w", ErrInvalidLapTime, token, err)
	}
	millis, err := strconv.Atoi(ms)
	if err != nil || len(ms) != 3 {
		return 0, fmt.Errorf("%w: %q: milliseconds", ErrInvalidLapTime, token)
	}
	return Convert(minutes, seconds, millis)
}

// Convert returns minutes*60 + seconds + millis/1000. The value is computed
// from integer milliseconds, so it is exact to three decimals.
func Convert(minutes, seconds, millis int) (float64, error) {
	switch {
	case minutes < 0:
		return 0, fmt.Errorf("%w: negative minutes %d", ErrInvalidLapTime, minutes)
	case seconds < 0 || seconds >= 60:
		return 0, fmt.Errorf("%w: seconds %d out of range", ErrInvalidLapTime, seconds)
	case millis < 0 || millis > 999:
		return 0, fmt.Errorf("%w: milliseconds %d out of range", ErrInvalidLapTime, millis)
	}
	total := int64(minutes)*60_000 + int64(seconds)*1000 + int64(millis)
	return float64(total) / 1000, nil
}
