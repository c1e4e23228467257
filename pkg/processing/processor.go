// Package processing turns the extracted pages of a race analysis report into
// per rider lap times.
package processing

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/errgroup"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing/laptime"
	"github.com/mpapenbr/racepace/pkg/processing/normalize"
	"github.com/mpapenbr/racepace/pkg/processing/rider"
	"github.com/mpapenbr/racepace/pkg/processing/segment"
	"github.com/mpapenbr/racepace/pkg/roster"
)

const instrumentationName = "github.com/mpapenbr/racepace/pkg/processing"

type (
	Processor struct {
		roster    roster.Provider
		matcher   rider.Matcher
		layout    normalize.Layout
		workers   int
		log       *log.Logger
		extractor *laptime.Extractor
		pages     metric.Int64Counter
		riders    metric.Int64Counter
		skipped   metric.Int64Counter
	}
	ProcessorOption func(proc *Processor)
)

// WithRoster sets the source of rider names. Each call of Aggregate uses a
// single snapshot of it.
func WithRoster(p roster.Provider) ProcessorOption {
	return func(proc *Processor) {
		proc.roster = p
	}
}

func WithMatcher(m rider.Matcher) ProcessorOption {
	return func(proc *Processor) {
		proc.matcher = m
	}
}

func WithLayout(l normalize.Layout) ProcessorOption {
	return func(proc *Processor) {
		proc.layout = l
	}
}

// WithWorkers limits the number of pages normalized concurrently.
func WithWorkers(n int) ProcessorOption {
	return func(proc *Processor) {
		proc.workers = n
	}
}

func WithLogger(l *log.Logger) ProcessorOption {
	return func(proc *Processor) {
		proc.log = l
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		roster:  roster.New(),
		matcher: rider.SubstringMatcher{},
		layout:  normalize.DefaultLayout,
		workers: runtime.NumCPU(),
		log:     log.Default().Named("processing"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.initMetrics()
	ret.extractor = laptime.NewExtractor(
		laptime.WithLogger(ret.log.Named("laptime")),
		laptime.WithSkipHandler(func(line string, err error) {
			ret.skipped.Add(context.Background(), 1)
		}),
	)
	return ret
}

func (p *Processor) initMetrics() {
	meter := otel.Meter(instrumentationName)
	p.pages = p.counter(meter, "racepace.pages", "number of processed report pages")
	p.riders = p.counter(meter, "racepace.riders", "number of rider blocks found")
	p.skipped = p.counter(meter, "racepace.rows.skipped", "number of telemetry rows dropped")
}

//nolint:ireturn // by design
func (p *Processor) counter(meter metric.Meter, name, desc string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc))
	if err != nil {
		p.log.Warn("could not create metric", log.String("name", name), log.ErrorField(err))
		return noop.Int64Counter{}
	}
	return c
}

// Process normalizes pages and extracts the rider results.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) Process(ctx context.Context, pages []string) (
	[]model.PilotResult, error,
) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "processing.Process")
	defer span.End()

	doc, err := p.Normalize(ctx, pages)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	ret := p.Aggregate(doc)
	span.SetAttributes(
		attribute.Int("pages", len(pages)),
		attribute.Int("riders", len(ret)))
	return ret, nil
}

// Normalize normalizes all pages concurrently and concatenates them in page
// order.
func (p *Processor) Normalize(ctx context.Context, pages []string) (string, error) {
	normalized := make([]string, len(pages))
	g, gCtx := errgroup.WithContext(ctx)
	if p.workers > 0 {
		g.SetLimit(p.workers)
	}
	for i := range pages {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			normalized[i] = p.layout.NormalizePage(pages[i], i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", fmt.Errorf("normalizing pages: %w", err)
	}
	p.pages.Add(ctx, int64(len(pages)))
	p.log.Debug("pages normalized", log.Int("pages", len(pages)))
	return normalize.Assemble(normalized), nil
}

// Aggregate splits document into rider blocks and returns the name and lap
// times of every rider in document order. A document without any rider
// header yields an empty (non nil) result.
func (p *Processor) Aggregate(document string) []model.PilotResult {
	r := p.roster.Current()
	blocks := segment.Segment(document)
	ret := make([]model.PilotResult, 0, len(blocks))
	for _, b := range blocks {
		name := rider.IdentifyWith(p.matcher, b.Text, r)
		laps := p.extractor.Extract(b.Text)
		if name == model.NameNotFound {
			p.log.Debug("rider not resolved",
				log.String("header", rider.FirstLine(b.Text)))
		}
		ret = append(ret, model.PilotResult{Name: name, Laps: laps})
	}
	p.riders.Add(context.Background(), int64(len(ret)))
	p.log.Debug("document aggregated", log.Int("riders", len(ret)))
	return ret
}

// Aggregate uses a Processor with the given roster and default settings.
func Aggregate(document string, r roster.Roster) []model.PilotResult {
	return NewProcessor(WithRoster(r)).Aggregate(document)
}

// FormatTime formats seconds as M:SS.mmm, e.g. 91.117 -> "1:31.117".
// The value is rounded to milliseconds first.
func FormatTime(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	sign := ""
	if ms < 0 {
		sign = "-"
		ms = -ms
	}
	return fmt.Sprintf("%s%d:%06.3f", sign, ms/60_000, float64(ms%60_000)/1000)
}
