package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing"
	"github.com/mpapenbr/racepace/pkg/processing/pace"
	"github.com/mpapenbr/racepace/pkg/source"
	"github.com/mpapenbr/racepace/pkg/source/pdftext"
)

type (
	// ExtractFunc turns a report document into page texts.
	ExtractFunc func(data []byte) ([]string, error)

	AnalysisService struct {
		loader    source.Loader
		processor *processing.Processor
		extract   ExtractFunc
		log       *log.Logger
	}
	AnalysisOption func(s *AnalysisService)
)

func WithExtractor(f ExtractFunc) AnalysisOption {
	return func(s *AnalysisService) {
		s.extract = f
	}
}

func WithLogger(l *log.Logger) AnalysisOption {
	return func(s *AnalysisService) {
		s.log = l
	}
}

func NewAnalysisService(
	loader source.Loader,
	proc *processing.Processor,
	opts ...AnalysisOption,
) *AnalysisService {
	ret := &AnalysisService{
		loader:    loader,
		processor: proc,
		extract:   pdftext.Extract,
		log:       log.Default().Named("analysis"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Analyze downloads the report for key and returns the lap times of all
// riders.
func (s *AnalysisService) Analyze(ctx context.Context, key model.EventKey) (
	[]model.PilotResult, error,
) {
	ctx, span := otel.Tracer("github.com/mpapenbr/racepace/pkg/service").
		Start(ctx, "analysis.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("event", key.String()))

	data, err := s.loader.Load(ctx, key)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return s.AnalyzeDocument(ctx, data)
}

// AnalyzeDocument processes an already loaded report document.
func (s *AnalysisService) AnalyzeDocument(ctx context.Context, data []byte) (
	[]model.PilotResult, error,
) {
	pages, err := s.extract(data)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	s.log.Debug("text extracted", log.Int("pages", len(pages)))
	return s.processor.Process(ctx, pages)
}

// Report analyzes the event and adds the pace of each rider, computed over
// the selected laps (1-based, nil for all).
func (s *AnalysisService) Report(ctx context.Context, key model.EventKey, selected []int) (
	*model.Report, error,
) {
	results, err := s.Analyze(ctx, key)
	if err != nil {
		return nil, err
	}
	riders, err := pace.SummarizeSelected(results, selected)
	if err != nil {
		return nil, err
	}
	return &model.Report{Event: key, Riders: riders}, nil
}
