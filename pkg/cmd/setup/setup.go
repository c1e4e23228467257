// Package setup wires the components used by the commands from the resolved
// configuration.
package setup

import (
	"context"
	"fmt"
	"io"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/config"
	"github.com/mpapenbr/racepace/pkg/processing"
	"github.com/mpapenbr/racepace/pkg/processing/rider"
	"github.com/mpapenbr/racepace/pkg/roster"
	"github.com/mpapenbr/racepace/pkg/service"
	"github.com/mpapenbr/racepace/pkg/source"
)

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// Logger creates the logger configured by config.LogFormat, config.LogLevel
// and config.LogFilter and makes it the default logger.
func Logger(w io.Writer) (*log.Logger, error) {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			w,
			parseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			w,
			parseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		filtered, err := logger.WithFilter(config.LogFilter)
		if err != nil {
			return nil, fmt.Errorf("invalid log filter: %w", err)
		}
		logger = filtered
	}
	log.ResetDefault(logger)
	return logger, nil
}

// Roster returns the roster file watcher if config.RosterFile is set,
// otherwise the built-in roster.
//
//nolint:ireturn // by design
func Roster(ctx context.Context) (roster.Provider, error) {
	if config.RosterFile == "" {
		return roster.Default(), nil
	}
	w, err := roster.NewWatcher(ctx, config.RosterFile, roster.WithJSONPath(config.RosterPath))
	if err != nil {
		return nil, err
	}
	return w, nil
}

func Processor(ctx context.Context, cfg *config.Config) (*processing.Processor, error) {
	m, err := rider.NewMatcher(cfg.Matcher, cfg.MaxDistance)
	if err != nil {
		return nil, err
	}
	r, err := Roster(ctx)
	if err != nil {
		return nil, err
	}
	opts := []processing.ProcessorOption{
		processing.WithRoster(r),
		processing.WithMatcher(m),
		processing.WithLayout(cfg.Layout),
		processing.WithLogger(log.GetFromContext(ctx).Named("processing")),
	}
	if cfg.Workers > 0 {
		opts = append(opts, processing.WithWorkers(cfg.Workers))
	}
	return processing.NewProcessor(opts...), nil
}

// Loader returns the report downloader, cached if cfg.CacheExpiration > 0.
//
//nolint:ireturn // by design
func Loader(ctx context.Context, cfg *config.Config) source.Loader {
	f := source.NewFetcher(
		source.WithBaseURL(cfg.SourceBaseURL),
		source.WithTimeout(cfg.FetchTimeout),
		source.WithLogger(log.GetFromContext(ctx).Named("source")))
	if cfg.CacheExpiration <= 0 {
		return f
	}
	return source.NewCached(f, cfg.CacheExpiration)
}

// AnalysisService combines Loader and Processor.
func AnalysisService(ctx context.Context, cfg *config.Config) (*service.AnalysisService, error) {
	proc, err := Processor(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewAnalysisService(Loader(ctx, cfg), proc,
		service.WithLogger(log.GetFromContext(ctx).Named("analysis"))), nil
}
