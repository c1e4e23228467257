package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/racepace/log"
	"github.com/mpapenbr/racepace/pkg/cmd/setup"
	"github.com/mpapenbr/racepace/pkg/config"
	"github.com/mpapenbr/racepace/pkg/export"
	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing"
	"github.com/mpapenbr/racepace/pkg/processing/pace"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

type options struct {
	season string
	event  string
	file   string
	format string
	output string
	laps   string
}

func NewAnalyzeCmd() *cobra.Command {
	opts := options{}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "prints the lap times of a race analysis report",
		Example: "  racepace analyze --season 2023 --event SPA\n" +
			"  racepace analyze --file Analysis.pdf --format json",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), &opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.season, "season", "", "season of the event, e.g. 2023")
	cmd.Flags().StringVar(&opts.event, "event", "", "event code, e.g. SPA")
	cmd.Flags().StringVar(&opts.file, "file", "", "local report file instead of downloading it")
	cmd.Flags().StringVar(&opts.format, "format", FormatText, "output format (text, json, xlsx)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&opts.laps, "laps", "", "laps used for the pace, e.g. 2-27")
	return cmd
}

//nolint:cyclop // by design
func run(ctx context.Context, opts *options, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := setup.Logger(os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx = log.AddToContext(ctx, logger)

	key := model.EventKey{Season: opts.season, EventCode: strings.ToUpper(opts.event)}
	if opts.file == "" && (key.Season == "" || key.EventCode == "") {
		return errors.New("either --file or --season and --event are required")
	}
	selected, err := pace.ParseLapNumbers(opts.laps)
	if err != nil {
		return err
	}
	appConfig, err := config.Resolve()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	svc, err := setup.AnalysisService(ctx, appConfig)
	if err != nil {
		return err
	}

	var results []model.PilotResult
	if opts.file != "" {
		data, err := os.ReadFile(opts.file)
		if err != nil {
			return err
		}
		results, err = svc.AnalyzeDocument(ctx, data)
		if err != nil {
			return err
		}
	} else if results, err = svc.Analyze(ctx, key); err != nil {
		return err
	}
	riders, err := pace.SummarizeSelected(results, selected)
	if err != nil {
		return err
	}
	report := &model.Report{Event: key, Riders: riders}

	w := stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return Write(w, opts.format, report)
}

// Write renders report in the given format.
func Write(w io.Writer, format string, report *model.Report) error {
	switch format {
	case FormatText:
		return writeText(w, report)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case FormatXLSX:
		return export.WriteXLSX(w, report)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeText(w io.Writer, report *model.Report) error {
	var b strings.Builder
	for _, r := range report.Riders {
		fmt.Fprintf(&b, "%s\n", r.Name)
		if r.Pace != nil {
			fmt.Fprintf(&b, "  race pace %s  fastest %s  slowest %s  (%d laps)\n",
				processing.FormatTime(r.Pace.Average),
				processing.FormatTime(r.Pace.Fastest),
				processing.FormatTime(r.Pace.Slowest),
				r.Pace.Laps)
		}
		for i, l := range r.Laps {
			fmt.Fprintf(&b, "  %2d  %s\n", i+1, processing.FormatTime(l))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
