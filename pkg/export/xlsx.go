// Package export writes analysis reports as xlsx workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"

	"github.com/mpapenbr/racepace/pkg/model"
	"github.com/mpapenbr/racepace/pkg/processing"
)

const (
	firstLapCol = 6 // column F
	headerRow   = 1
)

type styles struct {
	header  int
	rider   int
	lap     int
	bestLap int
	pace    int
}

func newStyles(f *excelize.File) (*styles, error) {
	var err error
	ret := &styles{}
	style := func(fill, fontColor string, bold bool) int {
		if err != nil {
			return 0
		}
		var id int
		id, err = f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{
				Type:    "pattern",
				Pattern: 1,
				Color:   []string{fill},
			},
			Alignment: &excelize.Alignment{
				Horizontal: "center",
			},
			Font: &excelize.Font{
				Size:  12,
				Bold:  bold,
				Color: fontColor,
			},
		})
		return id
	}
	ret.header = style("1c399e", "ffffff", true)
	ret.rider = style("999999", "000000", true)
	ret.lap = style("ffffff", "000000", false)
	ret.bestLap = style("8b13c2", "ffffff", false)
	ret.pace = style("f59236", "000000", true)
	return ret, err
}

// SheetName is the worksheet name used for the event.
func SheetName(key model.EventKey) string {
	return fmt.Sprintf("%s %s", key.EventCode, key.Season)
}

// Workbook creates a workbook with one row per rider. The fastest lap of
// each rider is highlighted.
//
//nolint:funlen // by design
func Workbook(report *model.Report) (*excelize.File, error) {
	f := excelize.NewFile()
	sheet := SheetName(report.Event)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	maxLaps := lo.Max(lo.Map(report.Riders, func(r model.RiderSummary, _ int) int {
		return len(r.Laps)
	}))

	header := []any{"Pos", "Rider", "Race pace", "Fastest lap", "Slowest lap"}
	for i := 1; i <= maxLaps; i++ {
		header = append(header, fmt.Sprintf("Lap %d", i))
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", st.header); err != nil {
		f.Close()
		return nil, err
	}

	for i, r := range report.Riders {
		row := headerRow + 1 + i
		values := []any{i + 1, r.Name}
		if r.Pace != nil {
			values = append(values,
				processing.FormatTime(r.Pace.Average),
				processing.FormatTime(r.Pace.Fastest),
				processing.FormatTime(r.Pace.Slowest))
		} else if len(r.Laps) > 0 {
			values = append(values, "", "", "")
		}
		for _, l := range r.Laps {
			values = append(values, processing.FormatTime(l))
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheet, start, &values); err != nil {
			f.Close()
			return nil, err
		}
		if err := styleRow(f, sheet, row, r, st); err != nil {
			f.Close()
			return nil, err
		}
	}
	_ = f.SetColWidth(sheet, "B", "B", 28)
	_ = f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      2,
		YSplit:      1,
		TopLeftCell: "C2",
		ActivePane:  "bottomRight",
	})
	return f, nil
}

func styleRow(f *excelize.File, sheet string, row int, r model.RiderSummary, st *styles) error {
	cell := func(col int) string {
		name, _ := excelize.CoordinatesToCellName(col, row)
		return name
	}
	if err := f.SetCellStyle(sheet, cell(1), cell(2), st.rider); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, cell(3), cell(5), st.pace); err != nil {
		return err
	}
	if len(r.Laps) == 0 {
		return nil
	}
	if err := f.SetCellStyle(sheet, cell(firstLapCol), cell(firstLapCol+len(r.Laps)-1), st.lap); err != nil {
		return err
	}
	best := lo.Min(r.Laps)
	for i, l := range r.Laps {
		if l == best {
			if err := f.SetCellStyle(sheet, cell(firstLapCol+i), cell(firstLapCol+i), st.bestLap); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteXLSX writes the workbook of report to w.
func WriteXLSX(w io.Writer, report *model.Report) error {
	f, err := Workbook(report)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

// FileName is the suggested download name of the workbook.
func FileName(key model.EventKey) string {
	return fmt.Sprintf("racepace-%s-%s.xlsx", key.Season, key.EventCode)
}
