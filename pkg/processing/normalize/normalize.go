// Package normalize removes page boilerplate from the extracted text of a
// race analysis report and reflows telemetry rows onto their own lines.
package normalize

import (
	"regexp"
	"strings"

	"github.com/mpapenbr/racepace/pkg/processing/lexer"
)

// Layout holds the number of boilerplate lines of the report template.
// Trimming only happens if a page has more than the Min* number of lines.
type Layout struct {
	FirstPageMinLines  int `yaml:"firstPageMinLines" validate:"min=0"`
	FirstPageHeadLines int `yaml:"firstPageHeadLines" validate:"min=0,ltefield=FirstPageMinLines"`
	FirstPageTailLines int `yaml:"firstPageTailLines" validate:"min=0"`
	OtherPageMinLines  int `yaml:"otherPageMinLines" validate:"min=0"`
	OtherPageHeadLines int `yaml:"otherPageHeadLines" validate:"min=0,ltefield=OtherPageMinLines"`
	OtherPageTailLines int `yaml:"otherPageTailLines" validate:"min=0"`
}

// DefaultLayout matches the MotoGP race "Analysis" report.
var DefaultLayout = Layout{
	FirstPageMinLines:  19,
	FirstPageHeadLines: 8,
	FirstPageTailLines: 7,
	OtherPageMinLines:  11,
	OtherPageHeadLines: 2,
	OtherPageTailLines: 7,
}

// a lap row directly followed by the header of the next rider
var gluedHeader = regexp.MustCompile(`^(\d{1,2}'\d{2}\.\d{3}.*?\d{1,2}\.\d{3})(\d{1,2}[A-Za-z].*)`)

// NormalizePage uses DefaultLayout.
func NormalizePage(pageText string, pageIndex int) string {
	return DefaultLayout.NormalizePage(pageText, pageIndex)
}

// NormalizePage strips the header and footer lines of a page and passes the
// rest through FixLapTimes. Short pages are kept as they are.
func (l Layout) NormalizePage(pageText string, pageIndex int) string {
	lines := SplitLines(pageText)
	minLines, head, tail := l.OtherPageMinLines, l.OtherPageHeadLines, l.OtherPageTailLines
	if pageIndex == 0 {
		minLines, head, tail = l.FirstPageMinLines, l.FirstPageHeadLines, l.FirstPageTailLines
	}
	if len(lines) > minLines && len(lines) >= head+tail {
		lines = lines[head : len(lines)-tail]
	}
	return FixLapTimes(strings.Join(lines, "\n"))
}

// FixLapTimes breaks lines in front of every telemetry row so that rows
// which were merged onto one line end up on separate lines. All lines are
// trimmed, empty lines are dropped. Applying it twice gives the same result.
func FixLapTimes(text string) string {
	var out []string
	for _, line := range SplitLines(text) {
		toks := lexer.Tokenize(line)
		prev := 0
		for _, idx := range lexer.MergedRow.FindAll(toks) {
			out = appendTrimmed(out, line[prev:toks[idx].Offset])
			prev = toks[idx].Offset
		}
		out = appendTrimmed(out, line[prev:])
	}
	return strings.Join(out, "\n")
}

// Assemble concatenates normalized pages in the given order. Lines where a
// rider header follows a lap row without a line break are split.
func Assemble(pages []string) string {
	var out []string
	for _, page := range pages {
		for _, line := range SplitLines(page) {
			if m := gluedHeader.FindStringSubmatch(line); m != nil {
				out = append(out, strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
				continue
			}
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

// SplitLines splits at \n, \r\n and \r. A trailing line break does not
// produce an empty last line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}

func appendTrimmed(lines []string, s string) []string {
	if s = strings.TrimSpace(s); s != "" {
		return append(lines, s)
	}
	return lines
}
