// Package pdftext extracts the text of a PDF document page by page.
package pdftext

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrMalformed = errors.New("malformed pdf")

// Extract returns one string per page in page order. Each text row of a page
// becomes one line, words within a row are separated by a single space.
// Pages without content yield an empty string so page indexes are kept.
func Extract(data []byte) (pages []string, err error) {
	// the pdf reader panics on some broken inputs
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	num := reader.NumPage()
	if num == 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrMalformed)
	}
	pages = make([]string, 0, num)
	for i := 1; i <= num; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := pageText(page)
		if err != nil {
			return nil, fmt.Errorf("%w: page %d: %w", ErrMalformed, i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := joinRow(row.Content); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// joinRow concatenates the pieces of a text row. The strings of a TJ array
// arrive as separate pieces at the same position and are glued together. A
// word boundary is either an empty piece (emitted for Td) or a piece placed
// at another position.
func joinRow(content pdf.TextHorizontal) string {
	var b strings.Builder
	boundary := false
	lastX := 0.0
	for _, word := range content {
		if word.S == "" {
			boundary = true
			continue
		}
		if b.Len() > 0 && (boundary || word.X != lastX) {
			b.WriteByte(' ')
		}
		b.WriteString(word.S)
		boundary = false
		lastX = word.X
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
