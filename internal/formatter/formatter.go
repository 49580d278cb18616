// package formatter renders songs grouped by release year as text, Markdown, CSV, JSON, or styled terminal output
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/songyears/internal/library"
	"github.com/desertthunder/songyears/internal/pager"
	"github.com/desertthunder/songyears/internal/shared"
)

// Formats lists the names accepted by [Write].
var Formats = []string{"styled", "text", "markdown", "csv", "json"}

// ExportToText renders one block per year: the year with its song count, then the songs indented.
func ExportToText(groups *library.YearGroups) ([]byte, error) {
	var buf bytes.Buffer

	for i, group := range groups.Groups() {
		if i > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(fmt.Sprintf("%s (%d)\n", group.Year, len(group.Songs)))
		for _, song := range group.Songs {
			buf.WriteString(fmt.Sprintf("  %s\n", song))
		}
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders a heading per year with the songs as a bullet list.
func ExportToMarkdown(groups *library.YearGroups, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title != "" {
		buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	}
	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", groups.Count()))
	buf.WriteString(fmt.Sprintf("**Years**: %d\n", groups.Len()))

	for _, group := range groups.Groups() {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", group.Year))
		for _, song := range group.Songs {
			buf.WriteString(fmt.Sprintf("- %s\n", song))
		}
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts the grouping to CSV with columns: Year, Position, Song
func ExportToCSV(groups *library.YearGroups) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Year", "Position", "Song"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, group := range groups.Groups() {
		for i, song := range group.Songs {
			if err := writer.Write([]string{group.Year, strconv.Itoa(i + 1), song}); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToJSON encodes the grouping as a JSON object keyed by year in grouping order.
func ExportToJSON(groups *library.YearGroups, pretty bool) ([]byte, error) {
	data, err := shared.MarshalJSON(groups, pretty)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Styled renders the grouping for a terminal with a summary line from report.
//
// A nil palette means [DefaultPalette].
func Styled(groups *library.YearGroups, report pager.Report, p *Palette) []byte {
	if p == nil {
		p = DefaultPalette
	}

	var b strings.Builder
	b.WriteString(p.title.Render("Liked songs by release year"))
	b.WriteString("\n")

	for _, group := range groups.Groups() {
		b.WriteString(p.year.Render(group.Year))
		b.WriteString(" ")
		b.WriteString(p.muted.Render(fmt.Sprintf("(%d)", len(group.Songs))))
		b.WriteString("\n")
		for _, song := range group.Songs {
			b.WriteString("  " + song + "\n")
		}
	}

	b.WriteString("\n")
	summary := fmt.Sprintf("%d songs across %d years, %d requests", groups.Count(), groups.Len(), report.Requests)
	b.WriteString(p.muted.Render(summary))
	b.WriteString("\n")

	if report.Failures > 0 {
		warning := fmt.Sprintf("%d of %d pages failed; the list is incomplete", report.Failures, report.Pages)
		b.WriteString(p.warn.Render(warning))
		b.WriteString("\n")
	}

	return []byte(b.String())
}

// Error renders an error message for a terminal.
func Error(err error, p *Palette) string {
	if p == nil {
		p = DefaultPalette
	}
	return p.err.Render("error: ") + err.Error()
}

// Write renders groups in the named format to w.
func Write(w io.Writer, format string, groups *library.YearGroups, report pager.Report, pretty bool) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case "styled", "":
		data = Styled(groups, report, nil)
	case "text":
		data, err = ExportToText(groups)
	case "markdown":
		data, err = ExportToMarkdown(groups, "Liked songs by release year")
	case "csv":
		data, err = ExportToCSV(groups)
	case "json":
		data, err = ExportToJSON(groups, pretty)
	default:
		return fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
