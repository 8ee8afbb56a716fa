// package formatter renders tabular catalogue data as CSV, Markdown tables, aligned text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/desertthunder/jukebox/internal/models"
	"github.com/desertthunder/jukebox/internal/shared"
)

// Format is an export file format.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "txt"
	JSON     Format = "json"
)

// ParseFormat resolves a format name; the empty string means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return JSON, nil
	case "md":
		return Markdown, nil
	case "text":
		return Text, nil
	case CSV, Markdown, Text, JSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case Markdown:
		return "md"
	case Text, CSV:
		return string(f)
	default:
		return "json"
	}
}

// Table is a header plus rows of cells.
type Table struct {
	Title   string
	Header  []string
	Records [][]string
}

// NewTable builds a table from tabular items. The header is taken from the zero value when items is empty.
func NewTable[T models.Tabular](title string, items []T) Table {
	var zero T
	t := Table{Title: title, Header: models.Header(zero), Records: make([][]string, 0, len(items))}
	for _, item := range items {
		t.Records = append(t.Records, item.Record())
	}
	return t
}

// Append adds the records of items to t.
func Append[T models.Tabular](t *Table, items []T) {
	for _, item := range items {
		t.Records = append(t.Records, item.Record())
	}
}

// ExportToCSV writes the header followed by every record.
func ExportToCSV(t Table) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(t.Header); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, record := range t.Records {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders t as a Markdown table under a level-one heading.
func ExportToMarkdown(t Table) ([]byte, error) {
	var buf bytes.Buffer

	if t.Title != "" {
		fmt.Fprintf(&buf, "# %s\n\n", t.Title)
	}
	fmt.Fprintf(&buf, "**Total**: %d\n\n", len(t.Records))

	if len(t.Header) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString(markdownRow(t.Header))
	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	buf.WriteString(markdownRow(sep))
	for _, record := range t.Records {
		buf.WriteString(markdownRow(record))
	}

	return buf.Bytes(), nil
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		escaped[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return "| " + strings.Join(escaped, " | ") + " |\n"
}

// ExportToText renders t as whitespace-aligned columns.
func ExportToText(t Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteText(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteText writes t as aligned columns to w. Used by the CLI list commands.
func WriteText(w io.Writer, t Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(t.Header) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Header, "\t"))
		under := make([]string, len(t.Header))
		for i, h := range t.Header {
			under[i] = strings.Repeat("-", max(len(h), 2))
		}
		fmt.Fprintln(tw, strings.Join(under, "\t"))
	}
	for _, record := range t.Records {
		fmt.Fprintln(tw, strings.Join(record, "\t"))
	}

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}

// Export renders t in the given format. JSON output is an array of objects keyed by header.
func Export(t Table, f Format) ([]byte, error) {
	switch f {
	case CSV:
		return ExportToCSV(t)
	case Markdown:
		return ExportToMarkdown(t)
	case Text:
		return ExportToText(t)
	default:
		rows := make([]map[string]string, 0, len(t.Records))
		for _, record := range t.Records {
			row := make(map[string]string, len(t.Header))
			for i, h := range t.Header {
				if i < len(record) {
					row[h] = record[i]
				}
			}
			rows = append(rows, row)
		}
		return shared.MarshalJSON(rows, true)
	}
}

// WriteExport renders t into dir/name.ext and returns the file path.
func WriteExport(t Table, f Format, dir, name string) (string, error) {
	data, err := Export(t, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name+"."+f.Ext())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// ManifestEntry describes one exported collection.
type ManifestEntry struct {
	Collection string `json:"collection"`
	File       string `json:"file,omitempty"`
	Records    int    `json:"records"`
	Pages      int    `json:"pages"`
	Error      string `json:"error,omitempty"`
}

// Manifest summarises a whole export run.
type Manifest struct {
	ExportedAt  time.Time       `json:"exported_at"`
	Format      Format          `json:"format"`
	Succeeded   int             `json:"succeeded"`
	Failed      int             `json:"failed"`
	Collections []ManifestEntry `json:"collections"`
}

// WriteManifest writes m as indented JSON to path.
func WriteManifest(m Manifest, path string) error {
	data, err := shared.MarshalJSON(m, true)
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}
