package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"html"
	"slices"
	"strings"

	"iconscrape/internal/results"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Row is one result entry with its key.
type Row struct {
	Key string
	results.Entry
}

// Report renders a result file snapshot in every supported output format.
type Report struct {
	rows   []Row
	failed int
}

// NewReport builds a report from a result snapshot, rows sorted by key.
func NewReport(snapshot map[string]results.Entry) *Report {
	r := &Report{rows: make([]Row, 0, len(snapshot))}
	for key, e := range snapshot {
		r.rows = append(r.rows, Row{Key: key, Entry: e})
		if e.Failed() {
			r.failed++
		}
	}
	slices.SortFunc(r.rows, func(a, b Row) int {
		return strings.Compare(a.Key, b.Key)
	})
	return r
}

func (r *Report) Rows() []Row {
	return r.rows
}

func (r *Report) summary() string {
	return fmt.Sprintf("%d entries: %d resolved, %d failed", len(r.rows), len(r.rows)-r.failed, r.failed)
}

func (r *Report) table() table.Writer {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Key", "Name", "Main Category", "Sub Category", "File", "Error"})
	for _, row := range r.rows {
		t.AppendRow(table.Row{row.Key, row.Name, row.MainCategory, row.SubCategory, row.File, row.Error})
	}
	return t
}

// ToHTML renders a heading, a totals line and the result table.
func (r *Report) ToHTML() (string, error) {
	var sb strings.Builder
	sb.WriteString("<h1>Icon Results</h1>\n")
	sb.WriteString("<p>" + html.EscapeString(r.summary()) + "</p>\n")
	sb.WriteString(r.table().RenderHTML())
	sb.WriteString("\n")
	return sb.String(), nil
}

// ToMarkdown converts the HTML report, tables included, to Markdown.
func (r *Report) ToMarkdown() (string, error) {
	htmlContent, err := r.ToHTML()
	if err != nil {
		return "", err
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.Table())

	markdown, err := converter.ConvertString(htmlContent)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

func (r *Report) ToText() (string, error) {
	t := r.table()
	t.SetStyle(table.StyleLight)
	return t.Render() + "\n" + r.summary() + "\n", nil
}

func (r *Report) ToJSON() ([]byte, error) {
	snapshot := make(map[string]results.Entry, len(r.rows))
	for _, row := range r.rows {
		snapshot[row.Key] = row.Entry
	}
	return results.Marshal(snapshot)
}

func (r *Report) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"key", "name", "main_category", "sub_category", "file", "error"})
	for _, row := range r.rows {
		_ = w.Write([]string{row.Key, row.Name, row.MainCategory, row.SubCategory, row.File, row.Error})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
