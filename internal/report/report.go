// Package report renders a QC session summary and its operation history
// as Markdown, and as HTML through gomarkdown.
package report

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"crmqc/app"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// Report is a snapshot of one session
type Report struct {
	Summary app.SessionSummary
	Columns []app.ColumnView
	History []app.Event
}

// Build snapshots the controller's current state
func Build(c *app.SessionController) (Report, error) {
	summary, err := c.Summary()
	if err != nil {
		return Report{}, err
	}
	r := Report{Summary: summary, History: c.History()}
	for _, info := range summary.Columns {
		view, err := c.View(info.Column)
		if err != nil {
			return Report{}, err
		}
		r.Columns = append(r.Columns, view)
	}
	return r, nil
}

// Markdown renders the report as GitHub-style Markdown
func (r Report) Markdown() []byte {
	var b bytes.Buffer
	s := r.Summary

	fmt.Fprintf(&b, "# QC report %s\n\n", s.ID)
	fmt.Fprintf(&b, "- Loaded: %s\n", s.LoadedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Mode: %s\n", s.Mode)
	fmt.Fprintf(&b, "- Sample rows: %d\n", s.Rows)
	reserved := make([]string, len(s.ReservedRows))
	for i, row := range s.ReservedRows {
		reserved[i] = strconv.Itoa(row)
	}
	fmt.Fprintf(&b, "- Reserved rows: %s\n", strings.Join(reserved, ", "))
	fmt.Fprintf(&b, "- Input SHA-256: `%s`\n", s.InputHash)
	if !s.OutputHash.IsEmpty() {
		fmt.Fprintf(&b, "- Output SHA-256: `%s`\n", s.OutputHash)
	}
	if s.Reference != "" || len(s.ReferenceElements) > 0 {
		fmt.Fprintf(&b, "- Reference: %s (%s)\n", orDash(s.Reference), strings.Join(s.ReferenceElements, ", "))
	} else {
		b.WriteString("- Reference: none\n")
	}

	b.WriteString("\n## Columns\n\n")
	b.WriteString("| Column | Element | Committed | Filled | Limit | Count | Mean | Median | Min | Max |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|---|---|\n")
	for _, col := range r.Columns {
		limit := "-"
		if col.Limit != nil {
			limit = num(*col.Limit)
		}
		st := col.Stats
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s | %d | %s | %s | %s | %s |\n",
			col.Column, cell(col.Element), yesNo(col.Committed), st.Filled, limit,
			st.Count, num(st.Mean), num(st.Median), num(st.Min), num(st.Max))
	}

	b.WriteString("\n## History\n\n")
	if len(r.History) == 0 {
		b.WriteString("No operations recorded.\n")
		return b.Bytes()
	}
	b.WriteString("| # | Time | Operation | Column | Element | Rows | Detail |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for i, ev := range r.History {
		fmt.Fprintf(&b, "| %d | %s | %s | %d | %s | %s | %s |\n",
			i+1, ev.At.Format("15:04:05"), ev.Kind, ev.Column, cell(ev.Element), rows(ev.Rows), cell(ev.Detail))
	}
	return b.Bytes()
}

// HTML renders the Markdown as a complete HTML page
func (r Report) HTML() []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse(r.Markdown())

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.CompletePage,
		Title: "QC report " + r.Summary.ID.String(),
	})
	return markdown.Render(doc, renderer)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func rows(rs []int) string {
	if len(rs) == 0 {
		return "-"
	}
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}

// cell escapes table separators
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.ReplaceAll(s, "|", `\|`)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
