package analysis

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/qdata-clean/internal/table"
)

// ReportOptions controls report content.
type ReportOptions struct {
	// SampleRows is the number of leading rows shown; 0 means 5.
	SampleRows int
}

// Report is a markdown-friendly summary of a table.
type Report struct {
	Name      string
	Rows      int
	Quality   int
	Processed bool
	Cols      []ColumnProfile
	Stats     map[string]SummaryStats
	Samples   [][]string
	Warnings  []string
}

// BuildReport profiles t and collects statistics and sample rows.
func BuildReport(name string, t *table.Table, processed bool, opt ReportOptions) *Report {
	n := opt.SampleRows
	if n <= 0 {
		n = 5
	}
	rep := &Report{
		Name:      name,
		Rows:      t.Len(),
		Quality:   QualityScore(t),
		Processed: processed,
		Cols:      Profile(t),
		Stats:     make(map[string]SummaryStats),
	}
	for _, s := range SummarizeAll(t) {
		rep.Stats[s.Column] = s
	}
	for _, r := range t.Head(n).Rows() {
		row := make([]string, len(rep.Cols))
		for i, c := range rep.Cols {
			row[i] = r.Get(c.Name).Text()
		}
		rep.Samples = append(rep.Samples, row)
	}
	if extra := UnprofiledColumns(t); len(extra) > 0 {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("columns absent from the first row are not profiled: %s", strings.Join(extra, ", ")))
	}
	return rep
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Quality: %d%%\n", r.Quality))
	if r.Processed {
		b.WriteString("Status: processed\n")
	}
	b.WriteString("\n[SCHEMA]\n")
	for _, c := range r.Cols {
		missPct := 0.0
		if r.Rows > 0 {
			missPct = float64(c.Missing) * 100.0 / float64(r.Rows)
		}
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d, %.1f%%; distinct %d)", safeName(c.Name), c.Type, c.Missing, missPct, c.Distinct))
		if s, ok := r.Stats[c.Name]; ok {
			b.WriteString(fmt.Sprintf(" | mean %.4g, median %.4g, min %.4g, max %.4g, std %.4g", s.Mean, s.Median, s.Min, s.Max, s.StdDev))
		}
		b.WriteString("\n")
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, c := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(c.Name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Cols {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i, val := range row {
				if i > 0 {
					b.WriteString(" | ")
				}
				if len(val) > 80 {
					val = val[:77] + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
