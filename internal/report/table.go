package report

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cityecology/redline/internal/analysis"
	"github.com/cityecology/redline/internal/model"
)

// num formats counts with thousands separators for the terminal and
// markdown tables.
var num = message.NewPrinter(language.AmericanEnglish)

// Table is one rendered summary table. Right marks columns that align
// right (numeric columns); it may be shorter than Columns.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
	Right   []bool
}

// GradeShareTable renders percentage-by-grade rows. The unit column name
// distinguishes the block table from the observation table.
func GradeShareTable(title, unit string, shares []analysis.GradeShare) Table {
	t := Table{
		Title:   title,
		Columns: []string{"Grade", unit, "Percent"},
		Right:   []bool{false, true, true},
	}
	for _, s := range shares {
		t.Rows = append(t.Rows, []string{
			s.Grade,
			num.Sprintf("%d", s.Count),
			fmt.Sprintf("%.1f%%", s.Percent),
		})
	}
	return t
}

// GradeCountTable renders total counts by grade, without the percentage
// column.
func GradeCountTable(title, unit string, shares []analysis.GradeShare) Table {
	t := Table{
		Title:   title,
		Columns: []string{"Grade", unit},
		Right:   []bool{false, true},
	}
	for _, s := range shares {
		t.Rows = append(t.Rows, []string{
			s.Grade,
			num.Sprintf("%d", s.Count),
		})
	}
	return t
}

// IndicatorMeanTable renders the per-grade EJ indicator means. Null means
// render as n/a, never as zero.
func IndicatorMeanTable(title string, means []analysis.GradeIndicators) Table {
	t := Table{
		Title:   title,
		Columns: []string{"Grade", "Blocks", "Mean PM2.5", "Mean low income %", "Mean life exp pctile"},
		Right:   []bool{false, true, true, true, true},
	}
	for _, m := range means {
		t.Rows = append(t.Rows, []string{
			m.Grade,
			num.Sprintf("%d", m.Rows),
			floatCell(m.MeanPM25),
			floatCell(m.MeanLowIncomePct),
			floatCell(m.MeanLifeExpPctile),
		})
	}
	return t
}

// DistrictCountTable renders the derived per-district observation counts
// with their choropleth bin.
func DistrictCountTable(title string, counts []model.DistrictCount) Table {
	t := Table{
		Title:   title,
		Columns: []string{"District", "Grade", "Observations", "Bin"},
		Right:   []bool{false, false, true, false},
	}
	for _, c := range counts {
		t.Rows = append(t.Rows, []string{
			c.DistrictID,
			c.Grade,
			num.Sprintf("%d", c.Count),
			c.Bin,
		})
	}
	return t
}

func floatCell(f model.Float) string {
	if !f.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", f.Value)
}

// Render lays the table out with fixed-width columns for the terminal.
func Render(t Table) string {
	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	total := 0
	for _, w := range widths {
		total += w + 2
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", t.Title)
	b.WriteString(strings.Repeat("-", total) + "\n")
	for i, c := range t.Columns {
		b.WriteString(pad(c, widths[i], t.rightAligned(i)) + "  ")
	}
	b.WriteString("\n")
	b.WriteString(strings.Repeat("-", total) + "\n")
	for _, row := range t.Rows {
		for i, cell := range row {
			b.WriteString(pad(cell, widths[i], t.rightAligned(i)) + "  ")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (t Table) rightAligned(col int) bool {
	return col < len(t.Right) && t.Right[col]
}

// pad pads by rune count, not bytes; bin labels carry multi-byte dashes.
func pad(s string, width int, right bool) string {
	n := width - utf8.RuneCountInString(s)
	if n <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", n) + s
	}
	return s + strings.Repeat(" ", n)
}
