package report

import (
	"fmt"
	"strings"
	"time"
)

// Document collects everything the markdown report carries: run metadata,
// geometry validity notes, the four summary tables, and footnotes about the
// denominator policies.
type Document struct {
	Title      string
	RunID      string
	Generated  time.Time
	City       string
	Year       int
	TargetEPSG int
	Validity   []string
	Tables     []Table
	Notes      []string
}

// Markdown renders the document as a single markdown file.
func Markdown(doc Document) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "- Run: %s\n", doc.RunID)
	fmt.Fprintf(&b, "- Generated: %s\n", doc.Generated.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- City: %s\n", doc.City)
	if doc.Year != 0 {
		fmt.Fprintf(&b, "- Observation year: %d\n", doc.Year)
	}
	fmt.Fprintf(&b, "- Analysis CRS: EPSG:%d\n\n", doc.TargetEPSG)

	if len(doc.Validity) > 0 {
		b.WriteString("## Geometry validity\n\n")
		for _, v := range doc.Validity {
			fmt.Fprintf(&b, "- %s\n", v)
		}
		b.WriteString("\n")
	}

	for _, t := range doc.Tables {
		fmt.Fprintf(&b, "## %s\n\n", t.Title)
		pipeTable(&b, t)
		b.WriteString("\n")
	}

	if len(doc.Notes) > 0 {
		b.WriteString("## Notes\n\n")
		for _, n := range doc.Notes {
			fmt.Fprintf(&b, "- %s\n", n)
		}
	}
	return b.String()
}

func pipeTable(b *strings.Builder, t Table) {
	b.WriteString("| " + strings.Join(t.Columns, " | ") + " |\n")
	seps := make([]string, len(t.Columns))
	for i := range t.Columns {
		if t.rightAligned(i) {
			seps[i] = "---:"
		} else {
			seps[i] = "---"
		}
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |\n")
	for _, row := range t.Rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}
}
