package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown(t *testing.T) {
	doc := Document{
		Title:      "Redlining and environmental justice: Los Angeles",
		RunID:      "52fdfc07-2182-454f-963f-5f0f9a621d72",
		Generated:  time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		City:       "Los Angeles",
		Year:       2022,
		TargetEPSG: 3310,
		Validity:   []string{"all 8 district polygons valid"},
		Tables: []Table{
			{
				Title:   "Census blocks by HOLC grade",
				Columns: []string{"Grade", "Blocks", "Percent"},
				Rows:    [][]string{{"A", "120", "24.0%"}},
				Right:   []bool{false, true, true},
			},
		},
		Notes: []string{"Block percentages divide by the pre-join block count."},
	}

	out := Markdown(doc)

	assert.True(t, strings.HasPrefix(out, "# Redlining and environmental justice: Los Angeles\n"))
	assert.Contains(t, out, "- Run: 52fdfc07-2182-454f-963f-5f0f9a621d72\n")
	assert.Contains(t, out, "- Generated: 2026-03-14T09:30:00Z\n")
	assert.Contains(t, out, "- Observation year: 2022\n")
	assert.Contains(t, out, "- Analysis CRS: EPSG:3310\n")
	assert.Contains(t, out, "## Geometry validity\n\n- all 8 district polygons valid\n")
	assert.Contains(t, out, "## Census blocks by HOLC grade\n")
	assert.Contains(t, out, "| Grade | Blocks | Percent |\n| --- | ---: | ---: |\n| A | 120 | 24.0% |\n")
	assert.Contains(t, out, "## Notes\n\n- Block percentages divide by the pre-join block count.\n")
}

func TestMarkdownOmitsEmptySections(t *testing.T) {
	out := Markdown(Document{Title: "r", City: "Los Angeles", TargetEPSG: 3310})

	assert.NotContains(t, out, "## Geometry validity")
	assert.NotContains(t, out, "## Notes")
	assert.NotContains(t, out, "Observation year", "year 0 means all years and is omitted")
}
