package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cityecology/redline/internal/analysis"
	"github.com/cityecology/redline/internal/model"
)

func TestGradeShareTable(t *testing.T) {
	tbl := GradeShareTable("Census blocks by HOLC grade", "Blocks", []analysis.GradeShare{
		{Grade: "A", Count: 1234, Percent: 12.34},
		{Grade: "D", Count: 5, Percent: 0.05},
	})

	assert.Equal(t, []string{"Grade", "Blocks", "Percent"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"A", "1,234", "12.3%"}, tbl.Rows[0])
	assert.Equal(t, []string{"D", "5", "0.1%"}, tbl.Rows[1])
}

func TestGradeCountTable(t *testing.T) {
	tbl := GradeCountTable("Total bird observations by HOLC grade", "Observations", []analysis.GradeShare{
		{Grade: "A", Count: 12000, Percent: 60.0},
		{Grade: "B", Count: 8000, Percent: 40.0},
	})

	assert.Equal(t, []string{"Grade", "Observations"}, tbl.Columns)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"A", "12,000"}, tbl.Rows[0])
	assert.Equal(t, []string{"B", "8,000"}, tbl.Rows[1])
}

func TestIndicatorMeanTableNullMeans(t *testing.T) {
	tbl := IndicatorMeanTable("EJ indicators by grade", []analysis.GradeIndicators{
		{
			Grade:            "C",
			Rows:             3,
			MeanPM25:         model.NewFloat(11.456),
			MeanLowIncomePct: model.Float{},
		},
	})

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "11.46", tbl.Rows[0][2])
	assert.Equal(t, "n/a", tbl.Rows[0][3], "a null mean renders as n/a, not zero")
}

func TestDistrictCountTable(t *testing.T) {
	tbl := DistrictCountTable("Observations per district", []model.DistrictCount{
		{DistrictID: "A1", Grade: "A", Count: 42, Bin: "0–50"},
	})

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, []string{"A1", "A", "42", "0–50"}, tbl.Rows[0])
}

func TestRenderAlignsColumns(t *testing.T) {
	out := Render(Table{
		Title:   "t",
		Columns: []string{"Grade", "Blocks"},
		Rows: [][]string{
			{"A", "1,234"},
			{"B", "7"},
		},
		Right: []bool{false, true},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "t", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "----"))
	assert.Equal(t, "Grade  Blocks  ", lines[2])
	assert.Equal(t, "A       1,234  ", lines[4], "numeric column aligns right")
	assert.Equal(t, "B           7  ", lines[5])
}

func TestRenderCountsRunesNotBytes(t *testing.T) {
	out := Render(Table{
		Title:   "bins",
		Columns: []string{"Bin"},
		Rows: [][]string{
			{"0–50"},   // en-dash is multi-byte
			{"51–150"},
		},
	})

	lines := strings.Split(out, "\n")
	assert.Equal(t, "Bin     ", lines[2])
	assert.Equal(t, "0–50    ", lines[4])
	assert.Equal(t, "51–150  ", lines[5])
}
