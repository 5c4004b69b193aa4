package report

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// WriteWorkbook writes one sheet per table. Header rows are bold.
func WriteWorkbook(path string, tables []Table) error {
	f := xlsx.NewFile()

	bold := xlsx.NewStyle()
	bold.Font.Bold = true
	bold.ApplyFont = true

	for _, t := range tables {
		sheet, err := f.AddSheet(sheetName(t.Title))
		if err != nil {
			return eris.Wrapf(err, "report: add sheet for %q", t.Title)
		}
		header := sheet.AddRow()
		for _, c := range t.Columns {
			cell := header.AddCell()
			cell.Value = c
			cell.SetStyle(bold)
		}
		for _, row := range t.Rows {
			r := sheet.AddRow()
			for _, v := range row {
				r.AddCell().Value = v
			}
		}
	}
	return eris.Wrapf(f.Save(path), "report: save workbook %s", path)
}

// sheetName trims a table title to the 31 characters xlsx allows and strips
// the characters it forbids.
func sheetName(title string) string {
	name := strings.NewReplacer(
		":", "", "\\", "", "/", "", "?", "", "*", "", "[", "", "]", "",
	).Replace(title)
	runes := []rune(name)
	if len(runes) > 31 {
		name = string(runes[:31])
	}
	return name
}
