package report

import (
	"fmt"
	"math"
	"strings"

	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/analysis"
	"github.com/cityecology/redline/internal/crs"
	"github.com/cityecology/redline/internal/model"
)

const (
	mapWidth  = 960.0
	mapHeight = 720.0
	mapMargin = 40.0

	chartWidth  = 720.0
	chartHeight = 480.0
)

// HOLC cartography fills, matching the original security-map colors.
var gradeFills = map[string]string{
	model.GradeA: "#76a865",
	model.GradeB: "#7cb5bd",
	model.GradeC: "#e8d565",
	model.GradeD: "#d9838d",
}

const ungradedFill = "#d4d4d4"

// binRamp is the sequential fill ramp for count bins, light to dark.
// Bins past the ramp clamp to the darkest entry.
var binRamp = []string{"#fee6ce", "#fdae6b", "#e6550d", "#a63603", "#7f2704", "#5c1a02"}

// GradeFill returns the cartographic fill for a HOLC grade, grey when the
// grade is unknown or empty.
func GradeFill(grade string) string {
	if f, ok := gradeFills[grade]; ok {
		return f
	}
	return ungradedFill
}

func binFill(i int) string {
	if i < 0 {
		i = 0
	}
	if i >= len(binRamp) {
		i = len(binRamp) - 1
	}
	return binRamp[i]
}

// ChoroplethByGrade draws the district polygons filled by HOLC grade.
func ChoroplethByGrade(districts model.DistrictLayer, title string) string {
	v := newViewport(layerBounds(districts.Districts), mapWidth, mapHeight, mapMargin)

	var b strings.Builder
	svgOpen(&b, mapWidth, mapHeight, title)

	present := make(map[string]bool)
	for _, d := range districts.Districts {
		if d.Geom == nil {
			continue
		}
		present[d.Grade] = true
		fmt.Fprintf(&b,
			`  <path d="%s" fill="%s" fill-opacity="0.8" stroke="#333333" stroke-width="0.7" fill-rule="evenodd"><title>%s (%s)</title></path>`+"\n",
			polygonalPath(d.Geom, v), GradeFill(d.Grade), escape(d.ID), escape(d.Grade))
	}

	var entries []legendEntry
	for _, g := range model.Grades() {
		if present[g] {
			entries = append(entries, legendEntry{label: "Grade " + g, fill: gradeFills[g]})
		}
	}
	legend(&b, entries)
	northAndScale(&b, v, districts.SRID)

	b.WriteString("</svg>\n")
	return b.String()
}

// ChoroplethByBin draws the district polygons filled by their observation
// count bin. Counts are matched to districts by ID; a district without a
// count row falls in the lowest bin.
func ChoroplethByBin(districts model.DistrictLayer, counts []model.DistrictCount, bins analysis.Bins, title string) string {
	byID := make(map[string]int, len(counts))
	for _, c := range counts {
		byID[c.DistrictID] = c.Count
	}

	v := newViewport(layerBounds(districts.Districts), mapWidth, mapHeight, mapMargin)

	var b strings.Builder
	svgOpen(&b, mapWidth, mapHeight, title)

	for _, d := range districts.Districts {
		if d.Geom == nil {
			continue
		}
		n := byID[d.ID]
		fmt.Fprintf(&b,
			`  <path d="%s" fill="%s" fill-opacity="0.85" stroke="#333333" stroke-width="0.7" fill-rule="evenodd"><title>%s: %d</title></path>`+"\n",
			polygonalPath(d.Geom, v), binFill(bins.Index(n)), escape(d.ID), n)
	}

	entries := make([]legendEntry, 0, bins.Len())
	for i, label := range bins.Labels() {
		entries = append(entries, legendEntry{label: label, fill: binFill(i)})
	}
	legend(&b, entries)
	northAndScale(&b, v, districts.SRID)

	b.WriteString("</svg>\n")
	return b.String()
}

// BarChart draws one bar per label with gridlines, axis labels, and a value
// label above each bar. fills may be nil or shorter than values; missing
// entries fall back to a neutral blue.
func BarChart(title, unit string, labels []string, values []float64, fills []string) string {
	const (
		left   = 70.0
		right  = 20.0
		top    = 50.0
		bottom = 60.0
	)
	plotW := chartWidth - left - right
	plotH := chartHeight - top - bottom

	maxV := 0.0
	for _, v := range values {
		if v > maxV {
			maxV = v
		}
	}
	maxY := niceCeil(maxV)
	if maxY == 0 {
		maxY = 1
	}

	var b strings.Builder
	svgOpen(&b, chartWidth, chartHeight, title)

	for i := 0; i <= 4; i++ {
		frac := float64(i) / 4
		y := top + plotH*(1-frac)
		fmt.Fprintf(&b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#dddddd"/>`+"\n",
			left, y, chartWidth-right, y)
		fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" font-size="12" text-anchor="end" fill="#444444">%g</text>`+"\n",
			left-8, y+4, maxY*frac)
	}
	fmt.Fprintf(&b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333"/>`+"\n",
		left, top, left, top+plotH)
	fmt.Fprintf(&b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333"/>`+"\n",
		left, top+plotH, chartWidth-right, top+plotH)

	if len(labels) > 0 {
		band := plotW / float64(len(labels))
		barW := band * 0.6
		for i, v := range values {
			if i >= len(labels) {
				break
			}
			h := plotH * v / maxY
			x := left + band*float64(i) + (band-barW)/2
			y := top + plotH - h
			fill := "#4878a8"
			if i < len(fills) && fills[i] != "" {
				fill = fills[i]
			}
			fmt.Fprintf(&b, `  <rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s" stroke="#333333" stroke-width="0.5"/>`+"\n",
				x, y, barW, h, fill)
			fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" font-size="12" text-anchor="middle" fill="#222222">%.1f</text>`+"\n",
				x+barW/2, y-6, v)
			fmt.Fprintf(&b, `  <text x="%.1f" y="%.1f" font-size="13" text-anchor="middle" fill="#222222">%s</text>`+"\n",
				x+barW/2, top+plotH+20, escape(labels[i]))
		}
	}

	fmt.Fprintf(&b, `  <text x="16" y="%.1f" font-size="13" fill="#444444" transform="rotate(-90 16 %.1f)" text-anchor="middle">%s</text>`+"\n",
		top+plotH/2, top+plotH/2, escape(unit))

	b.WriteString("</svg>\n")
	return b.String()
}

type viewport struct {
	minX, minY float64
	scale      float64
	height     float64
	margin     float64
}

func newViewport(b *geom.Bounds, width, height, margin float64) viewport {
	dx := b.Max(0) - b.Min(0)
	dy := b.Max(1) - b.Min(1)
	if dx <= 0 {
		dx = 1
	}
	if dy <= 0 {
		dy = 1
	}
	scale := math.Min((width-2*margin)/dx, (height-2*margin)/dy)
	return viewport{minX: b.Min(0), minY: b.Min(1), scale: scale, height: height, margin: margin}
}

func (v viewport) x(wx float64) float64 { return v.margin + (wx-v.minX)*v.scale }

// y flips: world Y grows north, pixel Y grows down.
func (v viewport) y(wy float64) float64 { return v.height - v.margin - (wy-v.minY)*v.scale }

func layerBounds(districts []model.District) *geom.Bounds {
	b := geom.NewBounds(geom.XY)
	for _, d := range districts {
		if d.Geom != nil {
			b = b.Extend(d.Geom)
		}
	}
	if b.IsEmpty() {
		b = b.Set(0, 0, 1, 1)
	}
	return b
}

func polygonalPath(g geom.T, v viewport) string {
	var b strings.Builder
	switch p := g.(type) {
	case *geom.Polygon:
		writeRings(&b, p.FlatCoords(), p.Ends(), 0, v)
	case *geom.MultiPolygon:
		flat := p.FlatCoords()
		start := 0
		for _, ends := range p.Endss() {
			writeRings(&b, flat, ends, start, v)
			if len(ends) > 0 {
				start = ends[len(ends)-1]
			}
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func writeRings(b *strings.Builder, flat []float64, ends []int, start int, v viewport) {
	prev := start
	for _, end := range ends {
		for i := prev; i < end; i += 2 {
			cmd := "L"
			if i == prev {
				cmd = "M"
			}
			fmt.Fprintf(b, "%s%.1f %.1f ", cmd, v.x(flat[i]), v.y(flat[i+1]))
		}
		b.WriteString("Z ")
		prev = end
	}
}

type legendEntry struct {
	label string
	fill  string
}

func legend(b *strings.Builder, entries []legendEntry) {
	if len(entries) == 0 {
		return
	}
	x := mapMargin
	y := mapHeight - mapMargin - 18*float64(len(entries))
	fmt.Fprintf(b, `  <rect x="%.1f" y="%.1f" width="150" height="%.1f" fill="#ffffff" fill-opacity="0.85"/>`+"\n",
		x-6, y-6, 18*float64(len(entries))+10)
	for i, e := range entries {
		ey := y + 18*float64(i)
		fmt.Fprintf(b, `  <rect x="%.1f" y="%.1f" width="12" height="12" fill="%s" stroke="#333333" stroke-width="0.5"/>`+"\n",
			x, ey, e.fill)
		fmt.Fprintf(b, `  <text x="%.1f" y="%.1f" font-size="12" fill="#222222">%s</text>`+"\n",
			x+18, ey+10, escape(e.label))
	}
}

func northAndScale(b *strings.Builder, v viewport, srid int) {
	nx := mapWidth - mapMargin - 10
	fmt.Fprintf(b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333" stroke-width="1.5"/>`+"\n",
		nx, mapMargin+26, nx, mapMargin+6)
	fmt.Fprintf(b, `  <text x="%.1f" y="%.1f" font-size="14" text-anchor="middle" fill="#333333">N</text>`+"\n",
		nx, mapMargin+40)

	world := 150.0 / v.scale
	nice := niceFloor(world)
	px := nice * v.scale
	sx := mapWidth - mapMargin - px
	sy := mapHeight - mapMargin + 14
	fmt.Fprintf(b, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333333" stroke-width="2"/>`+"\n",
		sx, sy, sx+px, sy)
	fmt.Fprintf(b, `  <text x="%.1f" y="%.1f" font-size="11" text-anchor="middle" fill="#333333">%s</text>`+"\n",
		sx+px/2, sy+14, scaleLabel(nice, srid))
}

// scaleLabel renders the bar length in the units of the layer CRS: meters
// for projected systems, degrees for geographic ones.
func scaleLabel(length float64, srid int) string {
	if crs.Projected(srid) {
		if length >= 1000 {
			return fmt.Sprintf("%g km", length/1000)
		}
		return fmt.Sprintf("%g m", length)
	}
	return fmt.Sprintf("%g°", length)
}

// niceFloor rounds down to a 1-2-5 progression value.
func niceFloor(v float64) float64 {
	if v <= 0 {
		return 1
	}
	base := math.Pow(10, math.Floor(math.Log10(v)))
	switch {
	case v >= 5*base:
		return 5 * base
	case v >= 2*base:
		return 2 * base
	default:
		return base
	}
}

// niceCeil rounds up to a 1-2-5 progression value.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return 0
	}
	base := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if m*base >= v {
			return m * base
		}
	}
	return 10 * base
}

func svgOpen(b *strings.Builder, width, height float64, title string) {
	fmt.Fprintf(b, `<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" font-family="sans-serif">`+"\n",
		width, height, width, height)
	fmt.Fprintf(b, `  <rect width="%.0f" height="%.0f" fill="#ffffff"/>`+"\n", width, height)
	fmt.Fprintf(b, `  <text x="%.0f" y="28" font-size="18" font-weight="bold" text-anchor="middle">%s</text>`+"\n",
		width/2, escape(title))
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return xmlEscaper.Replace(s) }
