package dataset

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/cityecology/redline/internal/model"
)

// ReadObservations reads bird-observation points from a shapefile. The year
// and species attributes are resolved by name, case-insensitively. Records
// with a non-point shape or an unparseable year are skipped and counted, not
// fatal; only I/O and format errors abort. The SRID comes from the .prj
// sidecar, defaulting to 4326 when absent.
func ReadObservations(path string) ([]model.Observation, int, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	fieldIdx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		fieldIdx[strings.ToLower(name)] = i
	}
	yearIdx, ok := fieldIdx["year"]
	if !ok {
		return nil, 0, eris.Errorf("dataset: shapefile %s has no year field", path)
	}
	speciesIdx, ok := fieldIdx["species"]
	if !ok {
		return nil, 0, eris.Errorf("dataset: shapefile %s has no species field", path)
	}

	var obs []model.Observation
	var skippedShape, skippedYear int

	for reader.Next() {
		_, shape := reader.Shape()

		var x, y float64
		switch s := shape.(type) {
		case *shp.Point:
			x, y = s.X, s.Y
		case *shp.PointM:
			x, y = s.X, s.Y
		case *shp.PointZ:
			x, y = s.X, s.Y
		default:
			skippedShape++
			continue
		}

		yearRaw := strings.TrimSpace(strings.TrimRight(reader.Attribute(yearIdx), "\x00"))
		year, err := strconv.Atoi(yearRaw)
		if err != nil {
			skippedYear++
			continue
		}

		obs = append(obs, model.Observation{
			Year:    year,
			Species: strings.TrimSpace(strings.TrimRight(reader.Attribute(speciesIdx), "\x00")),
			Geom:    geom.NewPointFlat(geom.XY, []float64{x, y}),
		})
	}

	if skippedShape > 0 || skippedYear > 0 {
		zap.L().With(zap.String("component", "dataset.shapefile")).Warn("skipped shapefile records",
			zap.String("path", path),
			zap.Int("non_point", skippedShape),
			zap.Int("bad_year", skippedYear),
		)
	}

	return obs, prjSRID(path), nil
}

// prjSRID sniffs the EPSG code from the .prj sidecar. Observation exports
// are WGS84 lon/lat in practice; the sniff only distinguishes the
// projections the CRS registry knows.
func prjSRID(shpPath string) int {
	wkt, err := os.ReadFile(strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj")
	if err != nil {
		return 4326
	}
	s := string(wkt)
	switch {
	case strings.Contains(s, "Pseudo_Mercator") || strings.Contains(s, "Web_Mercator"):
		return 3857
	case strings.Contains(s, "California") && strings.Contains(s, "Albers"):
		return 3310
	case strings.Contains(s, "Contiguous") && strings.Contains(s, "Albers"):
		return 5070
	default:
		return 4326
	}
}
