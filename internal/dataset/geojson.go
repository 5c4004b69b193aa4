// Package dataset reads the three source formats into typed records: EJ
// census blocks from a GeoPackage, HOLC districts from GeoJSON, and bird
// observations from a shapefile. Loaders decode and nothing more; validation
// and reprojection happen downstream. Each loader returns the collection
// together with its declared SRID.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/model"
)

type geojsonDoc struct {
	Type     string           `json:"type"`
	CRS      *geojsonCRS      `json:"crs"`
	Features []geojsonFeature `json:"features"`
}

// geojsonCRS is the legacy 2008-draft crs member. RFC 7946 removed it; when
// present it overrides the default 4326.
type geojsonCRS struct {
	Properties struct {
		Name string `json:"name"`
	} `json:"properties"`
}

type geojsonFeature struct {
	Type       string           `json:"type"`
	ID         any              `json:"id"`
	Properties map[string]any   `json:"properties"`
	Geometry   *geojsonGeometry `json:"geometry"`
}

type geojsonGeometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadHOLCGeoJSON reads HOLC district polygons from a GeoJSON
// FeatureCollection. Each feature needs a polygonal geometry and city/grade
// properties; a null or non-polygonal geometry is fatal. The returned SRID is
// 4326 unless a legacy crs member names another EPSG code.
func ReadHOLCGeoJSON(path string) ([]model.District, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: read geojson %s", path)
	}

	var doc geojsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: parse geojson %s", path)
	}
	if doc.Type != "FeatureCollection" {
		return nil, 0, eris.Errorf("dataset: %s: expected FeatureCollection, got %q", path, doc.Type)
	}

	srid, err := geojsonSRID(doc.CRS)
	if err != nil {
		return nil, 0, err
	}

	districts := make([]model.District, 0, len(doc.Features))
	for i, f := range doc.Features {
		g, err := polygonalGeometry(f.Geometry)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "dataset: %s feature %d", path, i)
		}
		districts = append(districts, model.District{
			ID:    featureID(f, i),
			City:  stringProp(f.Properties, "city"),
			Grade: stringProp(f.Properties, "grade", "holc_grade"),
			Geom:  g,
		})
	}
	return districts, srid, nil
}

func geojsonSRID(crs *geojsonCRS) (int, error) {
	if crs == nil {
		return 4326, nil
	}
	name := crs.Properties.Name
	// urn:ogc:def:crs:OGC:1.3:CRS84 is axis-swapped 4326; coordinates in the
	// file are lon/lat either way.
	if name == "" || strings.Contains(name, "CRS84") {
		return 4326, nil
	}
	code, err := strconv.Atoi(name[strings.LastIndex(name, ":")+1:])
	if err != nil {
		return 0, eris.Errorf("dataset: unrecognized geojson crs %q", name)
	}
	return code, nil
}

func polygonalGeometry(g *geojsonGeometry) (geom.T, error) {
	if g == nil {
		return nil, eris.New("null geometry")
	}
	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return nil, eris.Wrap(err, "polygon coordinates")
		}
		return polygonFromRings(rings)
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return nil, eris.Wrap(err, "multipolygon coordinates")
		}
		if len(polys) == 0 {
			return nil, eris.New("empty multipolygon")
		}
		var flat []float64
		endss := make([][]int, 0, len(polys))
		for _, rings := range polys {
			p, err := polygonFromRings(rings)
			if err != nil {
				return nil, err
			}
			base := len(flat)
			flat = append(flat, p.FlatCoords()...)
			ends := make([]int, len(p.Ends()))
			for i, e := range p.Ends() {
				ends[i] = base + e
			}
			endss = append(endss, ends)
		}
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss), nil
	default:
		return nil, eris.Errorf("geometry must be polygonal, got %q", g.Type)
	}
}

func polygonFromRings(rings [][][]float64) (*geom.Polygon, error) {
	if len(rings) == 0 {
		return nil, eris.New("empty polygon")
	}
	var flat []float64
	ends := make([]int, 0, len(rings))
	for _, ring := range rings {
		for _, pos := range ring {
			if len(pos) < 2 {
				return nil, eris.New("position with fewer than two ordinates")
			}
			flat = append(flat, pos[0], pos[1])
		}
		ends = append(ends, len(flat))
	}
	return geom.NewPolygonFlat(geom.XY, flat, ends), nil
}

func featureID(f geojsonFeature, index int) string {
	if id := stringProp(f.Properties, "holc_id"); id != "" {
		return id
	}
	if f.ID != nil {
		return strings.TrimSpace(fmt.Sprint(f.ID))
	}
	return strconv.Itoa(index)
}

func stringProp(props map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := props[k].(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
