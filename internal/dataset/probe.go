package dataset

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/rotisserie/eris"
)

// The probes answer the status command: feature count and declared SRID
// from headers and catalog tables alone, no geometry decoding.

// ProbeGeoPackage returns the feature count and registered SRID of a layer.
func ProbeGeoPackage(path, layer string) (int, int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: geopackage %s", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: open geopackage %s", path)
	}
	defer func() { _ = db.Close() }()

	if err := checkGeoPackagePragmas(db, path); err != nil {
		return 0, 0, err
	}

	var srid int
	err = db.QueryRow(
		`SELECT srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, layer,
	).Scan(&srid)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, eris.Errorf("dataset: geopackage %s has no registered layer %q", path, layer)
	}
	if err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: geopackage %s: read gpkg_geometry_columns", path)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM "` + layer + `"`).Scan(&count); err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: geopackage %s: count layer %q", path, layer)
	}
	return count, srid, nil
}

// ProbeGeoJSON returns the feature count and SRID of a FeatureCollection
// without decoding feature geometries.
func ProbeGeoJSON(path string) (int, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: read geojson %s", path)
	}

	var doc struct {
		Type     string            `json:"type"`
		CRS      *geojsonCRS       `json:"crs"`
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: parse geojson %s", path)
	}
	if doc.Type != "FeatureCollection" {
		return 0, 0, eris.Errorf("dataset: %s: expected FeatureCollection, got %q", path, doc.Type)
	}

	srid, err := geojsonSRID(doc.CRS)
	if err != nil {
		return 0, 0, err
	}
	return len(doc.Features), srid, nil
}

// ProbeShapefile returns the record count and SRID of a shapefile. The count
// comes from the .shx index (fixed 100-byte header, 8 bytes per record), the
// SRID from the .prj sidecar.
func ProbeShapefile(path string) (int, int, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: shapefile %s", path)
	}

	shx := strings.TrimSuffix(path, ".shp") + ".shx"
	info, err := os.Stat(shx)
	if err != nil {
		return 0, 0, eris.Wrapf(err, "dataset: shapefile index %s", shx)
	}
	size := info.Size()
	if size < 100 || (size-100)%8 != 0 {
		return 0, 0, eris.Errorf("dataset: %s: not a shapefile index (%d bytes)", shx, size)
	}

	return int((size - 100) / 8), prjSRID(path), nil
}
