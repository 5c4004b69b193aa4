package dataset

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	_ "modernc.org/sqlite"

	"github.com/cityecology/redline/internal/model"
)

// GeoPackage application IDs: "GPKG" since 1.2, "GP10"/"GP11" before that.
const (
	gpkgApplicationID = 0x47504B47
	gp10ApplicationID = 0x47503130
	gp11ApplicationID = 0x47503131
)

// ReadGeoPackage reads EJ census-block polygons from a feature table in a
// GeoPackage. The file is opened read-only; the application_id/user_version
// pragmas are checked before anything else is trusted. The layer SRID comes
// from gpkg_geometry_columns and every geometry blob must agree with it.
func ReadGeoPackage(path, layer string) ([]model.Block, int, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: geopackage %s", path)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: open geopackage %s", path)
	}
	defer func() { _ = db.Close() }()

	if err := checkGeoPackagePragmas(db, path); err != nil {
		return nil, 0, err
	}

	var geomCol string
	var srid int
	err = db.QueryRow(
		`SELECT column_name, srs_id FROM gpkg_geometry_columns WHERE table_name = ?`, layer,
	).Scan(&geomCol, &srid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, eris.Errorf("dataset: geopackage %s has no registered layer %q", path, layer)
	}
	if err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: geopackage %s: read gpkg_geometry_columns", path)
	}

	query := fmt.Sprintf(
		`SELECT fid, "%s", county, pm25, low_income_pct, life_exp_pctile FROM "%s" ORDER BY fid`,
		geomCol, layer,
	)
	rows, err := db.Query(query)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: geopackage %s: query layer %q", path, layer)
	}
	defer func() { _ = rows.Close() }()

	var blocks []model.Block
	for rows.Next() {
		var (
			fid    int64
			blob   []byte
			county sql.NullString
			pm25   sql.NullFloat64
			lowInc sql.NullFloat64
			lifeEx sql.NullFloat64
		)
		if err := rows.Scan(&fid, &blob, &county, &pm25, &lowInc, &lifeEx); err != nil {
			return nil, 0, eris.Wrapf(err, "dataset: geopackage %s: scan layer %q", path, layer)
		}

		g, blobSRID, err := decodeGPKGGeometry(blob)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "dataset: geopackage %s fid %d", path, fid)
		}
		// 0 and -1 mean undefined in the blob header; anything else must
		// match the layer registration.
		if blobSRID > 0 && blobSRID != srid {
			return nil, 0, eris.Errorf(
				"dataset: geopackage %s fid %d: geometry declares srid %d, layer registered as %d",
				path, fid, blobSRID, srid)
		}

		blocks = append(blocks, model.Block{
			FID:           fid,
			County:        county.String,
			PM25:          nullableFloat(pm25),
			LowIncomePct:  nullableFloat(lowInc),
			LifeExpPctile: nullableFloat(lifeEx),
			Geom:          g,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrapf(err, "dataset: geopackage %s: iterate layer %q", path, layer)
	}
	return blocks, srid, nil
}

func checkGeoPackagePragmas(db *sql.DB, path string) error {
	var appID int32
	if err := db.QueryRow("PRAGMA application_id").Scan(&appID); err != nil {
		return eris.Wrapf(err, "dataset: geopackage %s: read application_id", path)
	}
	switch uint32(appID) {
	case gpkgApplicationID:
		var userVersion int
		if err := db.QueryRow("PRAGMA user_version").Scan(&userVersion); err != nil {
			return eris.Wrapf(err, "dataset: geopackage %s: read user_version", path)
		}
		// 10200 encodes format version 1.2.0, the first to use the GPKG id.
		if userVersion < 10200 {
			return eris.Errorf("dataset: %s: geopackage user_version %d below 10200", path, userVersion)
		}
	case gp10ApplicationID, gp11ApplicationID:
		// 1.0/1.1 files predate the user_version convention.
	default:
		return eris.Errorf("dataset: %s is not a geopackage (application_id 0x%08X)", path, uint32(appID))
	}
	return nil
}

// decodeGPKGGeometry unwraps the GeoPackage geometry blob: a GP magic,
// version and flags header, the header SRID, an optional envelope, then
// standard WKB.
func decodeGPKGGeometry(blob []byte) (geom.T, int, error) {
	if len(blob) < 8 {
		return nil, 0, eris.New("geometry blob shorter than header")
	}
	if blob[0] != 'G' || blob[1] != 'P' {
		return nil, 0, eris.Errorf("bad geometry magic 0x%02X%02X", blob[0], blob[1])
	}
	flags := blob[3]
	if flags&0x20 != 0 {
		return nil, 0, eris.New("extended geometry encoding not supported")
	}
	if flags&0x10 != 0 {
		return nil, 0, eris.New("empty geometry")
	}

	var order binary.ByteOrder = binary.BigEndian
	if flags&0x01 != 0 {
		order = binary.LittleEndian
	}
	srid := int(int32(order.Uint32(blob[4:8])))

	envelopeSizes := [...]int{0, 32, 48, 48, 64}
	envCode := int(flags >> 1 & 0x07)
	if envCode >= len(envelopeSizes) {
		return nil, 0, eris.Errorf("invalid envelope indicator %d", envCode)
	}
	offset := 8 + envelopeSizes[envCode]
	if len(blob) <= offset {
		return nil, 0, eris.New("geometry blob truncated before wkb")
	}

	g, err := wkb.Unmarshal(blob[offset:])
	if err != nil {
		return nil, 0, eris.Wrap(err, "decode wkb")
	}
	return g, srid, nil
}

func nullableFloat(v sql.NullFloat64) model.Float {
	if !v.Valid {
		return model.Float{}
	}
	return model.NewFloat(v.Float64)
}
