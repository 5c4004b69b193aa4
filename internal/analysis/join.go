package analysis

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/model"
	"github.com/cityecology/redline/internal/spatial"
)

// JoinBlocksDistricts left-joins census blocks against HOLC districts with
// the intersects predicate and attaches the matched district's grade to each
// block row. Both layers must declare the same CRS.
func JoinBlocksDistricts(blocks model.BlockLayer, districts model.DistrictLayer) ([]model.BlockDistrictRow, error) {
	left := make([]geom.T, len(blocks.Blocks))
	for i, b := range blocks.Blocks {
		left[i] = b.Geom
	}
	right := districtGeoms(districts)

	pairs, err := spatial.LeftJoin(left, blocks.SRID, right, districts.SRID)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: join blocks to districts")
	}

	rows := make([]model.BlockDistrictRow, 0, len(pairs))
	for _, p := range pairs {
		row := model.BlockDistrictRow{Block: blocks.Blocks[p.Left]}
		if p.Matched() {
			d := districts.Districts[p.Right]
			row.DistrictID = d.ID
			row.Grade = d.Grade
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// JoinObservationsDistricts left-joins observation points against HOLC
// districts; each row carries the matched district's grade, or an empty
// grade for points outside every district.
func JoinObservationsDistricts(obs model.ObservationLayer, districts model.DistrictLayer) ([]model.ObservationDistrictRow, error) {
	left := make([]geom.T, len(obs.Observations))
	for i, o := range obs.Observations {
		left[i] = o.Geom
	}
	right := districtGeoms(districts)

	pairs, err := spatial.LeftJoin(left, obs.SRID, right, districts.SRID)
	if err != nil {
		return nil, eris.Wrap(err, "analysis: join observations to districts")
	}

	rows := make([]model.ObservationDistrictRow, 0, len(pairs))
	for _, p := range pairs {
		row := model.ObservationDistrictRow{Observation: obs.Observations[p.Left]}
		if p.Matched() {
			d := districts.Districts[p.Right]
			row.DistrictID = d.ID
			row.Grade = d.Grade
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func districtGeoms(districts model.DistrictLayer) []geom.T {
	geoms := make([]geom.T, len(districts.Districts))
	for i, d := range districts.Districts {
		geoms[i] = d.Geom
	}
	return geoms
}
