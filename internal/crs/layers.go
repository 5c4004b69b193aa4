package crs

import (
	"github.com/rotisserie/eris"
	geom "github.com/twpayne/go-geom"

	"github.com/cityecology/redline/internal/model"
)

// ReprojectBlocks reprojects a block layer from the caller's expected CRS to
// the target CRS. The layer's declared SRID must match the expected source;
// a mismatch means two different ideas of the data's CRS are in play, which
// is exactly the silent-wrong-join hazard, so it is a hard error.
func ReprojectBlocks(layer model.BlockLayer, from, to int) (model.BlockLayer, error) {
	if layer.SRID != from {
		return model.BlockLayer{}, eris.Errorf("crs: block layer declares epsg:%d, caller expected epsg:%d", layer.SRID, from)
	}
	out := model.BlockLayer{Blocks: make([]model.Block, len(layer.Blocks)), SRID: to}
	for i, b := range layer.Blocks {
		g, err := Reproject(b.Geom, from, to)
		if err != nil {
			return model.BlockLayer{}, eris.Wrapf(err, "crs: block fid %d", b.FID)
		}
		b.Geom = g
		out.Blocks[i] = b
	}
	return out, nil
}

// ReprojectDistricts reprojects a district layer; see ReprojectBlocks.
func ReprojectDistricts(layer model.DistrictLayer, from, to int) (model.DistrictLayer, error) {
	if layer.SRID != from {
		return model.DistrictLayer{}, eris.Errorf("crs: district layer declares epsg:%d, caller expected epsg:%d", layer.SRID, from)
	}
	out := model.DistrictLayer{Districts: make([]model.District, len(layer.Districts)), SRID: to}
	for i, d := range layer.Districts {
		g, err := Reproject(d.Geom, from, to)
		if err != nil {
			return model.DistrictLayer{}, eris.Wrapf(err, "crs: district %s", d.ID)
		}
		d.Geom = g
		out.Districts[i] = d
	}
	return out, nil
}

// ReprojectObservations reprojects an observation layer; see ReprojectBlocks.
func ReprojectObservations(layer model.ObservationLayer, from, to int) (model.ObservationLayer, error) {
	if layer.SRID != from {
		return model.ObservationLayer{}, eris.Errorf("crs: observation layer declares epsg:%d, caller expected epsg:%d", layer.SRID, from)
	}
	out := model.ObservationLayer{Observations: make([]model.Observation, len(layer.Observations)), SRID: to}
	for i, o := range layer.Observations {
		g, err := Reproject(o.Geom, from, to)
		if err != nil {
			return model.ObservationLayer{}, eris.Wrapf(err, "crs: observation %d", i)
		}
		pt, ok := g.(*geom.Point)
		if !ok {
			return model.ObservationLayer{}, eris.Errorf("crs: observation %d reprojected to %T, want point", i, g)
		}
		o.Geom = pt
		out.Observations[i] = o
	}
	return out, nil
}
