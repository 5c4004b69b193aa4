package analysis

import (
	geom "github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/cityecology/redline/internal/model"
	"github.com/cityecology/redline/internal/spatial"
)

// DistrictBirdCounts counts, for every district, the observation points that
// intersect it (optionally filtered to one year) and assigns each district a
// choropleth bin. The result is index-aligned with the district layer. A
// point inside several overlapping districts counts into each of them.
func DistrictBirdCounts(districts model.DistrictLayer, obs model.ObservationLayer, year int, bins Bins) ([]model.DistrictCount, error) {
	log := zap.L().With(zap.String("component", "analysis.counts"))

	filtered := make([]geom.T, 0, len(obs.Observations))
	for _, o := range obs.Observations {
		if year != 0 && o.Year != year {
			continue
		}
		filtered = append(filtered, o.Geom)
	}

	right := districtGeoms(districts)
	pairs, err := spatial.LeftJoin(filtered, obs.SRID, right, districts.SRID)
	if err != nil {
		return nil, err
	}
	counts := spatial.CountMatches(pairs, len(right))

	out := make([]model.DistrictCount, len(counts))
	for i, n := range counts {
		d := districts.Districts[i]
		if bins.Overflows(n) {
			log.Warn("observation count beyond top bin edge, clamping",
				zap.String("district", d.ID),
				zap.Int("count", n))
		}
		out[i] = model.DistrictCount{
			DistrictID: d.ID,
			Grade:      d.Grade,
			Count:      n,
			Bin:        bins.Label(n),
		}
	}
	return out, nil
}
