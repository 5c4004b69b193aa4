// Package analysis turns joined spatial records into the grouped summaries
// the report renders: percentage-of-total tables, null-safe indicator means,
// and derived per-district observation counts. Every function takes inputs
// and returns new values; nothing mutates its arguments.
package analysis

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/cityecology/redline/internal/model"
)

// Denominator selects the population a percentage table divides by. The two
// policies are intentionally different and both are load-bearing: dividing
// the EJ table by joined rows would let a block that straddles two districts
// count twice.
type Denominator int

const (
	// DenominatorLeftTotal divides by the pre-join size of the left
	// collection.
	DenominatorLeftTotal Denominator = iota
	// DenominatorMatched divides by the number of joined rows that carry a
	// grade.
	DenominatorMatched
)

// GradeShare is one row of a percentage-by-grade table. Only grades present
// in the data appear; an absent grade yields no row rather than a 0% row.
type GradeShare struct {
	Grade   string  `json:"grade"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// GradeIndicators is one row of the mean-indicator-by-grade table. A mean is
// null when the group held no non-null values for that indicator.
type GradeIndicators struct {
	Grade             string      `json:"grade"`
	Rows              int         `json:"rows"`
	MeanPM25          model.Float `json:"mean_pm25"`
	MeanLowIncomePct  model.Float `json:"mean_low_income_pct"`
	MeanLifeExpPctile model.Float `json:"mean_life_exp_pctile"`
}

// GradeShares groups the grade labels of joined rows and computes each
// grade's share of the chosen denominator. Empty labels mark rows whose left
// geometry matched no district; they are excluded from every group and from
// the matched-total denominator, but still count toward leftTotal, which the
// caller measured before the join.
func GradeShares(grades []string, leftTotal int, mode Denominator) ([]GradeShare, error) {
	counts := make(map[string]int)
	matched := 0
	for _, g := range grades {
		if g == "" {
			continue
		}
		counts[g]++
		matched++
	}

	var denom int
	switch mode {
	case DenominatorLeftTotal:
		denom = leftTotal
	case DenominatorMatched:
		denom = matched
	default:
		return nil, eris.Errorf("analysis: unknown denominator mode %d", mode)
	}

	keys := make([]string, 0, len(counts))
	for g := range counts {
		keys = append(keys, g)
	}
	sort.Strings(keys)

	shares := make([]GradeShare, 0, len(keys))
	for _, g := range keys {
		s := GradeShare{Grade: g, Count: counts[g]}
		if denom > 0 {
			s.Percent = float64(counts[g]) / float64(denom) * 100
		}
		shares = append(shares, s)
	}
	return shares, nil
}

// BlockGradeShares is the EJ percentage table: what share of the city's
// census blocks falls in each HOLC grade. The denominator is the pre-join
// block count, so fan-out rows cannot inflate the total.
func BlockGradeShares(rows []model.BlockDistrictRow, leftTotal int) ([]GradeShare, error) {
	grades := make([]string, len(rows))
	for i, r := range rows {
		grades[i] = r.Grade
	}
	return GradeShares(grades, leftTotal, DenominatorLeftTotal)
}

// ObservationGradeShares is the bird percentage table: of the observations
// that landed in a graded district (optionally filtered to one year), what
// share fell in each grade. Here the denominator is the matched total.
func ObservationGradeShares(rows []model.ObservationDistrictRow, year int) ([]GradeShare, error) {
	grades := make([]string, 0, len(rows))
	for _, r := range rows {
		if year != 0 && r.Observation.Year != year {
			continue
		}
		grades = append(grades, r.Grade)
	}
	return GradeShares(grades, 0, DenominatorMatched)
}

// IndicatorMeans computes per-grade arithmetic means of the three EJ
// indicators. Null values are excluded from both numerator and denominator;
// they are never treated as zero.
func IndicatorMeans(rows []model.BlockDistrictRow) []GradeIndicators {
	type acc struct {
		rows    int
		sums    [3]float64
		nonNull [3]int
	}
	groups := make(map[string]*acc)
	for _, r := range rows {
		if r.Grade == "" {
			continue
		}
		a := groups[r.Grade]
		if a == nil {
			a = &acc{}
			groups[r.Grade] = a
		}
		a.rows++
		for i, f := range [3]model.Float{r.Block.PM25, r.Block.LowIncomePct, r.Block.LifeExpPctile} {
			if f.Valid {
				a.sums[i] += f.Value
				a.nonNull[i]++
			}
		}
	}

	keys := make([]string, 0, len(groups))
	for g := range groups {
		keys = append(keys, g)
	}
	sort.Strings(keys)

	out := make([]GradeIndicators, 0, len(keys))
	for _, g := range keys {
		a := groups[g]
		out = append(out, GradeIndicators{
			Grade:             g,
			Rows:              a.rows,
			MeanPM25:          meanOf(a.sums[0], a.nonNull[0]),
			MeanLowIncomePct:  meanOf(a.sums[1], a.nonNull[1]),
			MeanLifeExpPctile: meanOf(a.sums[2], a.nonNull[2]),
		})
	}
	return out
}

func meanOf(sum float64, n int) model.Float {
	if n == 0 {
		return model.Float{}
	}
	return model.NewFloat(sum / float64(n))
}
