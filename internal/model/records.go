package model

import (
	geom "github.com/twpayne/go-geom"
)

// HOLC grade labels, in display order.
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
)

// Grades returns the HOLC grade labels in display order.
func Grades() []string {
	return []string{GradeA, GradeB, GradeC, GradeD}
}

// Float is a nullable float64 attribute value. Valid is false when the
// source column held NULL; null-safe aggregation skips such values.
type Float struct {
	Value float64 `json:"value"`
	Valid bool    `json:"valid"`
}

// NewFloat returns a non-null Float.
func NewFloat(v float64) Float {
	return Float{Value: v, Valid: true}
}

// Block represents one EJ census block-group polygon with its
// environmental indicator columns.
type Block struct {
	FID           int64  `json:"fid"`
	County        string `json:"county"`
	PM25          Float  `json:"pm25"`
	LowIncomePct  Float  `json:"low_income_pct"`
	LifeExpPctile Float  `json:"life_exp_pctile"`
	Geom          geom.T `json:"-"`
}

// District represents one HOLC redlining district polygon.
type District struct {
	ID    string `json:"id"`
	City  string `json:"city"`
	Grade string `json:"grade"`
	Geom  geom.T `json:"-"`
}

// Observation represents one bird-observation point record.
type Observation struct {
	Year    int         `json:"year"`
	Species string      `json:"species"`
	Geom    *geom.Point `json:"-"`
}

// BlockLayer bundles census blocks with the CRS declared for the whole
// collection. The SRID is a collection-level tag, never per record.
type BlockLayer struct {
	Blocks []Block `json:"blocks"`
	SRID   int     `json:"srid"`
}

// DistrictLayer bundles HOLC districts with their collection CRS.
type DistrictLayer struct {
	Districts []District `json:"districts"`
	SRID      int        `json:"srid"`
}

// ObservationLayer bundles observation points with their collection CRS.
type ObservationLayer struct {
	Observations []Observation `json:"observations"`
	SRID         int           `json:"srid"`
}

// BlockDistrictRow is one output row of the blocks→districts left join.
// Grade and DistrictID are empty when no district intersected the block.
// A block intersecting several districts appears once per match.
type BlockDistrictRow struct {
	Block      Block  `json:"block"`
	DistrictID string `json:"district_id,omitempty"`
	Grade      string `json:"grade,omitempty"`
}

// ObservationDistrictRow is one output row of the observations→districts
// left join. Grade and DistrictID are empty when the point fell outside
// every district.
type ObservationDistrictRow struct {
	Observation Observation `json:"observation"`
	DistrictID  string      `json:"district_id,omitempty"`
	Grade       string      `json:"grade,omitempty"`
}

// DistrictCount is the derived observation count for one district,
// index-aligned with the district slice it was computed from.
type DistrictCount struct {
	DistrictID string `json:"district_id"`
	Grade      string `json:"grade"`
	Count      int    `json:"count"`
	Bin        string `json:"bin"`
}
