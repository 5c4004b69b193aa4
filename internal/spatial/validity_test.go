package spatial

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	geom "github.com/twpayne/go-geom"
)

// bowTie is the canonical self-intersecting ring: edges cross at (1, 1).
func bowTie() *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		0, 0,
		2, 2,
		2, 0,
		0, 2,
		0, 0,
	}, []int{10})
}

func TestValidatePolygon(t *testing.T) {
	tests := []struct {
		name    string
		g       geom.T
		wantErr string
	}{
		{
			name: "valid square",
			g:    square(0, 0, 10),
		},
		{
			name: "valid donut",
			g:    donut(),
		},
		{
			name: "valid multipolygon",
			g: geom.NewMultiPolygonFlat(geom.XY, []float64{
				0, 0, 4, 0, 4, 4, 0, 4, 0, 0,
				20, 20, 24, 20, 24, 24, 20, 24, 20, 20,
			}, [][]int{{10}, {20}}),
		},
		{
			name:    "bow tie self-intersection",
			g:       bowTie(),
			wantErr: "self-intersects near (1.000000, 1.000000)",
		},
		{
			name: "too few points",
			g: geom.NewPolygonFlat(geom.XY, []float64{
				0, 0, 4, 0, 0, 0,
			}, []int{6}),
			wantErr: "need at least 4",
		},
		{
			name: "unclosed ring",
			g: geom.NewPolygonFlat(geom.XY, []float64{
				0, 0, 4, 0, 4, 4, 0, 4,
			}, []int{8}),
			wantErr: "not closed",
		},
		{
			name: "non-finite coordinate",
			g: geom.NewPolygonFlat(geom.XY, []float64{
				0, 0, 4, math.NaN(), 4, 4, 0, 4, 0, 0,
			}, []int{10}),
			wantErr: "non-finite coordinate",
		},
		{
			name: "spike",
			g: geom.NewPolygonFlat(geom.XY, []float64{
				0, 0, 4, 0, 2, 0, 2, 2, 0, 0,
			}, []int{10}),
			wantErr: "spike at vertex 1",
		},
		{
			name:    "nil geometry",
			g:       nil,
			wantErr: "nil geometry",
		},
		{
			name:    "not polygonal",
			g:       geom.NewLineStringFlat(geom.XY, []float64{0, 0, 1, 1}),
			wantErr: "not a polygonal geometry",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePolygon(tt.g)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCheckValidityAllValid(t *testing.T) {
	geoms := []geom.T{square(0, 0, 10), square(20, 0, 10), donut()}

	v := CheckValidity(geoms, nil)

	assert.True(t, v.Valid)
	assert.Equal(t, 3, v.Checked)
	assert.Zero(t, v.Invalid)
	assert.Empty(t, v.Failures)
	assert.Equal(t, "all 3 polygons valid", v.Message)
}

func TestCheckValidityWithSelfIntersection(t *testing.T) {
	geoms := []geom.T{square(0, 0, 10), bowTie(), square(20, 0, 10)}

	v := CheckValidity(geoms, []string{"A1", "B4", "C2"})

	assert.False(t, v.Valid)
	assert.Equal(t, 3, v.Checked)
	assert.Equal(t, 1, v.Invalid)
	require.Len(t, v.Failures, 1)
	assert.Contains(t, v.Failures[0], "B4")
	assert.Contains(t, v.Failures[0], "self-intersects")
	assert.Contains(t, v.Message, "1 of 3 polygons invalid")
}

func TestCheckValidityEmpty(t *testing.T) {
	v := CheckValidity(nil, nil)
	assert.True(t, v.Valid)
	assert.Equal(t, "all 0 polygons valid", v.Message)
}
