package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinsBoundaryPolicy(t *testing.T) {
	bins, err := NewBins([]int{0, 51, 151, 251, 350})
	require.NoError(t, err)

	tests := []struct {
		count int
		label string
	}{
		{count: 0, label: "0–50"},
		{count: 50, label: "0–50"},
		{count: 51, label: "51–150"},
		{count: 150, label: "51–150"},
		{count: 151, label: "151–250"},
		{count: 250, label: "151–250"},
		{count: 251, label: "251–349"},
		{count: 349, label: "251–349"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.label, bins.Label(tt.count), "count %d", tt.count)
	}
}

func TestBinsClampAndOverflow(t *testing.T) {
	bins, err := NewBins([]int{0, 51, 151, 251, 350})
	require.NoError(t, err)

	assert.Equal(t, "251–349", bins.Label(350))
	assert.Equal(t, "251–349", bins.Label(10000))
	assert.True(t, bins.Overflows(350))
	assert.False(t, bins.Overflows(349))

	assert.Equal(t, "0–50", bins.Label(-1))
	assert.False(t, bins.Overflows(0))
}

func TestBinsLabels(t *testing.T) {
	bins, err := NewBins([]int{0, 51, 151, 251, 350})
	require.NoError(t, err)

	assert.Equal(t, 4, bins.Len())
	assert.Equal(t, []string{"0–50", "51–150", "151–250", "251–349"}, bins.Labels())
	assert.Equal(t, "0–50, 51–150, 151–250, 251–349", bins.String())
}

func TestNewBinsRejectsBadEdges(t *testing.T) {
	_, err := NewBins([]int{5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 2 bin edges")

	_, err = NewBins([]int{0, 10, 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must increase")
}
