package analysis

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Bins maps a count onto a labeled half-open interval [edge[i], edge[i+1]).
// With edges [0, 51, 151, 251, 350] the labels are 0–50, 51–150, 151–250
// and 251–349; a count of 50 lands in 0–50 and 51 in 51–150. Values at or
// past the final edge clamp into the top bin, values below the first edge
// into the bottom one.
type Bins struct {
	edges  []int
	labels []string
}

// NewBins builds choropleth bins from strictly increasing edges.
func NewBins(edges []int) (Bins, error) {
	if len(edges) < 2 {
		return Bins{}, eris.Errorf("analysis: need at least 2 bin edges, got %d", len(edges))
	}
	for i := 1; i < len(edges); i++ {
		if edges[i] <= edges[i-1] {
			return Bins{}, eris.Errorf("analysis: bin edges must increase, got %d after %d", edges[i], edges[i-1])
		}
	}
	b := Bins{edges: append([]int(nil), edges...)}
	for i := 0; i+1 < len(edges); i++ {
		b.labels = append(b.labels, fmt.Sprintf("%d–%d", edges[i], edges[i+1]-1))
	}
	return b, nil
}

// Len returns the number of bins.
func (b Bins) Len() int { return len(b.labels) }

// Labels returns the bin labels in ascending order.
func (b Bins) Labels() []string {
	return append([]string(nil), b.labels...)
}

// Index returns the bin index for a count, clamped into range.
func (b Bins) Index(count int) int {
	if count < b.edges[0] {
		return 0
	}
	for i := 0; i+1 < len(b.edges); i++ {
		if count >= b.edges[i] && count < b.edges[i+1] {
			return i
		}
	}
	return len(b.labels) - 1
}

// Label returns the label of the bin a count falls in.
func (b Bins) Label(count int) string {
	return b.labels[b.Index(count)]
}

// Overflows reports whether a count lies at or beyond the final edge and
// was clamped by Index.
func (b Bins) Overflows(count int) bool {
	return count >= b.edges[len(b.edges)-1]
}

func (b Bins) String() string {
	return strings.Join(b.labels, ", ")
}
