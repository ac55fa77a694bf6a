package sampler

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/moorline-data/siteplan/internal/survey"
)

// SpacingStats summarises how far apart a selection's sites ended up: for
// each distinct selected site, the distance to its closest fellow.
type SpacingStats struct {
	Selected      int     `json:"selected"`
	Distinct      int     `json:"distinct"`
	MinSpacing    float64 `json:"min_spacing"`
	MeanSpacing   float64 `json:"mean_spacing"`
	MedianSpacing float64 `json:"median_spacing"`
}

// SpacingSummary computes nearest-neighbor spacing statistics over a
// selection. Repeated indices collapse to one site; at least two distinct
// sites are required.
func SpacingSummary(sites []survey.Point, indices []int) (SpacingStats, error) {
	distinct := make([]int, 0, len(indices))
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(sites) {
			return SpacingStats{}, fmt.Errorf("selection index %d out of range for %d sites", idx, len(sites))
		}
		if !seen[idx] {
			seen[idx] = true
			distinct = append(distinct, idx)
		}
	}
	if len(distinct) < 2 {
		return SpacingStats{}, fmt.Errorf("spacing summary needs at least 2 distinct sites, have %d", len(distinct))
	}

	nn := make([]float64, len(distinct))
	for i, a := range distinct {
		best := math.Inf(1)
		for j, b := range distinct {
			if i == j {
				continue
			}
			if d := survey.DistSq(sites[a], sites[b]); d < best {
				best = d
			}
		}
		nn[i] = math.Sqrt(best)
	}

	sort.Float64s(nn)
	return SpacingStats{
		Selected:      len(indices),
		Distinct:      len(distinct),
		MinSpacing:    floats.Min(nn),
		MeanSpacing:   stat.Mean(nn, nil),
		MedianSpacing: stat.Quantile(0.5, stat.Empirical, nn, nil),
	}, nil
}
