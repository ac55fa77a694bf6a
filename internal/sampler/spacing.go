package sampler

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/moorline-data/siteplan/internal/packing"
	"github.com/moorline-data/siteplan/internal/survey"
)

// SpacingParams tunes the optimal-spacing policy.
type SpacingParams struct {
	// JitterRadius is the half-width of the uniform perturbation applied to
	// each layout point before matching, in site coordinate units. Zero
	// disables jitter. Ignored while GroupNeighbors is on.
	JitterRadius float64

	// GroupNeighbors replaces jitter with neighborhood capture: every site
	// strictly closer than sqrt(2)*JitterRadius to a matched site is
	// selected alongside it. The result can be larger than the requested
	// count and may repeat sites.
	GroupNeighbors bool

	// Rand is the randomness source for jitter. Nil falls back to a
	// time-seeded source; pass a fixed seed for reproducible runs.
	Rand *rand.Rand
}

// SpacingSelector matches pre-computed circle-packing layouts to candidate
// sites so the chosen subset approximates maximal pairwise spacing inside
// the candidate bounding box.
type SpacingSelector struct {
	lib    *packing.Library
	params SpacingParams
	rng    *rand.Rand
}

// NewSpacingSelector builds a selector over the given layout library.
func NewSpacingSelector(lib *packing.Library, params SpacingParams) *SpacingSelector {
	rng := params.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &SpacingSelector{lib: lib, params: params, rng: rng}
}

// SelectCount selects exactly count training sites (more when grouping).
// The library must hold a layout with exactly that count.
func (s *SpacingSelector) SelectCount(sites []survey.Point, count int) (Selection, error) {
	if len(sites) == 0 {
		return Selection{}, fmt.Errorf("%w: no candidate sites", ErrInvalidRequest)
	}
	if count <= 0 || count > len(sites) {
		return Selection{}, fmt.Errorf("%w: count %d out of range [1, %d]", ErrInvalidRequest, count, len(sites))
	}
	return s.run(PolicySpacingCount, sites, count)
}

// SelectFraction selects round(fraction*N) training sites.
func (s *SpacingSelector) SelectFraction(sites []survey.Point, fraction float64) (Selection, error) {
	if len(sites) == 0 {
		return Selection{}, fmt.Errorf("%w: no candidate sites", ErrInvalidRequest)
	}
	if fraction <= 0 || fraction > 1 {
		return Selection{}, fmt.Errorf("%w: fraction %g outside (0, 1]", ErrInvalidRequest, fraction)
	}
	count := int(math.Round(fraction * float64(len(sites))))
	if count < 1 {
		return Selection{}, fmt.Errorf("%w: fraction %g selects none of %d sites", ErrInvalidRequest, fraction, len(sites))
	}
	return s.run(PolicySpacingFraction, sites, count)
}

func (s *SpacingSelector) run(p Policy, sites []survey.Point, count int) (Selection, error) {
	set, err := s.lib.Lookup(count)
	if err != nil {
		return Selection{}, err
	}

	bounds, err := survey.BoundsOf(sites)
	if err != nil {
		return Selection{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if bounds.Degenerate() {
		return Selection{}, fmt.Errorf("%w: degenerate site bounds (%g x %g)", ErrInvalidRequest, bounds.Width(), bounds.Height())
	}

	targets := s.placeTargets(set, bounds)

	var indices []int
	if s.params.GroupNeighbors {
		indices = groupNeighbors(sites, targets, math.Sqrt2*s.params.JitterRadius)
	} else {
		indices = nearestSites(sites, targets)
	}

	return Selection{
		Policy:       p,
		TargetCount:  count,
		Indices:      indices,
		PackingUsed:  set.Len(),
		JitterRadius: s.params.JitterRadius,
		Grouped:      s.params.GroupNeighbors,
	}, nil
}

// placeTargets maps the normalized layout into the site bounding box.
// Layouts run long-axis-first along X; when the box is taller than wide the
// layout axes are swapped so the long axis follows the longer box side.
// Either way one uniform scale (the longer box extent) applies, preserving
// the layout's aspect ratio. The layout itself is never mutated.
func (s *SpacingSelector) placeTargets(set packing.Set, bounds survey.Bounds) []survey.Point {
	flip := bounds.Height() > bounds.Width()
	scale := bounds.Width()
	if flip {
		scale = bounds.Height()
	}

	jitter := s.params.JitterRadius > 0 && !s.params.GroupNeighbors

	targets := make([]survey.Point, set.Len())
	for i, p := range set.Points {
		px, py := p.X, p.Y
		if flip {
			px, py = py, px
		}
		t := survey.Point{
			X: px*scale + bounds.CenterX(),
			Y: py*scale + bounds.CenterY(),
		}
		if jitter {
			t.X += (s.rng.Float64()*2 - 1) * s.params.JitterRadius
			t.Y += (s.rng.Float64()*2 - 1) * s.params.JitterRadius
		}
		targets[i] = t
	}
	return targets
}

// nearest finds the closest site to target by full linear scan. Strict
// less-than keeps the lowest index on ties.
func nearest(sites []survey.Point, target survey.Point) int {
	best := 0
	bestD := survey.DistSq(target, sites[0])
	for si := 1; si < len(sites); si++ {
		if d := survey.DistSq(target, sites[si]); d < bestD {
			best, bestD = si, d
		}
	}
	return best
}

// nearestSites matches each target to its closest candidate, in target
// order. Two targets may land on the same site; duplicates are kept.
func nearestSites(sites, targets []survey.Point) []int {
	indices := make([]int, len(targets))
	for ti, target := range targets {
		indices[ti] = nearest(sites, target)
	}
	return indices
}

// groupNeighbors selects, for each target, every site strictly inside
// radius of the target's matched site, in site order. The boundary is
// exclusive, so radius zero captures nothing and the matched site alone is
// kept. Sites shared between neighborhoods appear once per neighborhood.
func groupNeighbors(sites, targets []survey.Point, radius float64) []int {
	radiusSq := radius * radius
	var indices []int
	for _, target := range targets {
		anchorIdx := nearest(sites, target)
		anchor := sites[anchorIdx]
		start := len(indices)
		for si, site := range sites {
			if survey.DistSq(anchor, site) < radiusSq {
				indices = append(indices, si)
			}
		}
		if len(indices) == start {
			indices = append(indices, anchorIdx)
		}
	}
	return indices
}
