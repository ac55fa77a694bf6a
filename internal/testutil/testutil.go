// Package testutil provides shared fixtures for siteplan tests.
//
// Grid fixtures make selection outcomes exact: neighbor spacing is a
// round 10 meters and corner positions are known in advance, so tests
// can assert literal indices instead of tolerances.
package testutil

import (
	"fmt"

	"github.com/moorline-data/siteplan/internal/survey"
)

// GridSites builds a cols x rows candidate grid on a 10m pitch,
// row-major, labelled S-00, S-01, ...
func GridSites(cols, rows int) []survey.Site {
	sites := make([]survey.Site, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sites = append(sites, survey.Site{
				Label: fmt.Sprintf("S-%02d", r*cols+c),
				X:     float64(c) * 10,
				Y:     float64(r) * 10,
			})
		}
	}
	return sites
}

// Corners returns the four corners of the normalized unit square, the
// smallest packing layout whose scaled placement is obvious by eye.
func Corners() []survey.Point {
	return []survey.Point{
		{X: -0.5, Y: -0.5}, {X: 0.5, Y: -0.5},
		{X: -0.5, Y: 0.5}, {X: 0.5, Y: 0.5},
	}
}
