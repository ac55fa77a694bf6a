package testutil

import (
	"math"
	"testing"
)

func TestGridSites(t *testing.T) {
	sites := GridSites(3, 2)

	if len(sites) != 6 {
		t.Fatalf("GridSites(3, 2) = %d sites, want 6", len(sites))
	}
	if sites[0].Label != "S-00" || sites[5].Label != "S-05" {
		t.Errorf("unexpected labels %q ... %q", sites[0].Label, sites[5].Label)
	}
	// Row-major: index 4 is row 1, col 1.
	if sites[4].X != 10 || sites[4].Y != 10 {
		t.Errorf("site 4 at (%g, %g), want (10, 10)", sites[4].X, sites[4].Y)
	}
	if sites[2].X != 20 || sites[2].Y != 0 {
		t.Errorf("site 2 at (%g, %g), want (20, 0)", sites[2].X, sites[2].Y)
	}
}

func TestGridSitesSingleRow(t *testing.T) {
	sites := GridSites(5, 1)
	if len(sites) != 5 {
		t.Fatalf("GridSites(5, 1) = %d sites, want 5", len(sites))
	}
	for i, s := range sites {
		if s.X != float64(i*10) || s.Y != 0 {
			t.Errorf("site %d at (%g, %g), want (%d, 0)", i, s.X, s.Y, i*10)
		}
	}
}

func TestCorners(t *testing.T) {
	corners := Corners()
	if len(corners) != 4 {
		t.Fatalf("Corners() = %d points, want 4", len(corners))
	}
	for i, p := range corners {
		if math.Abs(p.X) != 0.5 || math.Abs(p.Y) != 0.5 {
			t.Errorf("corner %d at (%g, %g) is not on the unit square boundary", i, p.X, p.Y)
		}
	}
}
