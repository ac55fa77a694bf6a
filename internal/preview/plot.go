package preview

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/moorline-data/siteplan/internal/survey"
)

// SavePlotPNG writes a square scatter plot of the candidate table with the
// selection highlighted. The output format follows the file extension, so
// .png, .svg and .pdf all work; callers here use .png.
func SavePlotPNG(path, title string, sites []survey.Site, indices []int) error {
	if err := checkIndices(sites, indices); err != nil {
		return err
	}

	bounds, err := survey.BoundsOf(survey.Points(sites))
	if err != nil {
		return fmt.Errorf("failed to compute site bounds: %w", err)
	}
	cx, cy, half := squareExtent(bounds)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half

	candidatePts := make(plotter.XYs, 0, len(sites))
	for _, site := range sites {
		candidatePts = append(candidatePts, plotter.XY{X: site.X, Y: site.Y})
	}
	selectedPts := make(plotter.XYs, 0, len(indices))
	for _, idx := range indices {
		selectedPts = append(selectedPts, plotter.XY{X: sites[idx].X, Y: sites[idx].Y})
	}

	candidateScatter, err := plotter.NewScatter(candidatePts)
	if err != nil {
		return fmt.Errorf("failed to build candidate scatter: %w", err)
	}
	candidateScatter.GlyphStyle.Color = color.RGBA{R: 158, G: 158, B: 158, A: 255}
	candidateScatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(candidateScatter)
	p.Legend.Add("candidates", candidateScatter)

	if len(selectedPts) > 0 {
		selectedScatter, err := plotter.NewScatter(selectedPts)
		if err != nil {
			return fmt.Errorf("failed to build selected scatter: %w", err)
		}
		selectedScatter.GlyphStyle.Color = color.RGBA{R: 255, G: 82, B: 82, A: 255}
		selectedScatter.GlyphStyle.Radius = vg.Points(3)
		p.Add(selectedScatter)
		p.Legend.Add("selected", selectedScatter)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return fmt.Errorf("save selection plot: %w", err)
	}
	return nil
}
