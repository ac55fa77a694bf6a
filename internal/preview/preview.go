// Package preview renders selection results as browser charts and plot
// files so a proposed training set can be eyeballed before export.
package preview

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/moorline-data/siteplan/internal/survey"
)

const (
	candidateColor = "#9e9e9e"
	selectedColor  = "#ff5252"
)

// squareExtent computes a square view box around the candidate bounds:
// centered on the bounds center, half-width the larger of the two extents
// plus a small margin so edge points stay visible.
func squareExtent(b survey.Bounds) (cx, cy, half float64) {
	cx = b.CenterX()
	cy = b.CenterY()
	half = b.Width() / 2
	if h := b.Height() / 2; h > half {
		half = h
	}
	half *= 1.05
	if half == 0 {
		half = 1.0
	}
	return cx, cy, half
}

// checkIndices verifies every selection index addresses a site.
func checkIndices(sites []survey.Site, indices []int) error {
	for _, idx := range indices {
		if idx < 0 || idx >= len(sites) {
			return fmt.Errorf("selection index %d out of range for %d sites", idx, len(sites))
		}
	}
	return nil
}

func distinctCount(indices []int) int {
	seen := make(map[int]bool, len(indices))
	for _, idx := range indices {
		seen[idx] = true
	}
	return len(seen)
}

// RenderScatterHTML writes a self-contained HTML scatter chart: all
// candidate sites in a muted series with the selected sites highlighted on
// top. Axes are forced square and symmetric around the candidate bounds so
// spatial spread is not distorted.
func RenderScatterHTML(w io.Writer, title string, sites []survey.Site, indices []int) error {
	if err := checkIndices(sites, indices); err != nil {
		return err
	}

	bounds, err := survey.BoundsOf(survey.Points(sites))
	if err != nil {
		return fmt.Errorf("failed to compute site bounds: %w", err)
	}
	cx, cy, half := squareExtent(bounds)

	candidates := make([]opts.ScatterData, 0, len(sites))
	for _, site := range sites {
		candidates = append(candidates, opts.ScatterData{
			Name:  site.Label,
			Value: []interface{}{site.X, site.Y},
		})
	}

	selected := make([]opts.ScatterData, 0, len(indices))
	for _, idx := range indices {
		site := sites[idx]
		selected = append(selected, opts.ScatterData{
			Name:  site.Label,
			Value: []interface{}{site.X, site.Y},
		})
	}

	subtitle := fmt.Sprintf("sites=%d selected=%d distinct=%d",
		len(sites), len(indices), distinctCount(indices))

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Selection Preview", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: cx - half, Max: cx + half, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: cy - half, Max: cy + half, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)

	scatter.AddSeries("candidates", candidates, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: candidateColor}))
	scatter.AddSeries("selected", selected, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 9}), charts.WithItemStyleOpts(opts.ItemStyle{Color: selectedColor}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return nil
}
