package packing

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/moorline-data/siteplan/internal/survey"
)

// normTolerance absorbs the decimal rounding of published packing tables.
const normTolerance = 1e-6

// Set is one pre-computed optimal layout: the centres of n circles packed
// in a unit square, re-centred on the origin. X runs along the long axis
// and spans [-0.5, 0.5]; Y is centred with height at most 1.
type Set struct {
	Points []survey.Point
}

// Len returns the layout's point count.
func (s Set) Len() int { return len(s.Points) }

// Validate checks that every coordinate lies inside the normalized unit
// square. A layout outside it would scale past the candidate bounding box.
func (s Set) Validate() error {
	if len(s.Points) == 0 {
		return fmt.Errorf("packing layout has no points")
	}
	for i, p := range s.Points {
		if math.Abs(p.X) > 0.5+normTolerance || math.Abs(p.Y) > 0.5+normTolerance {
			return fmt.Errorf("packing point %d (%g, %g) is outside the normalized unit square", i, p.X, p.Y)
		}
	}
	return nil
}

// ParseSet reads one layout from CSV: an x,y header, one normalized point
// per row. The row count is the layout's point count; there is no count
// column to disagree with.
func ParseSet(r io.Reader) (Set, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Set{}, fmt.Errorf("empty layout file")
	}
	if err != nil {
		return Set{}, fmt.Errorf("failed to read layout header: %w", err)
	}

	xCol, yCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "x":
			xCol = i
		case "y":
			yCol = i
		}
	}
	if xCol < 0 || yCol < 0 {
		return Set{}, fmt.Errorf("layout header %v is missing x/y columns", header)
	}

	var set Set
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Set{}, fmt.Errorf("failed to read layout row: %w", err)
		}

		x, err := strconv.ParseFloat(record[xCol], 64)
		if err != nil {
			return Set{}, fmt.Errorf("line %d: bad x value %q: %w", line, record[xCol], err)
		}
		y, err := strconv.ParseFloat(record[yCol], 64)
		if err != nil {
			return Set{}, fmt.Errorf("line %d: bad y value %q: %w", line, record[yCol], err)
		}
		set.Points = append(set.Points, survey.Point{X: x, Y: y})
	}

	if err := set.Validate(); err != nil {
		return Set{}, err
	}
	return set, nil
}
