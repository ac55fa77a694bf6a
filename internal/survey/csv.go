package survey

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ReadSites parses a candidate site list from CSV. The header row must name
// an x and a y column; a site_id (or label) column is optional and any other
// columns are ignored. Row order is preserved: selection output indexes into
// this order, so the file order is the contract.
func ReadSites(r io.Reader) ([]Site, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty site file")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read site header: %w", err)
	}

	xCol, yCol, labelCol := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "x":
			xCol = i
		case "y":
			yCol = i
		case "site_id", "label":
			labelCol = i
		}
	}
	if xCol < 0 || yCol < 0 {
		return nil, fmt.Errorf("site header %v is missing x/y columns", header)
	}

	var sites []Site
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read site row: %w", err)
		}

		x, err := strconv.ParseFloat(record[xCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad x value %q: %w", line, record[xCol], err)
		}
		y, err := strconv.ParseFloat(record[yCol], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad y value %q: %w", line, record[yCol], err)
		}

		s := Site{X: x, Y: y}
		if labelCol >= 0 {
			s.Label = record[labelCol]
		}
		sites = append(sites, s)
	}

	if len(sites) == 0 {
		return nil, fmt.Errorf("site file has a header but no rows")
	}
	return sites, nil
}

// WriteSites writes sites as CSV with a site_id,x,y header.
func WriteSites(w io.Writer, sites []Site) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"site_id", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write site header: %w", err)
	}
	for _, s := range sites {
		record := []string{s.Label, formatCoord(s.X), formatCoord(s.Y)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write site row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSelection writes the chosen subset with both the stable table index
// and the original site fields, ready for a downstream training pipeline.
// Indices may repeat; rows are written in selection order.
func WriteSelection(w io.Writer, sites []Site, indices []int) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"index", "site_id", "x", "y"}); err != nil {
		return fmt.Errorf("failed to write selection header: %w", err)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(sites) {
			return fmt.Errorf("selection index %d out of range for %d sites", idx, len(sites))
		}
		s := sites[idx]
		record := []string{strconv.Itoa(idx), s.Label, formatCoord(s.X), formatCoord(s.Y)}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("failed to write selection row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
