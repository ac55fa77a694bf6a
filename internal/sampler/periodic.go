package sampler

import (
	"fmt"
	"math"

	"github.com/moorline-data/siteplan/internal/survey"
)

// DecimateCount picks exactly count indices from a table of total rows at a
// uniform stride of total/count. Each pick is the rounded i-th stride
// multiple (half rounds away from zero), so the last pick is always the
// last row. Deterministic; returns 0-based indices in ascending order.
func DecimateCount(count, total int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: no candidate sites", ErrInvalidRequest)
	}
	if count <= 0 || count > total {
		return nil, fmt.Errorf("%w: count %d out of range [1, %d]", ErrInvalidRequest, count, total)
	}

	stride := float64(total) / float64(count)
	indices := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		pos := int(math.Round(stride * float64(i)))
		indices = append(indices, pos-1)
	}
	return indices, nil
}

// DecimateFraction picks round(fraction*total) indices at a stride of
// 1/fraction, anchored on the first row. Unlike DecimateCount each pick is
// the floored stride multiple, so the two forms select different rows for
// equivalent requests; they are distinct policies, not two spellings of
// one. Returns 0-based indices in ascending order.
func DecimateFraction(fraction float64, total int) ([]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: no candidate sites", ErrInvalidRequest)
	}
	if fraction <= 0 || fraction > 1 {
		return nil, fmt.Errorf("%w: fraction %g outside (0, 1]", ErrInvalidRequest, fraction)
	}

	count := int(math.Round(fraction * float64(total)))
	if count < 1 {
		return nil, fmt.Errorf("%w: fraction %g selects none of %d sites", ErrInvalidRequest, fraction, total)
	}

	stride := 1 / fraction
	indices := make([]int, 0, count)
	for i := 1; i <= count; i++ {
		indices = append(indices, int(math.Floor(stride*float64(i-1))))
	}
	return indices, nil
}

// PeriodicSelector adapts the decimation functions to the Selector
// interface so both policy families can be dispatched uniformly.
type PeriodicSelector struct{}

// SelectCount runs DecimateCount over the site table.
func (PeriodicSelector) SelectCount(sites []survey.Point, count int) (Selection, error) {
	indices, err := DecimateCount(count, len(sites))
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Policy:      PolicyPeriodicCount,
		TargetCount: count,
		Indices:     indices,
	}, nil
}

// SelectFraction runs DecimateFraction over the site table.
func (PeriodicSelector) SelectFraction(sites []survey.Point, fraction float64) (Selection, error) {
	indices, err := DecimateFraction(fraction, len(sites))
	if err != nil {
		return Selection{}, err
	}
	return Selection{
		Policy:      PolicyPeriodicFraction,
		TargetCount: len(indices),
		Indices:     indices,
	}, nil
}
