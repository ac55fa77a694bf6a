package sampler

import (
	"errors"

	"github.com/moorline-data/siteplan/internal/survey"
)

// ErrInvalidRequest marks sampling requests whose parameters cannot be
// satisfied: counts outside [1, N], fractions outside (0, 1], empty or
// degenerate candidate geometry. Classify with errors.Is; there is no
// clamping or partial output.
var ErrInvalidRequest = errors.New("invalid sampling request")

// Policy identifies how a selection was produced.
type Policy string

const (
	PolicyPeriodicCount    Policy = "periodic-count"
	PolicyPeriodicFraction Policy = "periodic-fraction"
	PolicySpacingCount     Policy = "spacing-count"
	PolicySpacingFraction  Policy = "spacing-fraction"
)

// Valid reports whether p names a known policy.
func (p Policy) Valid() bool {
	switch p {
	case PolicyPeriodicCount, PolicyPeriodicFraction, PolicySpacingCount, PolicySpacingFraction:
		return true
	}
	return false
}

// Selection is the result of one sampling run. Indices are 0-based
// positions in the candidate table, in selection order; spacing policies
// with grouping enabled may return more indices than TargetCount, and
// indices may repeat.
type Selection struct {
	Policy       Policy  `json:"policy"`
	TargetCount  int     `json:"target_count"`
	Indices      []int   `json:"indices"`
	PackingUsed  int     `json:"packing_used,omitempty"`
	JitterRadius float64 `json:"jitter_radius,omitempty"`
	Grouped      bool    `json:"grouped,omitempty"`
}

// Selector chooses training sites from an ordered candidate list.
type Selector interface {
	SelectCount(sites []survey.Point, count int) (Selection, error)
	SelectFraction(sites []survey.Point, fraction float64) (Selection, error)
}

var (
	_ Selector = PeriodicSelector{}
	_ Selector = (*SpacingSelector)(nil)
)
