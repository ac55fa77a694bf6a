package packing

import (
	"fmt"
	"sort"
)

// MissingSetError reports a requested layout size with no pre-computed
// packing. Selection fails rather than substituting a nearby size: the
// spacing guarantee only holds for the exact count.
type MissingSetError struct {
	Points int
}

func (e *MissingSetError) Error() string {
	return fmt.Sprintf("no packing layout with %d points", e.Points)
}

// Library is an in-memory index of packing layouts keyed by point count.
type Library struct {
	sets map[int]Set
}

// NewLibrary returns an empty library.
func NewLibrary() *Library {
	return &Library{sets: make(map[int]Set)}
}

// Add registers a layout under its point count after validating it.
// Exactly one layout per count is allowed.
func (l *Library) Add(s Set) error {
	if err := s.Validate(); err != nil {
		return err
	}
	n := s.Len()
	if _, ok := l.sets[n]; ok {
		return fmt.Errorf("duplicate packing layout for %d points", n)
	}
	l.sets[n] = s
	return nil
}

// Lookup returns the layout with exactly n points. A missing count is a
// *MissingSetError; callers must not paper over it.
func (l *Library) Lookup(n int) (Set, error) {
	s, ok := l.sets[n]
	if !ok {
		return Set{}, &MissingSetError{Points: n}
	}
	return s, nil
}

// Counts lists the available layout sizes in ascending order.
func (l *Library) Counts() []int {
	counts := make([]int, 0, len(l.sets))
	for n := range l.sets {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	return counts
}

// Len returns the number of layouts held.
func (l *Library) Len() int { return len(l.sets) }
