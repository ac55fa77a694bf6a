package sampler

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/moorline-data/siteplan/internal/survey"
)

func TestDecimateCount(t *testing.T) {
	tests := []struct {
		name  string
		count int
		total int
		want  []int
	}{
		{"every third of nine", 3, 9, []int{2, 5, 8}},
		{"fractional stride rounds", 4, 6, []int{1, 2, 4, 5}},
		{"single pick lands on last row", 1, 10, []int{9}},
		{"all rows", 5, 5, []int{0, 1, 2, 3, 4}},
		{"two of ten", 2, 10, []int{4, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecimateCount(tt.count, tt.total)
			if err != nil {
				t.Fatalf("DecimateCount(%d, %d) failed: %v", tt.count, tt.total, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("indices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecimateCountInvalid(t *testing.T) {
	tests := []struct {
		name  string
		count int
		total int
	}{
		{"zero count", 0, 10},
		{"negative count", -1, 10},
		{"count beyond total", 11, 10},
		{"zero total", 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecimateCount(tt.count, tt.total)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v is not ErrInvalidRequest", err)
			}
		})
	}
}

func TestDecimateFraction(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		total    int
		want     []int
	}{
		{"fifth of ten", 0.2, 10, []int{0, 5}},
		{"half of ten", 0.5, 10, []int{0, 2, 4, 6, 8}},
		{"third-ish of ten", 0.3, 10, []int{0, 3, 6}},
		{"everything", 1, 5, []int{0, 1, 2, 3, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecimateFraction(tt.fraction, tt.total)
			if err != nil {
				t.Fatalf("DecimateFraction(%g, %d) failed: %v", tt.fraction, tt.total, err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("indices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecimateFractionInvalid(t *testing.T) {
	tests := []struct {
		name     string
		fraction float64
		total    int
	}{
		{"zero fraction", 0, 10},
		{"negative fraction", -0.2, 10},
		{"fraction above one", 1.01, 10},
		{"rounds to nothing", 0.04, 10},
		{"zero total", 0.5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecimateFraction(tt.fraction, tt.total)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("error %v is not ErrInvalidRequest", err)
			}
		})
	}
}

// The count form rounds each stride multiple while the fraction form floors
// from the first row. Equivalent requests therefore pick different rows,
// and that difference is part of the contract.
func TestDecimationFormsStayDistinct(t *testing.T) {
	byCount, err := DecimateCount(2, 10)
	if err != nil {
		t.Fatalf("DecimateCount failed: %v", err)
	}
	byFraction, err := DecimateFraction(0.2, 10)
	if err != nil {
		t.Fatalf("DecimateFraction failed: %v", err)
	}

	if diff := cmp.Diff([]int{4, 9}, byCount); diff != "" {
		t.Errorf("count form mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 5}, byFraction); diff != "" {
		t.Errorf("fraction form mismatch (-want +got):\n%s", diff)
	}
}

func TestDecimateCountDeterministic(t *testing.T) {
	first, err := DecimateCount(7, 23)
	if err != nil {
		t.Fatalf("DecimateCount failed: %v", err)
	}
	second, err := DecimateCount(7, 23)
	if err != nil {
		t.Fatalf("DecimateCount failed: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeat run differed (-first +second):\n%s", diff)
	}
	if len(first) != 7 {
		t.Errorf("selected %d indices, want 7", len(first))
	}
}

func TestPeriodicSelector(t *testing.T) {
	sites := make([]survey.Point, 9)
	for i := range sites {
		sites[i] = survey.Point{X: float64(i), Y: 0}
	}

	var sel Selector = PeriodicSelector{}

	byCount, err := sel.SelectCount(sites, 3)
	if err != nil {
		t.Fatalf("SelectCount failed: %v", err)
	}
	if byCount.Policy != PolicyPeriodicCount {
		t.Errorf("policy = %q, want %q", byCount.Policy, PolicyPeriodicCount)
	}
	if byCount.TargetCount != 3 {
		t.Errorf("target count = %d, want 3", byCount.TargetCount)
	}
	if diff := cmp.Diff([]int{2, 5, 8}, byCount.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}

	byFraction, err := sel.SelectFraction(sites, 1.0/3)
	if err != nil {
		t.Fatalf("SelectFraction failed: %v", err)
	}
	if byFraction.Policy != PolicyPeriodicFraction {
		t.Errorf("policy = %q, want %q", byFraction.Policy, PolicyPeriodicFraction)
	}
	if diff := cmp.Diff([]int{0, 3, 6}, byFraction.Indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}
}
