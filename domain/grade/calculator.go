package grade

import (
	"fmt"
	"math"

	"trustdebt/domain/core"
	"trustdebt/domain/matrix"
)

// DefaultNoise is the stable band as a fraction of the prior total.
const DefaultNoise = 0.05

// TrustDebtResult is the terminal output of a run.
type TrustDebtResult struct {
	TotalUnits         float64            `json:"total_units"`
	Grade              string             `json:"grade"`
	UpperTriangleUnits float64            `json:"upper_triangle_units"`
	LowerTriangleUnits float64            `json:"lower_triangle_units"`
	DiagonalUnits      float64            `json:"diagonal_units"`
	AsymmetryRatio     core.ExtendedFloat `json:"asymmetry_ratio"`
	GradeBoundaries    Boundaries         `json:"grade_boundaries"`
}

// Trajectory is the qualitative change between two consecutive runs.
type Trajectory string

const (
	Improving Trajectory = "improving"
	Stable    Trajectory = "stable"
	Degrading Trajectory = "degrading"
)

// Calculator grades totals against a fixed boundary table.
type Calculator struct {
	boundaries Boundaries
	noise      float64
}

// NewCalculator validates the table and the noise fraction.
func NewCalculator(boundaries Boundaries, noise float64) (*Calculator, error) {
	if err := boundaries.Validate(); err != nil {
		return nil, err
	}
	if math.IsNaN(noise) || math.IsInf(noise, 0) || noise < 0 {
		return nil, fmt.Errorf("trajectory noise must be finite and >= 0, got %v", noise)
	}
	return &Calculator{
		boundaries: append(Boundaries(nil), boundaries...),
		noise:      noise,
	}, nil
}

// Boundaries returns a copy of the table in use.
func (c *Calculator) Boundaries() Boundaries {
	return append(Boundaries(nil), c.boundaries...)
}

// Compute grades a built matrix.
func (c *Calculator) Compute(m *matrix.PresenceMatrix) (*TrustDebtResult, error) {
	return c.FromTotals(m.UpperTriangleUnits, m.LowerTriangleUnits, m.DiagonalUnits)
}

// FromTotals grades the three triangle sub-totals. Every input must be
// finite and non-negative; anything else is reported as corrupt, never
// clamped.
func (c *Calculator) FromTotals(upper, lower, diagonal float64) (*TrustDebtResult, error) {
	for _, part := range []struct {
		field string
		value float64
	}{
		{"upper_triangle_units", upper},
		{"lower_triangle_units", lower},
		{"diagonal_units", diagonal},
	} {
		if err := checkTotal(part.field, part.value); err != nil {
			return nil, err
		}
	}

	total := upper + lower + diagonal
	grade, err := c.Grade(total)
	if err != nil {
		return nil, err
	}
	return &TrustDebtResult{
		TotalUnits:         total,
		Grade:              grade,
		UpperTriangleUnits: upper,
		LowerTriangleUnits: lower,
		DiagonalUnits:      diagonal,
		AsymmetryRatio:     matrix.AsymmetryRatio(upper, lower),
		GradeBoundaries:    c.Boundaries(),
	}, nil
}

// Grade maps a total onto the table.
func (c *Calculator) Grade(total float64) (string, error) {
	if err := checkTotal("total_units", total); err != nil {
		return "", err
	}
	return c.boundaries.Lookup(total), nil
}

// Rank returns the ordinal of grade in the table, 0 being best.
func (c *Calculator) Rank(grade string) int {
	return c.boundaries.Rank(grade)
}

// Trajectory compares the current total with the prior run's. A change no
// larger than the noise fraction of the prior total is stable.
func (c *Calculator) Trajectory(prior, current float64) (Trajectory, error) {
	if err := checkTotal("prior_total_units", prior); err != nil {
		return "", err
	}
	if err := checkTotal("total_units", current); err != nil {
		return "", err
	}
	delta := current - prior
	switch {
	case math.Abs(delta) <= c.noise*prior:
		return Stable, nil
	case delta < 0:
		return Improving, nil
	}
	return Degrading, nil
}

func checkTotal(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return &core.CorruptInputError{Row: -1, Col: -1, Field: field, Value: v}
	}
	return nil
}
