// Package grade reduces matrix statistics to one total and maps it onto a
// calibrated letter grade.
package grade

import (
	"fmt"
	"math"
	"strings"

	"trustdebt/domain/core"
)

// Boundary is one row of the grade table: totals up to and including
// MaxUnits earn Grade.
type Boundary struct {
	Grade    string             `json:"grade" yaml:"grade"`
	MaxUnits core.ExtendedFloat `json:"max_units" yaml:"max_units"`
}

// Boundaries is a grade table in ascending MaxUnits order.
type Boundaries []Boundary

// DefaultBoundaries returns A:[0,500], B:(500,1500], C:(1500,3000], D:(3000,inf).
func DefaultBoundaries() Boundaries {
	return Boundaries{
		{Grade: "A", MaxUnits: 500},
		{Grade: "B", MaxUnits: 1500},
		{Grade: "C", MaxUnits: 3000},
		{Grade: "D", MaxUnits: core.Inf()},
	}
}

// ParseBoundaries reads a table written as "A:500,B:1500,C:3000,D:inf".
func ParseBoundaries(s string) (Boundaries, error) {
	var out Boundaries
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, limit, ok := strings.Cut(part, ":")
		if !ok {
			return nil, core.NewBoundaryError(fmt.Sprintf("entry %q is not grade:max", part))
		}
		v, err := core.ParseExtendedFloat(strings.TrimSpace(limit))
		if err != nil {
			return nil, core.NewBoundaryError(fmt.Sprintf("entry %q has an invalid maximum", part))
		}
		out = append(out, Boundary{Grade: strings.TrimSpace(name), MaxUnits: v})
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate requires a non-empty table with unique names, strictly ascending
// non-negative maxima, and +Inf as the last maximum so every total grades.
func (b Boundaries) Validate() error {
	if len(b) == 0 {
		return core.NewBoundaryError("table is empty")
	}
	seen := make(map[string]struct{}, len(b))
	for i, row := range b {
		if row.Grade == "" {
			return core.NewBoundaryError(fmt.Sprintf("row %d has no grade name", i))
		}
		if _, dup := seen[row.Grade]; dup {
			return core.NewBoundaryError(fmt.Sprintf("grade %q listed twice", row.Grade))
		}
		seen[row.Grade] = struct{}{}
		v := row.MaxUnits.Float64()
		if math.IsNaN(v) || v < 0 {
			return core.NewBoundaryError(fmt.Sprintf("grade %q has a negative maximum", row.Grade))
		}
		if i > 0 && v <= b[i-1].MaxUnits.Float64() {
			return core.NewBoundaryError("maxima must be strictly ascending")
		}
	}
	if !math.IsInf(b[len(b)-1].MaxUnits.Float64(), 1) {
		return core.NewBoundaryError("last maximum must be +Inf")
	}
	return nil
}

// Lookup returns the first grade whose maximum is >= total.
func (b Boundaries) Lookup(total float64) string {
	for _, row := range b {
		if total <= row.MaxUnits.Float64() {
			return row.Grade
		}
	}
	return b[len(b)-1].Grade
}

// Rank returns the position of grade in the table (0 is best), or -1.
func (b Boundaries) Rank(grade string) int {
	for i, row := range b {
		if row.Grade == grade {
			return i
		}
	}
	return -1
}

// String formats the table the way ParseBoundaries reads it.
func (b Boundaries) String() string {
	parts := make([]string, len(b))
	for i, row := range b {
		limit := "inf"
		if !row.MaxUnits.IsInf() {
			limit = fmt.Sprintf("%g", row.MaxUnits.Float64())
		}
		parts[i] = row.Grade + ":" + limit
	}
	return strings.Join(parts, ",")
}
