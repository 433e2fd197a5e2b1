// Package matrix builds the asymmetric presence matrix over a ShortLex-ordered
// category list: implementation reality above the diagonal, documented
// intent below it, and their disagreement on it.
package matrix

import (
	"errors"
	"fmt"
	"math"

	"trustdebt/domain/category"
	"trustdebt/domain/core"

	"gonum.org/v1/gonum/mat"
)

// ErrNotOrdered is returned when the category list is not in ShortLex order.
var ErrNotOrdered = errors.New("category list is not in ShortLex order")

// Config holds the debt multipliers.
type Config struct {
	DepthPenalty  float64 `json:"depth_penalty" yaml:"depth_penalty"`
	DiagonalBoost float64 `json:"diagonal_boost" yaml:"diagonal_boost"`
}

// DefaultConfig returns depth penalty 0.5 and diagonal boost 2.0.
func DefaultConfig() Config {
	return Config{DepthPenalty: 0.5, DiagonalBoost: 2.0}
}

// Validate checks the multipliers are finite and non-negative.
func (c Config) Validate() error {
	if !nonNegative(c.DepthPenalty) {
		return fmt.Errorf("matrix depth_penalty must be finite and >= 0, got %v", c.DepthPenalty)
	}
	if !nonNegative(c.DiagonalBoost) {
		return fmt.Errorf("matrix diagonal_boost must be finite and >= 0, got %v", c.DiagonalBoost)
	}
	return nil
}

// ValueSource supplies the upstream association of an ordered category pair.
// *signal.PairTable implements it.
type ValueSource interface {
	PairValue(row, col string) (intent, reality float64)
}

// TriangleType is a cell's position relative to the diagonal.
type TriangleType string

const (
	Upper    TriangleType = "upper"
	Lower    TriangleType = "lower"
	Diagonal TriangleType = "diagonal"
)

// Position classifies cell (i, j). It depends on nothing but the indices.
func Position(i, j int) TriangleType {
	switch {
	case i < j:
		return Upper
	case i > j:
		return Lower
	}
	return Diagonal
}

// Cell is one matrix entry.
type Cell struct {
	RowCategory  string       `json:"row_category"`
	ColCategory  string       `json:"col_category"`
	IntentValue  float64      `json:"intent_value"`
	RealityValue float64      `json:"reality_value"`
	TriangleType TriangleType `json:"triangle_type"`
	DebtUnits    float64      `json:"debt_units"`
}

// CategoryTotal is the debt a category accumulates along its row and column.
type CategoryTotal struct {
	CategoryID  string  `json:"category_id"`
	RowUnits    float64 `json:"row_units"`
	ColumnUnits float64 `json:"column_units"`
}

// PresenceMatrix is the built matrix. Cells are stored row-major; it is never
// modified after Build returns.
type PresenceMatrix struct {
	Categories         []category.Category `json:"categories"`
	Dimension          int                 `json:"dimension"`
	Cells              []Cell              `json:"cells"`
	UpperTriangleUnits float64             `json:"upper_triangle_units"`
	LowerTriangleUnits float64             `json:"lower_triangle_units"`
	DiagonalUnits      float64             `json:"diagonal_units"`
	AsymmetryRatio     core.ExtendedFloat  `json:"asymmetry_ratio"`
	CategoryTotals     []CategoryTotal     `json:"category_totals"`
}

// At returns cell (i, j).
func (m *PresenceMatrix) At(i, j int) Cell {
	return m.Cells[i*m.Dimension+j]
}

// TotalUnits sums the three triangle sub-totals.
func (m *PresenceMatrix) TotalUnits() float64 {
	return m.UpperTriangleUnits + m.LowerTriangleUnits + m.DiagonalUnits
}

// Units returns the debt units as a dense matrix, or nil for an empty matrix.
func (m *PresenceMatrix) Units() *mat.Dense {
	if m.Dimension == 0 {
		return nil
	}
	data := make([]float64, len(m.Cells))
	for k, c := range m.Cells {
		data[k] = c.DebtUnits
	}
	return mat.NewDense(m.Dimension, m.Dimension, data)
}

// AsymmetryRatio divides upper by lower debt. A zero denominator yields +Inf,
// including 0/0.
func AsymmetryRatio(upper, lower float64) core.ExtendedFloat {
	if lower == 0 {
		return core.Inf()
	}
	return core.ExtendedFloat(upper / lower)
}

// Build populates the matrix for ordered, which must be ShortLex ordered
// without duplicates. Values that are NaN, infinite or negative fail the run
// with a *core.CorruptInputError naming the cell. Sub-totals are accumulated
// in row-major order, so identical input gives bit-identical output.
func Build(ordered []category.Category, values ValueSource, cfg Config) (*PresenceMatrix, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := category.CheckUnique(ordered); err != nil {
		return nil, err
	}
	if !category.ValidateOrder(ordered) {
		return nil, ErrNotOrdered
	}

	n := len(ordered)
	m := &PresenceMatrix{
		Categories:     make([]category.Category, n),
		Dimension:      n,
		Cells:          make([]Cell, 0, n*n),
		CategoryTotals: make([]CategoryTotal, n),
	}
	for i, c := range ordered {
		m.Categories[i] = c.Clone()
		m.CategoryTotals[i].CategoryID = c.ID
	}

	for i, row := range ordered {
		for j, col := range ordered {
			intent, reality := values.PairValue(row.ID, col.ID)
			if err := checkValue(i, j, row.ID, col.ID, "intent_value", intent); err != nil {
				return nil, err
			}
			if err := checkValue(i, j, row.ID, col.ID, "reality_value", reality); err != nil {
				return nil, err
			}

			cell := Cell{
				RowCategory:  row.ID,
				ColCategory:  col.ID,
				IntentValue:  intent,
				RealityValue: reality,
				TriangleType: Position(i, j),
			}

			var value float64
			boost := 1.0
			switch cell.TriangleType {
			case Upper:
				value = reality
			case Lower:
				value = intent
			case Diagonal:
				value = math.Abs(intent - reality)
				boost = cfg.DiagonalBoost
			}
			penalty := 1 + cfg.DepthPenalty*float64(max(row.Depth, col.Depth))
			cell.DebtUnits = value * penalty * boost

			switch cell.TriangleType {
			case Upper:
				m.UpperTriangleUnits += cell.DebtUnits
			case Lower:
				m.LowerTriangleUnits += cell.DebtUnits
			case Diagonal:
				m.DiagonalUnits += cell.DebtUnits
			}
			m.CategoryTotals[i].RowUnits += cell.DebtUnits
			m.CategoryTotals[j].ColumnUnits += cell.DebtUnits
			m.Cells = append(m.Cells, cell)
		}
	}

	m.AsymmetryRatio = AsymmetryRatio(m.UpperTriangleUnits, m.LowerTriangleUnits)
	return m, nil
}

func nonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func checkValue(i, j int, rowID, colID, field string, v float64) error {
	if !nonNegative(v) {
		return &core.CorruptInputError{Row: i, Col: j, RowID: rowID, ColID: colID, Field: field, Value: v}
	}
	return nil
}
