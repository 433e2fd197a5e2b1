package matrix

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/signal"
	"trustdebt/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_HandComputedTotals(t *testing.T) {
	cats, pairs := testkit.ScenarioThree()

	m, err := Build(cats, pairs, DefaultConfig())
	require.NoError(t, err)

	// upper: (A,A.1) 10*1.5 + (A,B) 10*1 + (A.1,B) 10*1.5
	assert.Equal(t, 40.0, m.UpperTriangleUnits)
	// lower: (A.1,A) 2*1.5 + (B,A) 2*1 + (B,A.1) 2*1.5
	assert.Equal(t, 8.0, m.LowerTriangleUnits)
	assert.Equal(t, 0.0, m.DiagonalUnits)
	assert.Equal(t, 48.0, m.TotalUnits())
	assert.Equal(t, core.ExtendedFloat(5), m.AsymmetryRatio)

	assert.Equal(t, 3, m.Dimension)
	require.Len(t, m.Cells, 9)
	assert.Equal(t, Cell{RowCategory: "A", ColCategory: "A.1", IntentValue: 2, RealityValue: 10, TriangleType: Upper, DebtUnits: 15}, m.At(0, 1))
	assert.Equal(t, Cell{RowCategory: "B", ColCategory: "A.1", IntentValue: 2, RealityValue: 10, TriangleType: Lower, DebtUnits: 3}, m.At(2, 1))

	assert.Equal(t, []CategoryTotal{
		{CategoryID: "A", RowUnits: 25, ColumnUnits: 5},
		{CategoryID: "A.1", RowUnits: 18, ColumnUnits: 18},
		{CategoryID: "B", RowUnits: 5, ColumnUnits: 25},
	}, m.CategoryTotals)
}

func TestBuild_DiagonalBoostAndPenalty(t *testing.T) {
	cats, _ := testkit.ScenarioThree()
	pairs := signal.NewPairTable()
	pairs.Set("A.1", "A.1", 1, 4)

	m, err := Build(cats, pairs, DefaultConfig())
	require.NoError(t, err)

	// |1-4| * (1 + 0.5*1) * 2.0
	assert.Equal(t, 9.0, m.DiagonalUnits)
	assert.Equal(t, 9.0, m.At(1, 1).DebtUnits)
	assert.True(t, m.AsymmetryRatio.IsInf())
}

func TestBuild_ZeroLowerIsInfinite(t *testing.T) {
	cats := []category.Category{
		{ID: "A", Keywords: []string{"a"}},
		{ID: "B", Keywords: []string{"b"}},
	}
	pairs := signal.NewPairTable()
	pairs.Set("A", "B", 0, 42)

	m, err := Build(cats, pairs, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 42.0, m.UpperTriangleUnits)
	assert.Equal(t, 0.0, m.LowerTriangleUnits)
	assert.True(t, math.IsInf(m.AsymmetryRatio.Float64(), 1))

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"asymmetry_ratio":"+Infinity"`)
}

func TestBuild_TriangleIsPositional(t *testing.T) {
	cats, pairs := testkit.ScenarioThree()
	swapped := signal.NewPairTable()
	for _, row := range cats {
		for _, col := range cats {
			intent, reality := pairs.PairValue(row.ID, col.ID)
			swapped.Set(row.ID, col.ID, reality, intent)
		}
	}

	a, err := Build(cats, pairs, DefaultConfig())
	require.NoError(t, err)
	b, err := Build(cats, swapped, DefaultConfig())
	require.NoError(t, err)

	for i := 0; i < a.Dimension; i++ {
		for j := 0; j < a.Dimension; j++ {
			assert.Equal(t, Position(i, j), a.At(i, j).TriangleType)
			assert.Equal(t, a.At(i, j).TriangleType, b.At(i, j).TriangleType)
		}
	}
	assert.Equal(t, a.UpperTriangleUnits, b.LowerTriangleUnits)
}

func TestBuild_CorruptCell(t *testing.T) {
	cats, pairs := testkit.ScenarioThree()
	pairs.Set("B", "A.1", math.NaN(), 10)

	_, err := Build(cats, pairs, DefaultConfig())
	require.ErrorIs(t, err, core.ErrCorruptMatrixInput)

	var corrupt *core.CorruptInputError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, 2, corrupt.Row)
	assert.Equal(t, 1, corrupt.Col)
	assert.Equal(t, "B", corrupt.RowID)
	assert.Equal(t, "A.1", corrupt.ColID)
	assert.Equal(t, "intent_value", corrupt.Field)

	pairs.Set("B", "A.1", 2, -1)
	_, err = Build(cats, pairs, DefaultConfig())
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "reality_value", corrupt.Field)
}

func TestBuild_RejectsBadLists(t *testing.T) {
	cats, pairs := testkit.ScenarioThree()

	_, err := Build([]category.Category{cats[0], cats[2], cats[1]}, pairs, DefaultConfig())
	assert.ErrorIs(t, err, ErrNotOrdered)

	_, err = Build([]category.Category{cats[0], cats[0]}, pairs, DefaultConfig())
	assert.ErrorIs(t, err, core.ErrDuplicateCategoryID)

	_, err = Build(cats, pairs, Config{DepthPenalty: -1, DiagonalBoost: 2})
	assert.Error(t, err)
}

func TestBuild_Deterministic(t *testing.T) {
	cfg := testkit.DefaultSignalConfig()
	defs, table := testkit.NewSignalGenerator(cfg).Generate()
	ordered := category.SortByShortLex(defs)
	pairs := signal.DerivePairTable(table, ordered, 100)

	a, err := Build(ordered, pairs, DefaultConfig())
	require.NoError(t, err)
	b, err := Build(ordered, pairs, DefaultConfig())
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, ja, jb)
	assert.InDelta(t, a.TotalUnits(), a.UpperTriangleUnits+a.LowerTriangleUnits+a.DiagonalUnits, 1e-9)

	units := a.Units()
	require.NotNil(t, units)
	r, c := units.Dims()
	assert.Equal(t, a.Dimension, r)
	assert.Equal(t, a.Dimension, c)
	assert.Equal(t, a.At(1, 0).DebtUnits, units.At(1, 0))
}

func TestBuild_Empty(t *testing.T) {
	m, err := Build(nil, signal.NewPairTable(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 0, m.Dimension)
	assert.Empty(t, m.Cells)
	assert.Nil(t, m.Units())
	assert.Equal(t, 0.0, m.TotalUnits())
	assert.True(t, m.AsymmetryRatio.IsInf())
}
