package grade

import (
	"errors"
	"math"
	"testing"

	"trustdebt/domain/core"
	"trustdebt/domain/matrix"
	"trustdebt/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func calculator(t *testing.T) *Calculator {
	t.Helper()
	c, err := NewCalculator(DefaultBoundaries(), DefaultNoise)
	require.NoError(t, err)
	return c
}

func TestGrade_BoundaryInclusivity(t *testing.T) {
	c := calculator(t)
	tests := []struct {
		total float64
		want  string
	}{
		{0, "A"},
		{500, "A"},
		{501, "B"},
		{500.0001, "B"},
		{1500, "B"},
		{1501, "C"},
		{3000, "C"},
		{3000.5, "D"},
		{1e12, "D"},
	}
	for _, tc := range tests {
		got, err := c.Grade(tc.total)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "total %v", tc.total)
	}
}

func TestGrade_Monotonic(t *testing.T) {
	c := calculator(t)
	prev := 0
	for total := 0.0; total <= 5000; total += 7.5 {
		g, err := c.Grade(total)
		require.NoError(t, err)
		rank := c.Rank(g)
		assert.GreaterOrEqual(t, rank, prev, "grade got better as total grew at %v", total)
		prev = rank
	}
}

func TestGrade_CorruptTotals(t *testing.T) {
	c := calculator(t)
	for _, v := range []float64{math.NaN(), -1, math.Inf(1)} {
		_, err := c.Grade(v)
		assert.ErrorIs(t, err, core.ErrCorruptMatrixInput, "value %v", v)
	}

	_, err := c.FromTotals(10, math.NaN(), 0)
	var corrupt *core.CorruptInputError
	require.True(t, errors.As(err, &corrupt))
	assert.Equal(t, "lower_triangle_units", corrupt.Field)
	assert.Equal(t, -1, corrupt.Row)
}

func TestCompute_FromMatrix(t *testing.T) {
	cats, pairs := testkit.ScenarioThree()
	m, err := matrix.Build(cats, pairs, matrix.DefaultConfig())
	require.NoError(t, err)

	result, err := calculator(t).Compute(m)
	require.NoError(t, err)

	assert.Equal(t, 48.0, result.TotalUnits)
	assert.Equal(t, "A", result.Grade)
	assert.Equal(t, result.TotalUnits, result.UpperTriangleUnits+result.LowerTriangleUnits+result.DiagonalUnits)
	assert.Equal(t, core.ExtendedFloat(5), result.AsymmetryRatio)
	assert.Equal(t, DefaultBoundaries(), result.GradeBoundaries)
}

func TestFromTotals_ZeroLower(t *testing.T) {
	result, err := calculator(t).FromTotals(42, 0, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(result.AsymmetryRatio.Float64(), 1))
	assert.Equal(t, "A", result.Grade)
}

func TestTrajectory(t *testing.T) {
	c := calculator(t)
	tests := []struct {
		name           string
		prior, current float64
		want           Trajectory
	}{
		{"inside band", 1000, 1049, Stable},
		{"band edge", 1000, 1050, Stable},
		{"worse", 1000, 1051, Degrading},
		{"better", 1000, 900, Improving},
		{"both zero", 0, 0, Stable},
		{"from zero", 0, 1, Degrading},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := c.Trajectory(tc.prior, tc.current)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := c.Trajectory(-1, 10)
	assert.ErrorIs(t, err, core.ErrCorruptMatrixInput)
}

func TestParseBoundaries(t *testing.T) {
	b, err := ParseBoundaries("A:500, B:1500,C:3000,D:inf")
	require.NoError(t, err)
	assert.Equal(t, DefaultBoundaries(), b)
	assert.Equal(t, "A:500,B:1500,C:3000,D:inf", b.String())

	bad := []string{
		"",
		"A:500",
		"A:500,B:400,C:inf",
		"A:500,A:inf",
		"A500,B:inf",
		"A:x,B:inf",
		"A:-1,B:inf",
	}
	for _, s := range bad {
		_, err := ParseBoundaries(s)
		assert.ErrorIs(t, err, core.ErrInvalidBoundaries, "input %q", s)
	}

	_, err = NewCalculator(Boundaries{{Grade: "A", MaxUnits: 10}}, DefaultNoise)
	assert.ErrorIs(t, err, core.ErrInvalidBoundaries)
}
