package orthogonality

import (
	"testing"

	"trustdebt/domain/core"
	"trustdebt/domain/signal"
	"trustdebt/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zeroSignal(id string, samples int) signal.CategorySignal {
	return signal.CategorySignal{ID: id, Vectors: signal.Vectors{
		Intent:  make([]float64, samples),
		Reality: make([]float64, samples),
	}}
}

func TestValidate_IndependentBalancedSet(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(5, 0.05)

	report, err := NewValidator(DefaultThresholds()).Validate(table.CategorySignals(cats))
	require.NoError(t, err)

	assert.InDelta(t, 0.95, report.OrthogonalityScore, 1e-9)
	assert.InDelta(t, 0.05, report.MaxPairwiseCorrelation, 1e-9)
	assert.Equal(t, 1.0, report.CoverageScore)
	assert.True(t, report.Acceptable)
	assert.Len(t, report.Pairs, 10)
	assert.Empty(t, report.FlaggedPairs)
	assert.Empty(t, report.WarnPairs)
	assert.Empty(t, report.NoSignal)
	for _, s := range report.Shares {
		assert.InDelta(t, 0.2, s.Share, 1e-12, s.CategoryID)
	}
	for _, p := range report.Pairs {
		assert.Equal(t, StatusHealthy, p.Status)
		assert.Equal(t, table.SampleCount(), p.SampleSize)
	}
}

func TestValidate_FewerThanTwoCategories(t *testing.T) {
	v := NewValidator(DefaultThresholds())

	report, err := v.Validate(nil)
	require.NoError(t, err)
	assert.True(t, report.Acceptable)
	assert.Empty(t, report.Pairs)
	assert.Nil(t, report.CorrelationMatrix())

	cats, table := testkit.IndependentTaxonomy(1, 0)
	report, err = v.Validate(table.CategorySignals(cats))
	require.NoError(t, err)
	assert.True(t, report.Acceptable)
	assert.Equal(t, 1.0, report.OrthogonalityScore)
	assert.Equal(t, 1.0, report.CoverageScore)
	assert.Empty(t, report.Pairs)
}

func TestValidate_NoSignalIsZeroCorrelation(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(2, 0.05)
	signals := append(table.CategorySignals(cats), zeroSignal("C", table.SampleCount()))

	report, err := NewValidator(DefaultThresholds()).Validate(signals)
	require.NoError(t, err)

	assert.Equal(t, []string{"C"}, report.NoSignal)
	corr, ok := report.Correlation("A", "C")
	require.True(t, ok)
	assert.Equal(t, 0.0, corr)
	assert.Equal(t, []string{"C"}, report.Underutilized)
	assert.Equal(t, []string{"A", "B"}, report.Overloaded)
	assert.False(t, report.Acceptable)
}

func TestValidate_ZeroTotalMass(t *testing.T) {
	signals := []signal.CategorySignal{zeroSignal("B", 4), zeroSignal("A", 4)}

	report, err := NewValidator(DefaultThresholds()).Validate(signals)
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, report.NoSignal)
	assert.Equal(t, 0.0, report.CoverageScore)
	assert.Equal(t, 1.0, report.OrthogonalityScore)
	assert.Empty(t, report.Underutilized)
	assert.False(t, report.Acceptable)
}

func TestValidate_Classification(t *testing.T) {
	t.Run("flagged pair", func(t *testing.T) {
		cats, table := testkit.CorrelatedPairTaxonomy()
		report, err := NewValidator(DefaultThresholds()).Validate(table.CategorySignals(cats))
		require.NoError(t, err)

		require.Len(t, report.FlaggedPairs, 1)
		assert.Equal(t, "A", report.FlaggedPairs[0].CategoryA)
		assert.Equal(t, "B", report.FlaggedPairs[0].CategoryB)
		assert.InDelta(t, 16.0/18.0, report.MaxPairwiseCorrelation, 1e-9)
		assert.Equal(t, []string{"A", "B"}, report.Overloaded)
		assert.False(t, report.Acceptable)
	})

	t.Run("warn pairs do not block", func(t *testing.T) {
		cats, table := testkit.IndependentTaxonomy(3, 0.2)
		report, err := NewValidator(DefaultThresholds()).Validate(table.CategorySignals(cats))
		require.NoError(t, err)

		assert.Len(t, report.WarnPairs, 3)
		assert.Empty(t, report.FlaggedPairs)
		assert.True(t, report.Acceptable)
	})

	t.Run("boundaries", func(t *testing.T) {
		v := NewValidator(DefaultThresholds())
		assert.Equal(t, StatusHealthy, v.classify(0.0999))
		assert.Equal(t, StatusWarn, v.classify(0.1))
		assert.Equal(t, StatusWarn, v.classify(-0.3))
		assert.Equal(t, StatusFlagged, v.classify(0.3001))
	})
}

func TestValidate_ParallelMatchesSequential(t *testing.T) {
	cfg := testkit.DefaultSignalConfig()
	cfg.RootCount = 5
	cats, table := testkit.NewSignalGenerator(cfg).Generate()
	signals := table.CategorySignals(cats)

	sequential, err := NewValidator(DefaultThresholds()).Validate(signals)
	require.NoError(t, err)

	parallelThresholds := DefaultThresholds()
	parallelThresholds.Workers = 4
	parallel, err := NewValidator(parallelThresholds).Validate(signals)
	require.NoError(t, err)

	assert.Equal(t, sequential.Pairs, parallel.Pairs)
	assert.Equal(t, sequential.FlaggedPairs, parallel.FlaggedPairs)
	assert.Equal(t, sequential.MaxPairwiseCorrelation, parallel.MaxPairwiseCorrelation)
	assert.Equal(t, sequential.CorrelationMatrix().RawSymmetric().Data, parallel.CorrelationMatrix().RawSymmetric().Data)
}

func TestValidate_InputOrderIndependent(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(4, 0.05)
	signals := table.CategorySignals(cats)
	reversed := make([]signal.CategorySignal, len(signals))
	for i, s := range signals {
		reversed[len(signals)-1-i] = s
	}

	v := NewValidator(DefaultThresholds())
	a, err := v.Validate(signals)
	require.NoError(t, err)
	b, err := v.Validate(reversed)
	require.NoError(t, err)

	assert.Equal(t, a.Pairs, b.Pairs)
	assert.Equal(t, []string{"A", "B", "C", "D"}, b.IDs())
}

func TestValidate_CorrelationMatrix(t *testing.T) {
	cats, table := testkit.CorrelatedPairTaxonomy()
	report, err := NewValidator(DefaultThresholds()).Validate(table.CategorySignals(cats))
	require.NoError(t, err)

	m := report.CorrelationMatrix()
	require.NotNil(t, m)
	assert.Equal(t, 2, m.SymmetricDim())
	assert.Equal(t, 1.0, m.At(0, 0))
	assert.InDelta(t, 16.0/18.0, m.At(1, 0), 1e-9)

	m.SetSym(0, 1, 0)
	corr, _ := report.Correlation("A", "B")
	assert.InDelta(t, 16.0/18.0, corr, 1e-9, "returned matrix must be a copy")
}

func TestValidate_InvalidInput(t *testing.T) {
	v := NewValidator(DefaultThresholds())

	_, err := v.Validate([]signal.CategorySignal{zeroSignal("A", 3), zeroSignal("A", 3)})
	assert.ErrorIs(t, err, core.ErrDuplicateCategoryID)

	_, err = v.Validate([]signal.CategorySignal{zeroSignal("A", 3), zeroSignal("B", 4)})
	assert.ErrorIs(t, err, core.ErrInvalidSignal)
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, DefaultThresholds().Validate())

	bad := DefaultThresholds()
	bad.Warn = 0.5
	assert.Error(t, bad.Validate())

	bad = DefaultThresholds()
	bad.MinShare = 0.5
	assert.Error(t, bad.Validate())
}
