package orthogonality

import (
	"fmt"
	"math"
	"sort"

	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/signal"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Validator computes pairwise correlation and coverage for a category set.
// It holds only configuration and is safe for concurrent use.
type Validator struct {
	thresholds Thresholds
}

// NewValidator creates a validator with the given thresholds.
func NewValidator(thresholds Thresholds) *Validator {
	if thresholds.Workers < 1 {
		thresholds.Workers = 1
	}
	return &Validator{thresholds: thresholds}
}

// Thresholds returns the configured thresholds.
func (v *Validator) Thresholds() Thresholds {
	return v.thresholds
}

type pairJob struct {
	i, j int
}

// Validate analyses the category signal vectors. Inputs are sorted by
// ShortLex id first, so the report does not depend on input order, and pairs
// are enumerated (i<j) before any concurrent dispatch so a parallel run
// yields exactly the sequential result.
func (v *Validator) Validate(signals []signal.CategorySignal) (*Report, error) {
	sorted := append([]signal.CategorySignal(nil), signals...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return category.Less(sorted[a].ID, sorted[b].ID)
	})

	n := len(sorted)
	report := &Report{
		Pairs:         []CorrelationEntry{},
		FlaggedPairs:  []CorrelationEntry{},
		WarnPairs:     []CorrelationEntry{},
		Underutilized: []string{},
		Overloaded:    []string{},
		NoSignal:      []string{},
		Shares:        make([]Share, 0, n),
		ids:           make([]string, n),
		position:      make(map[string]int, n),
	}

	combined := make([][]float64, n)
	masses := make([]float64, n)
	total := 0.0
	for i, s := range sorted {
		if _, dup := report.position[s.ID]; dup {
			return nil, core.NewDuplicateCategoryError(s.ID)
		}
		report.ids[i] = s.ID
		report.position[s.ID] = i
		combined[i] = s.Vectors.Combined()
		if i > 0 && len(combined[i]) != len(combined[0]) {
			return nil, fmt.Errorf("%w: category %q has %d samples, expected %d",
				core.ErrInvalidSignal, s.ID, len(combined[i]), len(combined[0]))
		}
		masses[i] = signal.Mass(combined[i])
		total += masses[i]
		if masses[i] == 0 {
			report.NoSignal = append(report.NoSignal, s.ID)
		}
	}

	if n > 0 {
		report.correlation = mat.NewSymDense(n, nil)
		for i := 0; i < n; i++ {
			if masses[i] > 0 {
				report.correlation.SetSym(i, i, 1)
			}
		}
	}

	var jobs []pairJob
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			jobs = append(jobs, pairJob{i: i, j: j})
		}
	}
	coefficients := make([]float64, len(jobs))
	compute := func(k int) {
		job := jobs[k]
		if masses[job.i] == 0 || masses[job.j] == 0 {
			coefficients[k] = 0
			return
		}
		coefficients[k] = pearson(combined[job.i], combined[job.j])
	}

	if v.thresholds.Workers > 1 && len(jobs) > 1 {
		var g errgroup.Group
		g.SetLimit(v.thresholds.Workers)
		for k := range jobs {
			k := k
			g.Go(func() error {
				compute(k)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for k := range jobs {
			compute(k)
		}
	}

	sampleSize := 0
	if n > 0 {
		sampleSize = len(combined[0])
	}
	for k, job := range jobs {
		coef := coefficients[k]
		entry := CorrelationEntry{
			CategoryA:   report.ids[job.i],
			CategoryB:   report.ids[job.j],
			Coefficient: coef,
			SampleSize:  sampleSize,
			Status:      v.classify(coef),
		}
		report.correlation.SetSym(job.i, job.j, coef)
		report.Pairs = append(report.Pairs, entry)
		switch entry.Status {
		case StatusFlagged:
			report.FlaggedPairs = append(report.FlaggedPairs, entry)
		case StatusWarn:
			report.WarnPairs = append(report.WarnPairs, entry)
		}
		if abs := math.Abs(coef); abs > report.MaxPairwiseCorrelation {
			report.MaxPairwiseCorrelation = abs
		}
	}
	report.OrthogonalityScore = clamp(1-report.MaxPairwiseCorrelation, 0, 1)

	for i, id := range report.ids {
		share := 0.0
		if total > 0 {
			share = masses[i] / total
		}
		report.Shares = append(report.Shares, Share{CategoryID: id, Mass: masses[i], Share: share})
	}

	if n < 2 {
		report.CoverageScore = 1
		report.Acceptable = true
		return report, nil
	}
	if total == 0 {
		report.CoverageScore = 0
		report.Acceptable = false
		return report, nil
	}

	inBand := 0
	for _, s := range report.Shares {
		switch {
		case s.Share < v.thresholds.MinShare:
			report.Underutilized = append(report.Underutilized, s.CategoryID)
		case s.Share > v.thresholds.MaxShare:
			report.Overloaded = append(report.Overloaded, s.CategoryID)
		default:
			inBand++
		}
	}
	report.CoverageScore = float64(inBand) / float64(n)
	report.Acceptable = report.MaxPairwiseCorrelation <= v.thresholds.Reject && report.Balanced()
	return report, nil
}

func (v *Validator) classify(coef float64) PairStatus {
	abs := math.Abs(coef)
	switch {
	case abs > v.thresholds.Reject:
		return StatusFlagged
	case abs >= v.thresholds.Warn:
		return StatusWarn
	}
	return StatusHealthy
}

// pearson returns the Pearson coefficient of two equal-length vectors.
// Zero-variance or empty input has no defined correlation and reads as 0.
func pearson(x, y []float64) float64 {
	r, err := stats.Correlation(x, y)
	if err != nil || math.IsNaN(r) {
		return 0
	}
	return clamp(r, -1, 1)
}

// Correlate exposes the coefficient used by Validate for callers that need
// it on ad hoc vectors (keyword against category, for instance).
func Correlate(x, y []float64) float64 {
	if len(x) != len(y) {
		return 0
	}
	return pearson(x, y)
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
