// Package orthogonality measures how statistically independent a set of
// categories is and how evenly signal is spread across them.
package orthogonality

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Thresholds configures the independence and coverage gates.
type Thresholds struct {
	Reject   float64 `json:"reject" yaml:"reject"`       // |corr| above this flags the pair
	Warn     float64 `json:"warn" yaml:"warn"`           // |corr| at or above this warns
	MinShare float64 `json:"min_share" yaml:"min_share"` // share below this is underutilized
	MaxShare float64 `json:"max_share" yaml:"max_share"` // share above this is overloaded
	Workers  int     `json:"workers" yaml:"workers"`     // >1 computes pairs concurrently
}

// DefaultThresholds returns the calibration starting point.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Reject:   0.3,
		Warn:     0.1,
		MinShare: 0.02,
		MaxShare: 0.40,
		Workers:  1,
	}
}

// Validate checks the thresholds are usable.
func (t Thresholds) Validate() error {
	if t.Warn < 0 || t.Reject > 1 || t.Warn > t.Reject {
		return fmt.Errorf("orthogonality thresholds must satisfy 0 <= warn <= reject <= 1 (warn=%v reject=%v)", t.Warn, t.Reject)
	}
	if t.MinShare < 0 || t.MaxShare > 1 || t.MinShare >= t.MaxShare {
		return fmt.Errorf("share band must satisfy 0 <= min < max <= 1 (min=%v max=%v)", t.MinShare, t.MaxShare)
	}
	return nil
}

// PairStatus classifies one correlation coefficient.
type PairStatus string

const (
	StatusHealthy PairStatus = "healthy"
	StatusWarn    PairStatus = "warn"
	StatusFlagged PairStatus = "flagged"
)

// CorrelationEntry is the derived correlation of one unordered pair, A < B in
// ShortLex order.
type CorrelationEntry struct {
	CategoryA   string     `json:"category_a"`
	CategoryB   string     `json:"category_b"`
	Coefficient float64    `json:"coefficient"`
	SampleSize  int        `json:"sample_size"`
	Status      PairStatus `json:"status"`
}

// Share is a category's portion of total signal mass.
type Share struct {
	CategoryID string  `json:"category_id"`
	Mass       float64 `json:"mass"`
	Share      float64 `json:"share"`
}

// Report is the outcome of one validation. It is never mutated after
// Validate returns.
type Report struct {
	OrthogonalityScore     float64            `json:"orthogonality_score"`
	CoverageScore          float64            `json:"coverage_score"`
	MaxPairwiseCorrelation float64            `json:"max_pairwise_correlation"`
	Pairs                  []CorrelationEntry `json:"pairs"`
	FlaggedPairs           []CorrelationEntry `json:"flagged_pairs"`
	WarnPairs              []CorrelationEntry `json:"warn_pairs"`
	Underutilized          []string           `json:"underutilized"`
	Overloaded             []string           `json:"overloaded"`
	NoSignal               []string           `json:"no_signal"`
	Shares                 []Share            `json:"shares"`
	Acceptable             bool               `json:"acceptable"`

	ids         []string
	position    map[string]int
	correlation *mat.SymDense
}

// Score is the quantity the balancer maximizes when it has to fall back to
// the best set it has seen.
func (r *Report) Score() float64 {
	return r.OrthogonalityScore + r.CoverageScore
}

// Balanced reports whether no category is outside the share band.
func (r *Report) Balanced() bool {
	return len(r.Underutilized) == 0 && len(r.Overloaded) == 0
}

// IDs returns the category ids the report covers, in ShortLex order.
func (r *Report) IDs() []string {
	return append([]string(nil), r.ids...)
}

// Has reports whether the category was part of the validated set.
func (r *Report) Has(id string) bool {
	_, ok := r.position[id]
	return ok
}

// Correlation returns the coefficient between two validated categories.
func (r *Report) Correlation(a, b string) (float64, bool) {
	i, okA := r.position[a]
	j, okB := r.position[b]
	if !okA || !okB || r.correlation == nil {
		return 0, false
	}
	return r.correlation.At(i, j), true
}

// CorrelationMatrix returns a copy of the symmetric correlation matrix in
// IDs() order, or nil when no categories were validated.
func (r *Report) CorrelationMatrix() *mat.SymDense {
	if r.correlation == nil {
		return nil
	}
	out := mat.NewSymDense(r.correlation.SymmetricDim(), nil)
	out.CopySym(r.correlation)
	return out
}
