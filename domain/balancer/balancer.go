// Package balancer reshapes a category set until it passes the orthogonality
// gate and every category's share of signal sits inside the target band.
//
// Each pass works on a private copy of the definitions and produces a new
// category.Store through category.Load, so the forest invariant is re-checked
// after every split, merge and reassignment and the caller's store is never
// touched.
package balancer

import (
	"fmt"

	"trustdebt/domain/category"
	"trustdebt/domain/orthogonality"
	"trustdebt/domain/signal"
)

// Config bounds and calibrates the balancing loop.
type Config struct {
	Thresholds    orthogonality.Thresholds `json:"thresholds"`
	MaxIterations int                      `json:"max_iterations"`
}

// DefaultConfig returns the default thresholds and a bound of 10 passes.
func DefaultConfig() Config {
	return Config{
		Thresholds:    orthogonality.DefaultThresholds(),
		MaxIterations: 10,
	}
}

// Action names the kind of change a pass made.
type Action string

const (
	ActionSplit    Action = "split"
	ActionMerge    Action = "merge"
	ActionReassign Action = "reassign"
)

// Adjustment records one change. For a split Target is the new sibling, for a
// merge it is the survivor, for a reassignment the category that received the
// keywords.
type Adjustment struct {
	Action   Action   `json:"action"`
	Source   string   `json:"source"`
	Target   string   `json:"target"`
	Keywords []string `json:"keywords"`
}

// PassSummary is the evaluation of the set reached after Pass adjustment
// passes, together with the adjustments that were applied to it next.
type PassSummary struct {
	Pass                   int          `json:"pass"`
	CategoryCount          int          `json:"category_count"`
	OrthogonalityScore     float64      `json:"orthogonality_score"`
	CoverageScore          float64      `json:"coverage_score"`
	MaxPairwiseCorrelation float64      `json:"max_pairwise_correlation"`
	Acceptable             bool         `json:"acceptable"`
	Adjustments            []Adjustment `json:"adjustments,omitempty"`
}

// Score is the quantity compared when picking the best unresolved set.
func (p PassSummary) Score() float64 {
	return p.OrthogonalityScore + p.CoverageScore
}

// Result is the outcome of Balance.
type Result struct {
	Store      *category.Store
	Report     *orthogonality.Report
	Passes     int
	Unresolved bool
	BestPass   int
	History    []PassSummary
}

// Balancer runs the bounded split/merge/reassign loop. It keeps no state
// between calls.
type Balancer struct {
	cfg       Config
	validator *orthogonality.Validator
}

// New creates a balancer. A negative iteration bound is treated as zero.
func New(cfg Config) *Balancer {
	if cfg.MaxIterations < 0 {
		cfg.MaxIterations = 0
	}
	return &Balancer{
		cfg:       cfg,
		validator: orthogonality.NewValidator(cfg.Thresholds),
	}
}

// Config returns the balancer configuration.
func (b *Balancer) Config() Config {
	return b.cfg
}

type candidate struct {
	store  *category.Store
	report *orthogonality.Report
	pass   int
}

// Balance validates store against table and adjusts the categories until the
// set is acceptable, a pass makes no change, or MaxIterations passes have
// run. In the last two cases the best-scoring set seen is returned with
// Unresolved set; that is a reported condition, not an error.
func (b *Balancer) Balance(store *category.Store, table *signal.Table) (*Result, error) {
	if err := store.ValidateForest(); err != nil {
		return nil, err
	}

	current := store
	var history []PassSummary
	var best *candidate
	passes := 0

	for {
		report, err := b.validator.Validate(table.CategorySignals(current.Ordered()))
		if err != nil {
			return nil, err
		}
		history = append(history, summarize(passes, current, report))

		if best == nil || report.Score() > best.report.Score() {
			best = &candidate{store: current, report: report, pass: passes}
		}
		if report.Acceptable {
			return &Result{
				Store:    current,
				Report:   report,
				Passes:   passes,
				BestPass: passes,
				History:  history,
			}, nil
		}
		if passes >= b.cfg.MaxIterations {
			break
		}

		next, adjustments, err := b.pass(current, table, report)
		if err != nil {
			return nil, fmt.Errorf("balancer pass %d: %w", passes+1, err)
		}
		if len(adjustments) == 0 {
			break
		}
		history[len(history)-1].Adjustments = adjustments
		current = next
		passes++
	}

	return &Result{
		Store:      best.store,
		Report:     best.report,
		Passes:     passes,
		Unresolved: true,
		BestPass:   best.pass,
		History:    history,
	}, nil
}

func summarize(pass int, store *category.Store, report *orthogonality.Report) PassSummary {
	return PassSummary{
		Pass:                   pass,
		CategoryCount:          store.Len(),
		OrthogonalityScore:     report.OrthogonalityScore,
		CoverageScore:          report.CoverageScore,
		MaxPairwiseCorrelation: report.MaxPairwiseCorrelation,
		Acceptable:             report.Acceptable,
	}
}
