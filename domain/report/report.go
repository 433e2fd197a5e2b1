// Package report defines the downstream record of a run. Field names and
// nesting are a stable contract with narrative, report and history
// consumers.
package report

import (
	"time"

	"trustdebt/domain/balancer"
	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/grade"
	"trustdebt/domain/matrix"
	"trustdebt/domain/orthogonality"
)

// CategoryRecord is one entry of the ordered category list.
type CategoryRecord struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Depth       int     `json:"depth"`
	ParentID    *string `json:"parent_id"`
	Weight      float64 `json:"weight"`
}

// MatrixRecord is the full presence matrix.
type MatrixRecord struct {
	Dimension      int                    `json:"dimension"`
	Cells          []matrix.Cell          `json:"cells"`
	CategoryTotals []matrix.CategoryTotal `json:"category_totals"`
	Profile        matrix.DebtProfile     `json:"profile"`
}

// OrthogonalityRecord summarizes the final validation.
type OrthogonalityRecord struct {
	Score                  float64                          `json:"score"`
	CoverageScore          float64                          `json:"coverage_score"`
	MaxPairwiseCorrelation float64                          `json:"max_pairwise_correlation"`
	FlaggedPairs           []orthogonality.CorrelationEntry `json:"flagged_pairs"`
	WarnPairs              []orthogonality.CorrelationEntry `json:"warn_pairs"`
	Underutilized          []string                         `json:"underutilized"`
	Overloaded             []string                         `json:"overloaded"`
	NoSignal               []string                         `json:"no_signal"`
	Acceptable             bool                             `json:"acceptable"`
}

// BalanceRecord describes how the category set was reached.
type BalanceRecord struct {
	Passes     int                    `json:"passes"`
	Unresolved bool                   `json:"unresolved"`
	BestPass   int                    `json:"best_pass"`
	History    []balancer.PassSummary `json:"history"`
}

// TrajectoryRecord compares the run with the previous one.
type TrajectoryRecord struct {
	PriorTotalUnits float64          `json:"prior_total_units"`
	Delta           float64          `json:"delta"`
	Trajectory      grade.Trajectory `json:"trajectory"`
}

// RunSummary is one stored run without its report document.
type RunSummary struct {
	RunID      core.RunID     `json:"run_id"`
	Project    core.ProjectID `json:"project"`
	TotalUnits float64        `json:"total_units"`
	Grade      string         `json:"grade"`
	Trajectory *string        `json:"trajectory,omitempty"`
	Unresolved bool           `json:"unresolved"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Report is the terminal output of a run.
type Report struct {
	RunID         core.RunID             `json:"run_id"`
	Project       core.ProjectID         `json:"project"`
	Fingerprint   core.InputFingerprint  `json:"fingerprint"`
	Categories    []CategoryRecord       `json:"categories"`
	Matrix        MatrixRecord           `json:"matrix"`
	Result        *grade.TrustDebtResult `json:"result"`
	Orthogonality OrthogonalityRecord    `json:"orthogonality"`
	Balance       BalanceRecord          `json:"balance"`
	Warnings      []string               `json:"warnings"`
	Trajectory    *TrajectoryRecord      `json:"trajectory,omitempty"`
	GeneratedAt   core.Timestamp         `json:"generated_at"`
}

// Categories converts an ordered category list into records.
func Categories(ordered []category.Category) []CategoryRecord {
	out := make([]CategoryRecord, len(ordered))
	for i, c := range ordered {
		rec := CategoryRecord{ID: c.ID, DisplayName: c.DisplayName, Depth: c.Depth, Weight: c.Weight}
		if c.ParentID != "" {
			parent := c.ParentID
			rec.ParentID = &parent
		}
		out[i] = rec
	}
	return out
}

// Matrix converts a built matrix into its record.
func Matrix(m *matrix.PresenceMatrix) MatrixRecord {
	return MatrixRecord{
		Dimension:      m.Dimension,
		Cells:          m.Cells,
		CategoryTotals: m.CategoryTotals,
		Profile:        matrix.Profile(m),
	}
}

// Orthogonality converts a validation report into its record.
func Orthogonality(r *orthogonality.Report) OrthogonalityRecord {
	return OrthogonalityRecord{
		Score:                  r.OrthogonalityScore,
		CoverageScore:          r.CoverageScore,
		MaxPairwiseCorrelation: r.MaxPairwiseCorrelation,
		FlaggedPairs:           r.FlaggedPairs,
		WarnPairs:              r.WarnPairs,
		Underutilized:          r.Underutilized,
		Overloaded:             r.Overloaded,
		NoSignal:               r.NoSignal,
		Acceptable:             r.Acceptable,
	}
}

// Balance converts a balancer result into its record.
func Balance(r *balancer.Result) BalanceRecord {
	return BalanceRecord{
		Passes:     r.Passes,
		Unresolved: r.Unresolved,
		BestPass:   r.BestPass,
		History:    r.History,
	}
}
