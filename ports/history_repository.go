package ports

import (
	"context"

	"trustdebt/domain/core"
	"trustdebt/domain/report"
)

// HistoryRepository stores finished runs so the next run of the same project
// can report a trajectory.
type HistoryRepository interface {
	// LatestTotal returns the most recent total for a project; found is false
	// when the project has no history
	LatestTotal(ctx context.Context, project core.ProjectID) (total float64, found bool, err error)

	// Save stores a finished report
	Save(ctx context.Context, r *report.Report) error

	// ListRuns returns a project's runs, newest first; limit <= 0 means all
	ListRuns(ctx context.Context, project core.ProjectID, limit int) ([]report.RunSummary, error)

	// GetReport loads the stored report of one run
	GetReport(ctx context.Context, runID core.RunID) (*report.Report, error)
}
