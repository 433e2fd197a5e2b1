package app

import (
	"context"

	"trustdebt/domain/report"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"

	"golang.org/x/sync/errgroup"
)

// BatchItem is the outcome of one snapshot in a batch.
type BatchItem struct {
	Project string         `json:"project"`
	Report  *report.Report `json:"report,omitempty"`
	Err     error          `json:"-"`
}

// BatchService assesses independent snapshots in parallel. Runs share only
// the read-only service configuration; a failed run does not stop the others.
type BatchService struct {
	assessments *AssessmentService
	workers     int
	logger      *internal.Logger
}

// NewBatchService creates a batch runner with at most workers concurrent runs.
func NewBatchService(assessments *AssessmentService, workers int, logger *internal.Logger) *BatchService {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &BatchService{assessments: assessments, workers: workers, logger: logger}
}

// AssessAll returns one item per snapshot, in input order. The error is
// non-nil only when ctx ends before every run was started.
func (b *BatchService) AssessAll(ctx context.Context, snaps []*snapshot.Snapshot) ([]BatchItem, error) {
	items := make([]BatchItem, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for i, snap := range snaps {
		i, snap := i, snap
		if snap != nil {
			items[i].Project = snap.ProjectID().String()
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				items[i].Err = err
				return err
			}
			rep, err := b.assessments.Assess(gctx, snap)
			items[i].Report = rep
			items[i].Err = err
			return nil
		})
	}
	err := g.Wait()

	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}
	b.logger.Info("batch finished: runs=%d failed=%d", len(items), failed)
	return items, err
}
