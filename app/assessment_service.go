package app

import (
	"context"
	"fmt"
	"time"

	"trustdebt/domain/balancer"
	"trustdebt/domain/core"
	"trustdebt/domain/grade"
	"trustdebt/domain/matrix"
	"trustdebt/domain/report"
	"trustdebt/domain/signal"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"
	"trustdebt/internal/errors"
	"trustdebt/ports"
)

// Settings is the engine calibration of a run. It is part of the input
// fingerprint.
type Settings struct {
	Balancer        balancer.Config  `json:"balancer"`
	Matrix          matrix.Config    `json:"matrix"`
	Boundaries      grade.Boundaries `json:"grade_boundaries"`
	TrajectoryNoise float64          `json:"trajectory_noise"`
	VisibilityScale float64          `json:"visibility_scale"`
}

// DefaultSettings returns the calibration starting point.
func DefaultSettings() Settings {
	return Settings{
		Balancer:        balancer.DefaultConfig(),
		Matrix:          matrix.DefaultConfig(),
		Boundaries:      grade.DefaultBoundaries(),
		TrajectoryNoise: grade.DefaultNoise,
		VisibilityScale: 100,
	}
}

// RunObserver receives the outcome of every run; internal/metrics provides
// the Prometheus implementation.
type RunObserver interface {
	ObserveRun(r *report.Report, elapsed time.Duration)
	ObserveFailure(code string)
}

type nopObserver struct{}

func (nopObserver) ObserveRun(*report.Report, time.Duration) {}
func (nopObserver) ObserveFailure(string)                    {}

// AssessmentService runs the pipeline for one snapshot: load categories,
// balance them against the signal, order, build the matrix and grade it.
// It holds no per-run state, so one service may serve concurrent runs.
type AssessmentService struct {
	settings   Settings
	balancer   *balancer.Balancer
	calculator *grade.Calculator
	history    ports.HistoryRepository
	observer   RunObserver
	logger     *internal.Logger
	now        func() core.Timestamp
}

// Option customizes an AssessmentService.
type Option func(*AssessmentService)

// WithHistory enables trajectory lookup and persistence of finished runs.
func WithHistory(history ports.HistoryRepository) Option {
	return func(s *AssessmentService) { s.history = history }
}

// WithObserver attaches a run observer.
func WithObserver(observer RunObserver) Option {
	return func(s *AssessmentService) { s.observer = observer }
}

// WithClock replaces the timestamp source.
func WithClock(now func() core.Timestamp) Option {
	return func(s *AssessmentService) { s.now = now }
}

// NewAssessmentService validates settings and creates the service.
func NewAssessmentService(settings Settings, logger *internal.Logger, opts ...Option) (*AssessmentService, error) {
	if err := settings.Balancer.Thresholds.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if err := settings.Matrix.Validate(); err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if settings.VisibilityScale <= 0 {
		return nil, errors.ConfigInvalid(fmt.Sprintf("visibility scale must be > 0, got %v", settings.VisibilityScale))
	}
	calculator, err := grade.NewCalculator(settings.Boundaries, settings.TrajectoryNoise)
	if err != nil {
		return nil, errors.WithCode(errors.CodeConfigInvalid, err)
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}

	s := &AssessmentService{
		settings:   settings,
		balancer:   balancer.New(settings.Balancer),
		calculator: calculator,
		observer:   nopObserver{},
		logger:     logger,
		now:        core.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Settings returns the calibration in use.
func (s *AssessmentService) Settings() Settings {
	return s.settings
}

// Calculator exposes the grade calculator for callers that only grade totals.
func (s *AssessmentService) Calculator() *grade.Calculator {
	return s.calculator
}

// AssessSource loads a snapshot from src and assesses it.
func (s *AssessmentService) AssessSource(ctx context.Context, src ports.SignalSource) (*report.Report, error) {
	snap, err := src.Load(ctx)
	if err != nil {
		s.observer.ObserveFailure(errors.GetCode(err))
		return nil, errors.Wrapf(err, "failed to load snapshot from %s", src.Describe())
	}
	return s.Assess(ctx, snap)
}

// Assess runs the full pipeline. Definitional and corrupt-input errors stop
// the run and come back as *errors.AppError carrying the domain error; an
// unresolved balance or a category without signal is reported as a warning.
func (s *AssessmentService) Assess(ctx context.Context, snap *snapshot.Snapshot) (*report.Report, error) {
	start := time.Now()
	rep, err := s.assess(ctx, snap)
	if err != nil {
		s.observer.ObserveFailure(errors.GetCode(err))
		return nil, err
	}
	s.observer.ObserveRun(rep, time.Since(start))
	return rep, nil
}

func (s *AssessmentService) assess(ctx context.Context, snap *snapshot.Snapshot) (*report.Report, error) {
	if snap == nil {
		return nil, errors.InvalidInput("snapshot is required")
	}
	runID := core.NewRunID()
	project := snap.ProjectID()
	log := s.logger.With("run_id", runID.String(), "project", project.String())
	log.Info("assessment started: %s", snap.Summary())

	store, err := snap.Store()
	if err != nil {
		return nil, errors.Wrap(err, "invalid category definitions")
	}
	table, err := snap.Table()
	if err != nil {
		return nil, errors.Wrap(err, "invalid signal table")
	}
	fingerprint, err := snap.Fingerprint(s.settings)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fingerprint inputs")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	balanced, err := s.balancer.Balance(store, table)
	if err != nil {
		return nil, errors.Wrap(err, "category balancing failed")
	}
	for _, pass := range balanced.History {
		log.Debug("balance pass %d: categories=%d orthogonality=%.4f coverage=%.4f adjustments=%d",
			pass.Pass, pass.CategoryCount, pass.OrthogonalityScore, pass.CoverageScore, len(pass.Adjustments))
	}

	warnings := []string{}
	warn := func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		warnings = append(warnings, msg)
		log.Warn("%s", msg)
	}
	if balanced.Unresolved {
		warn("category balancing unresolved after %d passes; using the best set from pass %d", balanced.Passes, balanced.BestPass)
	}
	for _, id := range balanced.Report.NoSignal {
		warn("category %s has no signal; its correlations are treated as zero", id)
	}

	ordered := balanced.Store.Ordered()
	var pairs matrix.ValueSource
	if snap.HasExplicitPairs() {
		if balanced.Passes > 0 {
			warn("explicit pair values were supplied but balancing changed the category set; new categories read as zero")
		}
		pairs = snap.PairTable()
	} else {
		pairs = signal.DerivePairTable(table, ordered, s.settings.VisibilityScale)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := matrix.Build(ordered, pairs, s.settings.Matrix)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build presence matrix")
	}
	result, err := s.calculator.Compute(m)
	if err != nil {
		return nil, errors.Wrap(err, "failed to grade presence matrix")
	}

	rep := &report.Report{
		RunID:         runID,
		Project:       project,
		Fingerprint:   fingerprint,
		Categories:    report.Categories(ordered),
		Matrix:        report.Matrix(m),
		Result:        result,
		Orthogonality: report.Orthogonality(balanced.Report),
		Balance:       report.Balance(balanced),
		Warnings:      warnings,
		GeneratedAt:   s.now(),
	}

	trajectory, err := s.trajectory(ctx, snap, project, result.TotalUnits)
	if err != nil {
		return nil, err
	}
	rep.Trajectory = trajectory

	if s.history != nil {
		if err := s.history.Save(ctx, rep); err != nil {
			log.Error("failed to save run history: %v", err)
			rep.Warnings = append(rep.Warnings, "run history was not saved")
		}
	}

	log.Info("assessment finished: grade=%s total=%.2f categories=%d unresolved=%t",
		result.Grade, result.TotalUnits, len(ordered), balanced.Unresolved)
	return rep, nil
}

// trajectory prefers a prior total carried by the snapshot over stored history.
func (s *AssessmentService) trajectory(ctx context.Context, snap *snapshot.Snapshot, project core.ProjectID, total float64) (*report.TrajectoryRecord, error) {
	var prior float64
	switch {
	case snap.PriorTotalUnits != nil:
		prior = *snap.PriorTotalUnits
	case s.history != nil:
		latest, found, err := s.history.LatestTotal(ctx, project)
		if err != nil {
			s.logger.Warn("history lookup failed for %s: %v", project, err)
			return nil, nil
		}
		if !found {
			return nil, nil
		}
		prior = latest
	default:
		return nil, nil
	}

	t, err := s.calculator.Trajectory(prior, total)
	if err != nil {
		return nil, errors.Wrap(err, "invalid prior total")
	}
	return &report.TrajectoryRecord{PriorTotalUnits: prior, Delta: total - prior, Trajectory: t}, nil
}
