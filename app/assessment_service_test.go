package app

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/grade"
	"trustdebt/domain/report"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"
	"trustdebt/internal/errors"
	"trustdebt/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) LatestTotal(ctx context.Context, project core.ProjectID) (float64, bool, error) {
	args := m.Called(ctx, project)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

func (m *MockHistoryRepository) Save(ctx context.Context, r *report.Report) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockHistoryRepository) ListRuns(ctx context.Context, project core.ProjectID, limit int) ([]report.RunSummary, error) {
	args := m.Called(ctx, project, limit)
	runs, _ := args.Get(0).([]report.RunSummary)
	return runs, args.Error(1)
}

func (m *MockHistoryRepository) GetReport(ctx context.Context, runID core.RunID) (*report.Report, error) {
	args := m.Called(ctx, runID)
	rep, _ := args.Get(0).(*report.Report)
	return rep, args.Error(1)
}

type MockSignalSource struct {
	mock.Mock
}

func (m *MockSignalSource) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	args := m.Called(ctx)
	snap, _ := args.Get(0).(*snapshot.Snapshot)
	return snap, args.Error(1)
}

func (m *MockSignalSource) Describe() string {
	return "mock source"
}

type recordingObserver struct {
	runs     int
	failures []string
}

func (r *recordingObserver) ObserveRun(*report.Report, time.Duration) { r.runs++ }
func (r *recordingObserver) ObserveFailure(code string)               { r.failures = append(r.failures, code) }

var fixedTime = core.NewTimestamp(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

func newService(t *testing.T, settings Settings, opts ...Option) *AssessmentService {
	t.Helper()
	opts = append([]Option{WithClock(func() core.Timestamp { return fixedTime })}, opts...)
	svc, err := NewAssessmentService(settings, internal.NewNopLogger(), opts...)
	require.NoError(t, err)
	return svc
}

func scenarioThreeSnapshot() *snapshot.Snapshot {
	return testkit.ScenarioThreeSnapshot("scenario-three")
}

func TestAssess_IndependentTaxonomy(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(5, 0.05)
	svc := newService(t, DefaultSettings())

	rep, err := svc.Assess(context.Background(), testkit.Snapshot("intent-guard", cats, table))
	require.NoError(t, err)

	assert.Equal(t, core.ProjectID("intent-guard"), rep.Project)
	assert.NotEmpty(t, rep.RunID)
	assert.Len(t, rep.Fingerprint.String(), 64)
	assert.Len(t, rep.Categories, 5)
	assert.Equal(t, 5, rep.Matrix.Dimension)
	assert.Len(t, rep.Matrix.Cells, 25)
	assert.Empty(t, rep.Warnings)
	assert.Nil(t, rep.Trajectory)
	assert.Equal(t, 0, rep.Balance.Passes)
	assert.True(t, rep.Orthogonality.Acceptable)
	assert.InDelta(t, 0.95, rep.Orthogonality.Score, 1e-9)
	assert.Equal(t, fixedTime, rep.GeneratedAt)

	r := rep.Result
	require.NotNil(t, r)
	assert.InDelta(t, r.TotalUnits, r.UpperTriangleUnits+r.LowerTriangleUnits+r.DiagonalUnits, 1e-9)
	assert.Equal(t, grade.DefaultBoundaries().Lookup(r.TotalUnits), r.Grade)
}

func TestAssess_ExplicitPairs(t *testing.T) {
	svc := newService(t, DefaultSettings())

	rep, err := svc.Assess(context.Background(), scenarioThreeSnapshot())
	require.NoError(t, err)

	assert.Equal(t, 40.0, rep.Result.UpperTriangleUnits)
	assert.Equal(t, 8.0, rep.Result.LowerTriangleUnits)
	assert.Equal(t, 48.0, rep.Result.TotalUnits)
	assert.Equal(t, "A", rep.Result.Grade)
	assert.Equal(t, core.ExtendedFloat(5), rep.Result.AsymmetryRatio)
	assert.Equal(t, 15.0, rep.Matrix.Profile.Max)
	assert.Equal(t, "A", rep.Matrix.Profile.Hotspots[0].RowCategory)

	// categories carry no keyword signal, so balancing cannot make progress
	assert.True(t, rep.Balance.Unresolved)
	assert.Equal(t, []string{"A", "A.1", "B"}, rep.Orthogonality.NoSignal)
	assert.Len(t, rep.Warnings, 4)
	require.NotNil(t, rep.Categories[1].ParentID)
	assert.Equal(t, "A", *rep.Categories[1].ParentID)
	assert.Nil(t, rep.Categories[0].ParentID)
}

func TestAssess_BalancesCorrelatedPair(t *testing.T) {
	cats, table := testkit.CorrelatedPairTaxonomy()

	rep, err := newService(t, DefaultSettings()).Assess(context.Background(), testkit.Snapshot("p", cats, table))
	require.NoError(t, err)
	assert.Equal(t, 3, rep.Balance.Passes)
	assert.False(t, rep.Balance.Unresolved)
	assert.Len(t, rep.Categories, 5)
	assert.Empty(t, rep.Warnings)

	settings := DefaultSettings()
	settings.Balancer.MaxIterations = 1
	rep, err = newService(t, settings).Assess(context.Background(), testkit.Snapshot("p", cats, table))
	require.NoError(t, err)
	assert.True(t, rep.Balance.Unresolved)
	require.Len(t, rep.Warnings, 1)
	assert.Contains(t, rep.Warnings[0], "unresolved")
}

func TestAssess_Deterministic(t *testing.T) {
	cats, table := testkit.NewSignalGenerator(testkit.DefaultSignalConfig()).Generate()
	svc := newService(t, DefaultSettings())

	a, err := svc.Assess(context.Background(), testkit.Snapshot("gen", cats, table))
	require.NoError(t, err)
	b, err := svc.Assess(context.Background(), testkit.Snapshot("gen", cats, table))
	require.NoError(t, err)

	assert.NotEqual(t, a.RunID, b.RunID)
	b.RunID = a.RunID
	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(ja), string(jb))
}

func TestAssess_DefinitionErrorsHaltTheRun(t *testing.T) {
	observer := &recordingObserver{}
	svc := newService(t, DefaultSettings(), WithObserver(observer))

	snap := &snapshot.Snapshot{Categories: []category.Category{
		{ID: "A", Keywords: []string{"a"}},
		{ID: "B.1", ParentID: "B", Depth: 1, Keywords: []string{"b"}},
	}}
	_, err := svc.Assess(context.Background(), snap)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrOrphanCategory)
	assert.Equal(t, errors.CodeInvalidDefinition, errors.GetCode(err))
	assert.Equal(t, []string{errors.CodeInvalidDefinition}, observer.failures)
	assert.Equal(t, 0, observer.runs)
}

func TestAssess_CorruptPairValue(t *testing.T) {
	snap := scenarioThreeSnapshot()
	snap.Pairs[5].Reality = -3

	_, err := newService(t, DefaultSettings()).Assess(context.Background(), snap)
	require.Error(t, err)
	assert.Equal(t, errors.CodeCorruptInput, errors.GetCode(err))

	var corrupt *core.CorruptInputError
	require.True(t, stderrors.As(err, &corrupt))
	assert.Equal(t, snap.Pairs[5].Row, corrupt.RowID)
	assert.Equal(t, snap.Pairs[5].Col, corrupt.ColID)
}

func TestAssess_HistoryTrajectory(t *testing.T) {
	history := new(MockHistoryRepository)
	history.On("LatestTotal", mock.Anything, core.ProjectID("scenario-three")).Return(1000.0, true, nil)
	history.On("Save", mock.Anything, mock.AnythingOfType("*report.Report")).Return(nil)

	rep, err := newService(t, DefaultSettings(), WithHistory(history)).Assess(context.Background(), scenarioThreeSnapshot())
	require.NoError(t, err)

	require.NotNil(t, rep.Trajectory)
	assert.Equal(t, grade.Improving, rep.Trajectory.Trajectory)
	assert.Equal(t, 1000.0, rep.Trajectory.PriorTotalUnits)
	assert.Equal(t, -952.0, rep.Trajectory.Delta)
	history.AssertExpectations(t)
}

func TestAssess_SnapshotPriorWinsOverHistory(t *testing.T) {
	history := new(MockHistoryRepository)
	history.On("Save", mock.Anything, mock.Anything).Return(stderrors.New("connection refused"))

	snap := scenarioThreeSnapshot()
	prior := 47.0
	snap.PriorTotalUnits = &prior

	rep, err := newService(t, DefaultSettings(), WithHistory(history)).Assess(context.Background(), snap)
	require.NoError(t, err)

	assert.Equal(t, grade.Stable, rep.Trajectory.Trajectory)
	assert.Contains(t, rep.Warnings, "run history was not saved")
	history.AssertNotCalled(t, "LatestTotal", mock.Anything, mock.Anything)
}

func TestAssessSource(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(3, 0)
	src := new(MockSignalSource)
	src.On("Load", mock.Anything).Return(testkit.Snapshot("src", cats, table), nil).Once()
	src.On("Load", mock.Anything).Return(nil, errors.InvalidInput("unreadable")).Once()

	svc := newService(t, DefaultSettings())
	rep, err := svc.AssessSource(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, core.ProjectID("src"), rep.Project)

	_, err = svc.AssessSource(context.Background(), src)
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	src.AssertExpectations(t)
}

func TestAssess_CancelledContext(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(3, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newService(t, DefaultSettings()).Assess(ctx, testkit.Snapshot("p", cats, table))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewAssessmentService_RejectsBadSettings(t *testing.T) {
	settings := DefaultSettings()
	settings.Boundaries = grade.Boundaries{{Grade: "A", MaxUnits: 10}}
	_, err := NewAssessmentService(settings, internal.NewNopLogger())
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))

	settings = DefaultSettings()
	settings.VisibilityScale = 0
	_, err = NewAssessmentService(settings, internal.NewNopLogger())
	assert.Error(t, err)
}
