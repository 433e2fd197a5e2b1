// Package postgres persists run history in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"math"
	"time"

	"trustdebt/domain/core"
	"trustdebt/domain/report"
	"trustdebt/internal/errors"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// HistoryRepositoryImpl implements ports.HistoryRepository for PostgreSQL
type HistoryRepositoryImpl struct {
	db *sqlx.DB
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(db *sqlx.DB) *HistoryRepositoryImpl {
	return &HistoryRepositoryImpl{db: db}
}

// Connect opens and pings a lib/pq connection pool.
func Connect(ctx context.Context, url string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", url)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to database", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return db, nil
}

type runRow struct {
	RunID       string      `db:"run_id"`
	Project     string      `db:"project"`
	Fingerprint string      `db:"fingerprint"`
	TotalUnits  float64     `db:"total_units"`
	Grade       string      `db:"grade"`
	Upper       float64     `db:"upper_triangle_units"`
	Lower       float64     `db:"lower_triangle_units"`
	Diagonal    float64     `db:"diagonal_units"`
	Asymmetry   interface{} `db:"asymmetry_ratio"`
	Trajectory  *string     `db:"trajectory"`
	Unresolved  bool        `db:"unresolved"`
	Report      string      `db:"report"`
	CreatedAt   time.Time   `db:"created_at"`
}

type categoryRow struct {
	RunID       string  `db:"run_id"`
	Position    int     `db:"position"`
	CategoryID  string  `db:"category_id"`
	DisplayName string  `db:"display_name"`
	ParentID    *string `db:"parent_id"`
	Depth       int     `db:"depth"`
	Weight      float64 `db:"weight"`
	RowUnits    float64 `db:"row_units"`
	ColumnUnits float64 `db:"column_units"`
}

type summaryRow struct {
	RunID      string    `db:"run_id"`
	Project    string    `db:"project"`
	TotalUnits float64   `db:"total_units"`
	Grade      string    `db:"grade"`
	Trajectory *string   `db:"trajectory"`
	Unresolved bool      `db:"unresolved"`
	CreatedAt  time.Time `db:"created_at"`
}

func (r summaryRow) toSummary() report.RunSummary {
	return report.RunSummary{
		RunID:      core.RunID(r.RunID),
		Project:    core.ProjectID(r.Project),
		TotalUnits: r.TotalUnits,
		Grade:      r.Grade,
		Trajectory: r.Trajectory,
		Unresolved: r.Unresolved,
		CreatedAt:  r.CreatedAt,
	}
}

// pgFloat spells infinities the way PostgreSQL's float8 input expects.
func pgFloat(v float64) interface{} {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	return v
}

func rowsFor(rep *report.Report) (runRow, []categoryRow, error) {
	doc, err := json.Marshal(rep)
	if err != nil {
		return runRow{}, nil, err
	}
	run := runRow{
		RunID:       rep.RunID.String(),
		Project:     rep.Project.String(),
		Fingerprint: rep.Fingerprint.String(),
		TotalUnits:  rep.Result.TotalUnits,
		Grade:       rep.Result.Grade,
		Upper:       rep.Result.UpperTriangleUnits,
		Lower:       rep.Result.LowerTriangleUnits,
		Diagonal:    rep.Result.DiagonalUnits,
		Asymmetry:   pgFloat(rep.Result.AsymmetryRatio.Float64()),
		Unresolved:  rep.Balance.Unresolved,
		Report:      string(doc),
		CreatedAt:   rep.GeneratedAt.Time(),
	}
	if rep.Trajectory != nil {
		t := string(rep.Trajectory.Trajectory)
		run.Trajectory = &t
	}

	totals := make(map[string][2]float64, len(rep.Matrix.CategoryTotals))
	for _, ct := range rep.Matrix.CategoryTotals {
		totals[ct.CategoryID] = [2]float64{ct.RowUnits, ct.ColumnUnits}
	}
	cats := make([]categoryRow, len(rep.Categories))
	for i, c := range rep.Categories {
		cats[i] = categoryRow{
			RunID:       run.RunID,
			Position:    i,
			CategoryID:  c.ID,
			DisplayName: c.DisplayName,
			ParentID:    c.ParentID,
			Depth:       c.Depth,
			Weight:      c.Weight,
			RowUnits:    totals[c.ID][0],
			ColumnUnits: totals[c.ID][1],
		}
	}
	return run, cats, nil
}

// Save stores the run and its ordered categories in one transaction
func (r *HistoryRepositoryImpl) Save(ctx context.Context, rep *report.Report) error {
	if rep == nil || rep.Result == nil {
		return errors.InvalidInput("report has no result")
	}
	run, cats, err := rowsFor(rep)
	if err != nil {
		return errors.Wrap(err, "failed to encode report")
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.DatabaseError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO trust_debt_runs (run_id, project, fingerprint, total_units, grade, upper_triangle_units,
			lower_triangle_units, diagonal_units, asymmetry_ratio, trajectory, unresolved, report, created_at)
		VALUES (:run_id, :project, :fingerprint, :total_units, :grade, :upper_triangle_units,
			:lower_triangle_units, :diagonal_units, :asymmetry_ratio, :trajectory, :unresolved, :report, :created_at)
	`, run); err != nil {
		return errors.DatabaseError("failed to insert run", err)
	}

	if len(cats) > 0 {
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO trust_debt_run_categories (run_id, position, category_id, display_name, parent_id,
				depth, weight, row_units, column_units)
			VALUES (:run_id, :position, :category_id, :display_name, :parent_id,
				:depth, :weight, :row_units, :column_units)
		`, cats); err != nil {
			return errors.DatabaseError("failed to insert run categories", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.DatabaseError("failed to commit run", err)
	}
	return nil
}

// LatestTotal returns the total of the project's most recent run
func (r *HistoryRepositoryImpl) LatestTotal(ctx context.Context, project core.ProjectID) (float64, bool, error) {
	var total float64
	err := r.db.GetContext(ctx, &total, `
		SELECT total_units
		FROM trust_debt_runs
		WHERE project = $1
		ORDER BY created_at DESC, run_id DESC
		LIMIT 1
	`, project.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, errors.DatabaseError("failed to read latest total", err)
	}
	return total, true, nil
}

// ListRuns returns the project's runs, newest first, optionally limited
func (r *HistoryRepositoryImpl) ListRuns(ctx context.Context, project core.ProjectID, limit int) ([]report.RunSummary, error) {
	query := `
		SELECT run_id, project, total_units, grade, trajectory, unresolved, created_at
		FROM trust_debt_runs
		WHERE project = $1
		ORDER BY created_at DESC, run_id DESC
	`
	args := []interface{}{project.String()}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}
	runs := make([]report.RunSummary, len(rows))
	for i, row := range rows {
		runs[i] = row.toSummary()
	}
	return runs, nil
}

// GetReport loads the stored report document of one run
func (r *HistoryRepositoryImpl) GetReport(ctx context.Context, runID core.RunID) (*report.Report, error) {
	var doc []byte
	err := r.db.GetContext(ctx, &doc, `SELECT report FROM trust_debt_runs WHERE run_id = $1`, runID.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound("run " + runID.String())
	}
	if err != nil {
		return nil, errors.DatabaseError("failed to read report", err)
	}
	var rep report.Report
	if err := json.Unmarshal(doc, &rep); err != nil {
		return nil, errors.Wrap(err, "stored report is not valid JSON")
	}
	return &rep, nil
}
