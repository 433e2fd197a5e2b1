package migration

import (
	"context"
	"database/sql"
	stderrors "errors"
	"strings"
	"testing"

	"trustdebt/internal"
	"trustdebt/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	r.statements = append(r.statements, query)
	if r.failOn != "" && strings.Contains(query, r.failOn) {
		return nil, stderrors.New("relation error")
	}
	return nil, nil
}

func TestRun_CreatesTablesInOrder(t *testing.T) {
	db := &recordingExecer{}
	require.NoError(t, NewRunner(internal.NewNopLogger()).Run(context.Background(), db))

	require.Len(t, db.statements, 5)
	assert.Contains(t, db.statements[0], "CREATE TABLE IF NOT EXISTS trust_debt_runs")
	assert.Contains(t, db.statements[1], "REFERENCES trust_debt_runs(run_id)")
	assert.Contains(t, db.statements[2], "idx_runs_project_created")
}

func TestRun_IndexFailureIsNotFatal(t *testing.T) {
	db := &recordingExecer{failOn: "CREATE INDEX"}
	assert.NoError(t, NewRunner(internal.NewNopLogger()).Run(context.Background(), db))
}

func TestRun_TableFailure(t *testing.T) {
	db := &recordingExecer{failOn: "trust_debt_run_categories ("}
	err := NewRunner(internal.NewNopLogger()).Run(context.Background(), db)
	require.Error(t, err)
	assert.Equal(t, errors.CodeDatabaseError, errors.GetCode(err))
	assert.Equal(t, "1.0.0", NewRunner(nil).Version())
}
