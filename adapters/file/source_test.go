package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"trustdebt/internal/errors"
	"trustdebt/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlSnapshot = `project: intent-guard
categories:
  - id: A
    display_name: Authentication
    depth: 0
    keywords: [Login, token]
    weight: 0.6
  - id: A.1
    display_name: Sessions
    parent_id: A
    depth: 1
    keywords: [session]
    weight: 0.4
samples: [s1, s2]
signals:
  - keyword: login
    intent: [1, 0]
    reality: [0, 1]
prior_total_units: 1200
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSource_LoadYAML(t *testing.T) {
	path := write(t, t.TempDir(), "run.yaml", yamlSnapshot)

	snap, err := NewSource(path).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "intent-guard", snap.Project)
	require.Len(t, snap.Categories, 2)
	assert.Equal(t, "A", snap.Categories[1].ParentID)
	assert.Equal(t, []string{"s1", "s2"}, snap.Samples)
	require.NotNil(t, snap.PriorTotalUnits)
	assert.Equal(t, 1200.0, *snap.PriorTotalUnits)

	store, err := snap.Store()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "A.1"}, store.IDs())
}

func TestSource_LoadJSONRoundTrip(t *testing.T) {
	cats, table := testkit.IndependentTaxonomy(3, 0.2)
	want := testkit.Snapshot("json", cats, table)
	data, err := Encode(want, FormatJSON)
	require.NoError(t, err)
	path := write(t, t.TempDir(), "run.json", string(data))

	got, err := NewSource(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSource_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := NewSource(filepath.Join(dir, "missing.yaml")).Load(context.Background())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))

	path := write(t, dir, "typo.yaml", "project: x\ncategoriez: []\n")
	_, err = NewSource(path).Load(context.Background())
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	path = write(t, dir, "bad.json", `{"project": 1}`)
	_, err = NewSource(path).Load(context.Background())
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewSource(path).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "b.yaml", yamlSnapshot)
	write(t, dir, "a.yml", "categories:\n  - id: A\n    keywords: [x]\n    weight: 1\n")
	write(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o700))

	snaps, err := LoadDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "a", snaps[0].Project)
	assert.Equal(t, "intent-guard", snaps[1].Project)
}
