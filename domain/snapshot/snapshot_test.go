package snapshot

import (
	"testing"

	"trustdebt/domain/category"
	"trustdebt/domain/signal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Snapshot {
	return &Snapshot{
		Project: " intent-guard ",
		Categories: []category.Category{
			{ID: "B", Keywords: []string{"docs"}, Weight: 0.5},
			{ID: "A", Keywords: []string{"auth"}, Weight: 0.5},
		},
		Samples: []string{"s0", "s1"},
		Signals: []signal.KeywordSignal{
			{Keyword: "docs", Intent: []float64{1, 0}, Reality: []float64{0, 1}},
			{Keyword: "auth", Intent: []float64{2, 1}, Reality: []float64{1, 1}},
		},
	}
}

func TestSnapshot_Loads(t *testing.T) {
	s := sample()

	store, err := s.Store()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, store.IDs())

	table, err := s.Table()
	require.NoError(t, err)
	assert.Equal(t, 2, table.SampleCount())

	assert.Equal(t, "intent-guard", s.ProjectID().String())
	assert.Equal(t, "default", (&Snapshot{}).ProjectID().String())
	assert.False(t, s.HasExplicitPairs())
	assert.Contains(t, s.Summary(), "categories=2")
}

func TestSnapshot_FingerprintIgnoresInputOrder(t *testing.T) {
	a := sample()
	b := sample()
	b.Categories[0], b.Categories[1] = b.Categories[1], b.Categories[0]
	b.Signals[0], b.Signals[1] = b.Signals[1], b.Signals[0]

	fa, err := a.Fingerprint("cfg")
	require.NoError(t, err)
	fb, err := b.Fingerprint("cfg")
	require.NoError(t, err)
	assert.Equal(t, fa, fb)
	assert.Equal(t, "B", a.Categories[0].ID, "fingerprinting must not reorder the snapshot")

	fc, err := a.Fingerprint("other cfg")
	require.NoError(t, err)
	assert.NotEqual(t, fa, fc)

	b.Signals[0].Intent[0] = 9
	fd, err := b.Fingerprint("cfg")
	require.NoError(t, err)
	assert.NotEqual(t, fa, fd)
}
