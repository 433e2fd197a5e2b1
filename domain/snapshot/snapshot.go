// Package snapshot is the fixed input of one run: category definitions plus
// the upstream signal they are measured against.
package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"trustdebt/domain/category"
	"trustdebt/domain/core"
	"trustdebt/domain/signal"
)

// Snapshot is read-only once a run starts.
type Snapshot struct {
	Project    string                 `json:"project" yaml:"project"`
	Categories []category.Category    `json:"categories" yaml:"categories"`
	Samples    []string               `json:"samples" yaml:"samples"`
	Signals    []signal.KeywordSignal `json:"signals" yaml:"signals"`
	// Pairs, when present, replace the pair values derived from Signals.
	Pairs []signal.PairEntry `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	// PriorTotalUnits is the previous run's total when the caller tracks
	// history itself.
	PriorTotalUnits *float64 `json:"prior_total_units,omitempty" yaml:"prior_total_units,omitempty"`
}

// ProjectID returns the trimmed project name, "default" when unset.
func (s *Snapshot) ProjectID() core.ProjectID {
	if id, err := core.ParseProjectID(s.Project); err == nil {
		return id
	}
	return core.ProjectID("default")
}

// Store loads the category definitions.
func (s *Snapshot) Store() (*category.Store, error) {
	return category.Load(s.Categories)
}

// Table validates and indexes the signal rows.
func (s *Snapshot) Table() (*signal.Table, error) {
	return signal.NewTable(s.Samples, s.Signals)
}

// HasExplicitPairs reports whether pair values were supplied directly.
func (s *Snapshot) HasExplicitPairs() bool {
	return len(s.Pairs) > 0
}

// PairTable returns the explicit pair values.
func (s *Snapshot) PairTable() *signal.PairTable {
	return signal.NewPairTableFromEntries(s.Pairs)
}

// Fingerprint hashes the inputs that determine a run's output together with
// the engine settings. Category order in the file does not matter; signal
// row order does not matter either.
func (s *Snapshot) Fingerprint(settings interface{}) (core.InputFingerprint, error) {
	cats := category.SortByShortLex(s.Categories)
	rows := append([]signal.KeywordSignal(nil), s.Signals...)
	sortRows(rows)
	return core.ComputeInputFingerprint(cats, s.Samples, rows, s.Pairs, settings)
}

func sortRows(rows []signal.KeywordSignal) {
	sort.SliceStable(rows, func(i, j int) bool {
		return category.NormalizeKeyword(rows[i].Keyword) < category.NormalizeKeyword(rows[j].Keyword)
	})
}

// Summary is a one-line description for logs.
func (s *Snapshot) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "project=%s categories=%d keywords=%d samples=%d",
		s.ProjectID(), len(s.Categories), len(s.Signals), len(s.Samples))
	if s.HasExplicitPairs() {
		fmt.Fprintf(&b, " pairs=%d", len(s.Pairs))
	}
	return b.String()
}
