// Package testkit provides deterministic taxonomy and signal fixtures for
// tests across the engine.
package testkit

import (
	"fmt"
	"math"
	"math/bits"

	"trustdebt/domain/category"
	"trustdebt/domain/signal"
	"trustdebt/domain/snapshot"
)

// Hadamard returns the Sylvester Hadamard matrix of order m (a power of two)
// as rows of ±1. Rows 1..m-1 sum to zero and are mutually orthogonal, which
// makes them exact building blocks for vectors with a chosen correlation.
func Hadamard(m int) [][]float64 {
	if m < 1 || m&(m-1) != 0 {
		panic(fmt.Sprintf("testkit: Hadamard order %d is not a power of two", m))
	}
	rows := make([][]float64, m)
	for r := 0; r < m; r++ {
		rows[r] = make([]float64, m)
		for c := 0; c < m; c++ {
			if bits.OnesCount(uint(r&c))%2 == 0 {
				rows[r][c] = 1
			} else {
				rows[r][c] = -1
			}
		}
	}
	return rows
}

// EquicorrelatedVectors returns k non-negative vectors of equal mass whose
// pairwise Pearson correlation is exactly rho (0 <= rho < 1). Each vector is
// offset + a*h1 + h(i+2) with a = sqrt(rho/(1-rho)).
func EquicorrelatedVectors(k int, rho float64) [][]float64 {
	m := 4
	for m < k+2 {
		m *= 2
	}
	h := Hadamard(m)
	a := math.Sqrt(rho / (1 - rho))
	offset := 2 + a

	out := make([][]float64, k)
	for i := 0; i < k; i++ {
		v := make([]float64, m)
		for s := 0; s < m; s++ {
			v[s] = offset + a*h[1][s] + h[i+2][s]
		}
		out[i] = v
	}
	return out
}

// Samples returns n sample labels.
func Samples(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("s%02d", i)
	}
	return out
}

// halves splits a combined vector evenly into intent and reality.
func halves(v []float64) signal.KeywordSignal {
	intent := make([]float64, len(v))
	reality := make([]float64, len(v))
	for i, x := range v {
		intent[i] = x / 2
		reality[i] = x / 2
	}
	return signal.KeywordSignal{Intent: intent, Reality: reality}
}

// IndependentTaxonomy builds k root categories with one keyword each whose
// signals have pairwise correlation rho and equal share 1/k.
func IndependentTaxonomy(k int, rho float64) ([]category.Category, *signal.Table) {
	vectors := EquicorrelatedVectors(k, rho)
	cats := make([]category.Category, k)
	rows := make([]signal.KeywordSignal, k)
	used := map[string]struct{}{}
	for i, v := range vectors {
		id := category.NextRootID(used)
		used[id] = struct{}{}
		kw := fmt.Sprintf("kw%d", i)
		cats[i] = category.Category{ID: id, DisplayName: "Category " + id, Keywords: []string{kw}, Weight: 1 / float64(k)}
		rows[i] = halves(v)
		rows[i].Keyword = kw
	}
	return cats, mustTable(Samples(len(vectors[0])), rows)
}

// CorrelatedPairTaxonomy builds two root categories A{a1,a2,a3} and
// B{b1,b2,b3} over 8 samples. a1 and b1 share the dominant direction 4*h1,
// every other keyword has its own orthogonal direction, so corr(A,B) is
// 16/18 (about 0.89) while the keywords themselves can be separated.
func CorrelatedPairTaxonomy() ([]category.Category, *signal.Table) {
	h := Hadamard(8)
	const offset, dominant = 6.0, 4.0
	vec := func(scale float64, row int) []float64 {
		v := make([]float64, 8)
		for s := range v {
			v[s] = offset + scale*h[row][s]
		}
		return v
	}

	shapes := []struct {
		keyword string
		vector  []float64
	}{
		{"a1", vec(dominant, 1)},
		{"a2", vec(1, 2)},
		{"a3", vec(1, 3)},
		{"b1", vec(dominant, 1)},
		{"b2", vec(1, 4)},
		{"b3", vec(1, 5)},
	}
	rows := make([]signal.KeywordSignal, len(shapes))
	for i, s := range shapes {
		rows[i] = halves(s.vector)
		rows[i].Keyword = s.keyword
	}

	cats := []category.Category{
		{ID: "A", DisplayName: "Authentication", Keywords: []string{"a1", "a2", "a3"}, Weight: 0.5},
		{ID: "B", DisplayName: "Billing", Keywords: []string{"b1", "b2", "b3"}, Weight: 0.5},
	}
	return cats, mustTable(Samples(8), rows)
}

// ScenarioThree returns the ordered list [A, A.1, B] with every off-diagonal
// pair at intent 2 / reality 10 and every diagonal at intent = reality = 5.
func ScenarioThree() ([]category.Category, *signal.PairTable) {
	cats := []category.Category{
		{ID: "A", DisplayName: "Core", Depth: 0, Keywords: []string{"core"}, Weight: 0.5},
		{ID: "A.1", DisplayName: "Core API", ParentID: "A", Depth: 1, Keywords: []string{"api"}, Weight: 0.25},
		{ID: "B", DisplayName: "Docs", Depth: 0, Keywords: []string{"docs"}, Weight: 0.25},
	}
	pairs := signal.NewPairTable()
	for _, row := range cats {
		for _, col := range cats {
			if row.ID == col.ID {
				pairs.Set(row.ID, col.ID, 5, 5)
			} else {
				pairs.Set(row.ID, col.ID, 2, 10)
			}
		}
	}
	return cats, pairs
}

// ScenarioThreeSnapshot carries the ScenarioThree pairs as explicit entries.
func ScenarioThreeSnapshot(project string) *snapshot.Snapshot {
	cats, pairs := ScenarioThree()
	var entries []signal.PairEntry
	for _, row := range cats {
		for _, col := range cats {
			intent, reality := pairs.PairValue(row.ID, col.ID)
			entries = append(entries, signal.PairEntry{Row: row.ID, Col: col.ID, Intent: intent, Reality: reality})
		}
	}
	return &snapshot.Snapshot{Project: project, Categories: cats, Pairs: entries}
}

// Snapshot packages fixture categories and signal as a run input.
func Snapshot(project string, cats []category.Category, table *signal.Table) *snapshot.Snapshot {
	return &snapshot.Snapshot{
		Project:    project,
		Categories: cats,
		Samples:    table.Samples(),
		Signals:    table.Rows(),
	}
}

func mustTable(samples []string, rows []signal.KeywordSignal) *signal.Table {
	table, err := signal.NewTable(samples, rows)
	if err != nil {
		panic(fmt.Sprintf("testkit: invalid fixture table: %v", err))
	}
	return table
}
