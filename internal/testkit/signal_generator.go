package testkit

import (
	"fmt"
	"math/rand"

	"trustdebt/domain/category"
	"trustdebt/domain/signal"
)

// SignalGeneratorConfig configures the random taxonomy generator.
type SignalGeneratorConfig struct {
	RootCount        int     `json:"root_count"`
	ChildrenPerRoot  int     `json:"children_per_root"`
	KeywordsPerLeaf  int     `json:"keywords_per_leaf"`
	SampleCount      int     `json:"sample_count"`
	SharedSignalRate float64 `json:"shared_signal_rate"`
	Seed             int64   `json:"seed"`
}

// DefaultSignalConfig returns sensible defaults for generated taxonomies.
func DefaultSignalConfig() SignalGeneratorConfig {
	return SignalGeneratorConfig{
		RootCount:        4,
		ChildrenPerRoot:  1,
		KeywordsPerLeaf:  3,
		SampleCount:      16,
		SharedSignalRate: 0.25,
		Seed:             42,
	}
}

// SignalGenerator produces random but reproducible category forests with
// keyword signal. A fraction of samples carries a shared component across
// all keywords so correlations are neither trivially zero nor one.
type SignalGenerator struct {
	config SignalGeneratorConfig
	rng    *rand.Rand
}

// NewSignalGenerator creates a new generator seeded from config.
func NewSignalGenerator(config SignalGeneratorConfig) *SignalGenerator {
	return &SignalGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate returns category definitions (every category carries keywords)
// and the signal table covering all of them.
func (g *SignalGenerator) Generate() ([]category.Category, *signal.Table) {
	var cats []category.Category
	var rows []signal.KeywordSignal

	shared := make([]float64, g.config.SampleCount)
	for s := range shared {
		if g.rng.Float64() < g.config.SharedSignalRate {
			shared[s] = float64(g.rng.Intn(5) + 1)
		}
	}

	used := map[string]struct{}{}
	total := g.config.RootCount * (1 + g.config.ChildrenPerRoot)
	weight := 1 / float64(total)

	add := func(id, parent string, depth int) {
		keywords := make([]string, g.config.KeywordsPerLeaf)
		for k := range keywords {
			kw := fmt.Sprintf("%s_kw%d", id, k)
			keywords[k] = category.NormalizeKeyword(kw)
			rows = append(rows, g.keywordSignal(keywords[k], shared))
		}
		cats = append(cats, category.Category{
			ID:          id,
			DisplayName: "Generated " + id,
			ParentID:    parent,
			Depth:       depth,
			Keywords:    keywords,
			Weight:      weight,
		})
	}

	for r := 0; r < g.config.RootCount; r++ {
		root := category.NextRootID(used)
		used[root] = struct{}{}
		add(root, "", 0)
		for c := 0; c < g.config.ChildrenPerRoot; c++ {
			child := category.NextChildID(root, used)
			used[child] = struct{}{}
			add(child, root, 1)
		}
	}

	return cats, mustTable(Samples(g.config.SampleCount), rows)
}

func (g *SignalGenerator) keywordSignal(keyword string, shared []float64) signal.KeywordSignal {
	intent := make([]float64, len(shared))
	reality := make([]float64, len(shared))
	for s := range shared {
		own := float64(g.rng.Intn(4))
		intent[s] = own + shared[s]
		reality[s] = float64(g.rng.Intn(4)) + shared[s]/2
	}
	return signal.KeywordSignal{Keyword: keyword, Intent: intent, Reality: reality}
}
