// Package signal models the upstream measurement a run consumes: per-keyword
// weighted-frequency vectors over a fixed sample domain, one vector from
// documentation (intent) and one from implementation history (reality).
package signal

import (
	"math"

	"trustdebt/domain/category"
	"trustdebt/domain/core"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// KeywordSignal is one row of the upstream table.
type KeywordSignal struct {
	Keyword string    `json:"keyword" yaml:"keyword"`
	Intent  []float64 `json:"intent" yaml:"intent"`
	Reality []float64 `json:"reality" yaml:"reality"`
}

// Table is the read-only signal snapshot for one run. Every vector has one
// entry per sample.
type Table struct {
	samples  []string
	keywords []KeywordSignal
	index    map[string]int
}

// NewTable validates and indexes the upstream rows. Keywords are normalized
// the same way category keyword sets are, so lookups match.
func NewTable(samples []string, rows []KeywordSignal) (*Table, error) {
	t := &Table{
		samples: append([]string(nil), samples...),
		index:   make(map[string]int, len(rows)),
	}
	for _, row := range rows {
		kw := category.NormalizeKeyword(row.Keyword)
		if kw == "" {
			return nil, core.NewSignalError(row.Keyword, "keyword is empty")
		}
		if _, dup := t.index[kw]; dup {
			return nil, core.NewSignalError(kw, "keyword listed more than once")
		}
		if len(row.Intent) != len(samples) || len(row.Reality) != len(samples) {
			return nil, core.NewSignalError(kw, "vector length does not match sample count")
		}
		if err := checkVector(kw, row.Intent); err != nil {
			return nil, err
		}
		if err := checkVector(kw, row.Reality); err != nil {
			return nil, err
		}
		t.index[kw] = len(t.keywords)
		t.keywords = append(t.keywords, KeywordSignal{
			Keyword: kw,
			Intent:  append([]float64(nil), row.Intent...),
			Reality: append([]float64(nil), row.Reality...),
		})
	}
	return t, nil
}

func checkVector(kw string, v []float64) error {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
			return core.NewSignalError(kw, "values must be finite and >= 0")
		}
	}
	return nil
}

// Samples returns the sample domain labels.
func (t *Table) Samples() []string {
	return append([]string(nil), t.samples...)
}

// SampleCount returns the length of every vector.
func (t *Table) SampleCount() int {
	return len(t.samples)
}

// Rows returns copies of the keyword rows in input order.
func (t *Table) Rows() []KeywordSignal {
	out := make([]KeywordSignal, len(t.keywords))
	for i, row := range t.keywords {
		out[i] = KeywordSignal{
			Keyword: row.Keyword,
			Intent:  append([]float64(nil), row.Intent...),
			Reality: append([]float64(nil), row.Reality...),
		}
	}
	return out
}

// Keyword looks up a keyword row.
func (t *Table) Keyword(kw string) (KeywordSignal, bool) {
	i, ok := t.index[category.NormalizeKeyword(kw)]
	if !ok {
		return KeywordSignal{}, false
	}
	return t.keywords[i], true
}

// KeywordVector returns intent+reality per sample for one keyword; unknown
// keywords yield a zero vector.
func (t *Table) KeywordVector(kw string) []float64 {
	out := make([]float64, len(t.samples))
	if row, ok := t.Keyword(kw); ok {
		floats.Add(out, row.Intent)
		floats.Add(out, row.Reality)
	}
	return out
}

// KeywordMass is the total measured strength of one keyword.
func (t *Table) KeywordMass(kw string) float64 {
	return Mass(t.KeywordVector(kw))
}

// CoOccurrence counts samples in which both keywords have non-zero signal.
func (t *Table) CoOccurrence(a, b string) int {
	va, vb := t.KeywordVector(a), t.KeywordVector(b)
	n := 0
	for s := range va {
		if va[s] > 0 && vb[s] > 0 {
			n++
		}
	}
	return n
}

// Vectors aggregates a keyword set into its intent and reality vectors.
// Keywords absent from the table contribute nothing.
func (t *Table) Vectors(keywords []string) Vectors {
	v := Vectors{
		Intent:  make([]float64, len(t.samples)),
		Reality: make([]float64, len(t.samples)),
	}
	for _, kw := range keywords {
		row, ok := t.Keyword(kw)
		if !ok {
			continue
		}
		floats.Add(v.Intent, row.Intent)
		floats.Add(v.Reality, row.Reality)
	}
	return v
}

// Vectors are a category's aggregated signal.
type Vectors struct {
	Intent  []float64
	Reality []float64
}

// Combined returns intent+reality per sample.
func (v Vectors) Combined() []float64 {
	out := make([]float64, len(v.Intent))
	floats.AddTo(out, v.Intent, v.Reality)
	return out
}

// Mass returns the total signal in the combined vector.
func (v Vectors) Mass() float64 {
	return Mass(v.Combined())
}

// Mass sums a vector; an empty vector has zero mass.
func Mass(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum, err := stats.Sum(v)
	if err != nil {
		return 0
	}
	return sum
}

// CategorySignal pairs a category id with its aggregated vectors.
type CategorySignal struct {
	ID      string
	Vectors Vectors
}

// CategorySignals computes the vectors of every category, in the order given.
func (t *Table) CategorySignals(cats []category.Category) []CategorySignal {
	out := make([]CategorySignal, len(cats))
	for i, c := range cats {
		out[i] = CategorySignal{ID: c.ID, Vectors: t.Vectors(c.Keywords)}
	}
	return out
}
