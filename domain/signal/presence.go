package signal

import (
	"math"

	"trustdebt/domain/category"
)

// PairEntry is one explicit intent/reality association between two
// categories, as an upstream producer may supply it directly.
type PairEntry struct {
	Row     string  `json:"row" yaml:"row"`
	Col     string  `json:"col" yaml:"col"`
	Intent  float64 `json:"intent" yaml:"intent"`
	Reality float64 `json:"reality" yaml:"reality"`
}

type pairKey struct {
	row, col string
}

// PairTable holds intentValue/realityValue per ordered category pair on a
// common non-negative scale. Missing pairs read as zero association.
type PairTable struct {
	values map[pairKey][2]float64
}

// NewPairTable creates an empty table.
func NewPairTable() *PairTable {
	return &PairTable{values: make(map[pairKey][2]float64)}
}

// NewPairTableFromEntries builds a table from explicit entries; later
// entries for the same pair win.
func NewPairTableFromEntries(entries []PairEntry) *PairTable {
	p := NewPairTable()
	for _, e := range entries {
		p.Set(e.Row, e.Col, e.Intent, e.Reality)
	}
	return p
}

// Set stores the values of the ordered pair (row, col).
func (p *PairTable) Set(row, col string, intent, reality float64) {
	p.values[pairKey{row, col}] = [2]float64{intent, reality}
}

// PairValue returns intent and reality for (row, col). Values are returned
// unvalidated; the matrix builder rejects corrupt ones with their location.
func (p *PairTable) PairValue(row, col string) (intent, reality float64) {
	v := p.values[pairKey{row, col}]
	return v[0], v[1]
}

// Len returns the number of stored pairs.
func (p *PairTable) Len() int {
	return len(p.values)
}

// DerivePairTable turns per-keyword signal into pair associations for the
// given categories. Off-diagonal intent(i,j) is the documentation mass the two
// categories share sample by sample (sum of minima) relative to total
// documentation mass; reality(i,j) is the same over implementation vectors.
// The diagonal carries each category's own share of documentation and of
// implementation. Everything is multiplied by scale (the visibility
// multiplier). Zero total mass on a side yields zeros for that side.
func DerivePairTable(t *Table, cats []category.Category, scale float64) *PairTable {
	signals := t.CategorySignals(cats)

	docTotal, implTotal := 0.0, 0.0
	for _, s := range signals {
		docTotal += Mass(s.Vectors.Intent)
		implTotal += Mass(s.Vectors.Reality)
	}

	p := NewPairTable()
	for i, a := range signals {
		for j, b := range signals {
			var intent, reality float64
			if i == j {
				intent = share(Mass(a.Vectors.Intent), docTotal)
				reality = share(Mass(a.Vectors.Reality), implTotal)
			} else {
				intent = share(overlap(a.Vectors.Intent, b.Vectors.Intent), docTotal)
				reality = share(overlap(a.Vectors.Reality, b.Vectors.Reality), implTotal)
			}
			p.Set(a.ID, b.ID, intent*scale, reality*scale)
		}
	}
	return p
}

func overlap(a, b []float64) float64 {
	sum := 0.0
	for s := range a {
		sum += math.Min(a[s], b[s])
	}
	return sum
}

func share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total
}
