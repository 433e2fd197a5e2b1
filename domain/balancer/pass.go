package balancer

import (
	"math"
	"sort"

	"trustdebt/domain/category"
	"trustdebt/domain/orthogonality"
	"trustdebt/domain/signal"
)

// workset is the private copy one pass edits. A category changed earlier in
// the pass is marked touched and left alone for the rest of it, because the
// report no longer describes its signal.
type workset struct {
	store   *category.Store
	defs    map[string]*category.Category
	used    map[string]struct{}
	touched map[string]bool
	table   *signal.Table
}

func newWorkset(store *category.Store, table *signal.Table) *workset {
	w := &workset{
		store:   store,
		defs:    make(map[string]*category.Category, store.Len()),
		used:    store.UsedIDs(),
		touched: make(map[string]bool),
		table:   table,
	}
	for _, c := range store.Categories() {
		c := c
		w.defs[c.ID] = &c
	}
	return w
}

func (w *workset) available(id string) bool {
	_, ok := w.defs[id]
	return ok && !w.touched[id]
}

func (w *workset) mass(keywords []string) float64 {
	return w.table.Vectors(keywords).Mass()
}

// fraction returns the part of a keyword set's weight that moves with part,
// by signal mass, or by keyword count when the whole set carries no signal.
func (w *workset) fraction(part, whole []string) float64 {
	if len(whole) == 0 {
		return 0
	}
	if total := w.mass(whole); total > 0 {
		return w.mass(part) / total
	}
	return float64(len(part)) / float64(len(whole))
}

func (w *workset) definitions() []category.Category {
	out := make([]category.Category, 0, len(w.defs))
	for _, c := range w.defs {
		out = append(out, *c)
	}
	return category.SortByShortLex(out)
}

// pass applies one round of adjustments in a fixed order: splits of
// overloaded categories, merges of underutilized ones, then reassignment for
// flagged pairs, each in ShortLex order.
func (b *Balancer) pass(store *category.Store, table *signal.Table, report *orthogonality.Report) (*category.Store, []Adjustment, error) {
	w := newWorkset(store, table)
	var adjustments []Adjustment

	for _, id := range report.Overloaded {
		if adj, ok := w.split(id); ok {
			adjustments = append(adjustments, adj)
		}
	}
	for _, id := range report.Underutilized {
		if adj, ok := w.merge(id, report); ok {
			adjustments = append(adjustments, adj)
		}
	}
	for _, pair := range report.FlaggedPairs {
		if adj, ok := w.reassign(pair, b.cfg.Thresholds.Reject); ok {
			adjustments = append(adjustments, adj)
		}
	}

	if len(adjustments) == 0 {
		return store, nil, nil
	}
	next, err := category.Load(w.definitions())
	if err != nil {
		return nil, nil, err
	}
	return next, adjustments, nil
}

// split moves part of an overloaded category's keywords into a new sibling
// leaf. Categories with fewer than two keywords cannot split.
func (w *workset) split(id string) (Adjustment, bool) {
	if !w.available(id) {
		return Adjustment{}, false
	}
	c := w.defs[id]
	if len(c.Keywords) < 2 {
		return Adjustment{}, false
	}

	keep, move := partition(w.table, c.Keywords)
	share := w.fraction(move, c.Keywords)

	newID := category.NextSiblingID(c.ID, w.used)
	w.used[newID] = struct{}{}
	w.defs[newID] = &category.Category{
		ID:          newID,
		DisplayName: c.DisplayName + " / " + move[0],
		ParentID:    c.ParentID,
		Depth:       c.Depth,
		Keywords:    move,
		Weight:      c.Weight * share,
	}
	c.Keywords = keep
	c.Weight -= c.Weight * share

	w.touched[id] = true
	w.touched[newID] = true
	return Adjustment{Action: ActionSplit, Source: id, Target: newID, Keywords: append([]string(nil), move...)}, true
}

// merge absorbs an underutilized leaf into the sibling it correlates with
// most; ties go to the bytewise smaller id. Leaf status and siblings come
// from the pass's input store; neither changes for an untouched category.
func (w *workset) merge(id string, report *orthogonality.Report) (Adjustment, bool) {
	if !w.available(id) || !w.store.IsLeaf(id) {
		return Adjustment{}, false
	}

	survivor := ""
	bestCorr := math.Inf(-1)
	for _, sib := range w.store.Siblings(id) {
		if !w.available(sib) || !report.Has(sib) {
			continue
		}
		corr, _ := report.Correlation(id, sib)
		if corr > bestCorr || (corr == bestCorr && sib < survivor) {
			survivor, bestCorr = sib, corr
		}
	}
	if survivor == "" {
		return Adjustment{}, false
	}

	moved := w.absorb(id, survivor)
	return Adjustment{Action: ActionMerge, Source: id, Target: survivor, Keywords: moved}, true
}

// absorb removes the leaf id and hands its keywords and weight to survivor.
func (w *workset) absorb(id, survivor string) []string {
	c, s := w.defs[id], w.defs[survivor]
	s.Keywords = category.NormalizeKeywords(append(s.Keywords, c.Keywords...))
	s.Weight += c.Weight
	delete(w.defs, id)
	w.touched[id] = true
	w.touched[survivor] = true
	return append([]string(nil), c.Keywords...)
}

// reassign resolves a flagged pair by giving the overlapping keywords to the
// higher-weight member exclusively.
func (w *workset) reassign(pair orthogonality.CorrelationEntry, reject float64) (Adjustment, bool) {
	if !w.available(pair.CategoryA) || !w.available(pair.CategoryB) {
		return Adjustment{}, false
	}
	// CategoryA is ShortLex-smaller, so it keeps the keywords on a weight tie.
	high, low := w.defs[pair.CategoryA], w.defs[pair.CategoryB]
	if low.Weight > high.Weight {
		high, low = low, high
	}

	highVector := w.table.Vectors(high.Keywords).Combined()
	overlap := intersect(high.Keywords, low.Keywords)
	if len(overlap) == 0 {
		for _, kw := range low.Keywords {
			if orthogonality.Correlate(w.table.KeywordVector(kw), highVector) > reject {
				overlap = append(overlap, kw)
			}
		}
	}
	if len(overlap) == 0 {
		return Adjustment{}, false
	}

	if len(overlap) == len(low.Keywords) {
		if w.store.IsLeaf(low.ID) && low.ParentID == high.ParentID {
			moved := w.absorb(low.ID, high.ID)
			return Adjustment{Action: ActionMerge, Source: low.ID, Target: high.ID, Keywords: moved}, true
		}
		overlap = withoutLeastCorrelated(w.table, overlap, highVector)
		if len(overlap) == 0 {
			return Adjustment{}, false
		}
	}

	share := w.fraction(overlap, low.Keywords)
	transfer := low.Weight * share
	low.Keywords = subtract(low.Keywords, overlap)
	low.Weight -= transfer
	high.Keywords = category.NormalizeKeywords(append(high.Keywords, overlap...))
	high.Weight += transfer

	w.touched[high.ID] = true
	w.touched[low.ID] = true
	return Adjustment{Action: ActionReassign, Source: low.ID, Target: high.ID, Keywords: overlap}, true
}

// withoutLeastCorrelated drops the keyword whose signal is least correlated
// with the receiving category (first alphabetically on ties), so the donor
// keeps one keyword.
func withoutLeastCorrelated(table *signal.Table, keywords []string, target []float64) []string {
	keep := 0
	lowest := math.Inf(1)
	for i, kw := range keywords {
		if corr := orthogonality.Correlate(table.KeywordVector(kw), target); corr < lowest {
			keep, lowest = i, corr
		}
	}
	out := make([]string, 0, len(keywords)-1)
	out = append(out, keywords[:keep]...)
	return append(out, keywords[keep+1:]...)
}

func intersect(a, b []string) []string {
	set := make(map[string]struct{}, len(a))
	for _, kw := range a {
		set[kw] = struct{}{}
	}
	var out []string
	for _, kw := range b {
		if _, ok := set[kw]; ok {
			out = append(out, kw)
		}
	}
	sort.Strings(out)
	return out
}

func subtract(from, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, kw := range remove {
		drop[kw] = struct{}{}
	}
	out := make([]string, 0, len(from))
	for _, kw := range from {
		if _, ok := drop[kw]; !ok {
			out = append(out, kw)
		}
	}
	return out
}
