package balancer

import (
	"math"
	"sort"

	"trustdebt/domain/signal"
)

// partition splits a keyword set (two or more tokens) into two groups by
// co-occurrence. The seeds are the pair that co-occurs least, first pair in
// alphabetical order on ties; every other keyword, taken alphabetically,
// joins the seed it co-occurs with more, the first seed on ties.
func partition(table *signal.Table, keywords []string) (first, second []string) {
	kws := append([]string(nil), keywords...)
	sort.Strings(kws)

	seedA, seedB := 0, 1
	lowest := math.MaxInt
	for i := 0; i < len(kws); i++ {
		for j := i + 1; j < len(kws); j++ {
			if co := table.CoOccurrence(kws[i], kws[j]); co < lowest {
				seedA, seedB, lowest = i, j, co
			}
		}
	}

	first = []string{kws[seedA]}
	second = []string{kws[seedB]}
	for i, kw := range kws {
		if i == seedA || i == seedB {
			continue
		}
		if table.CoOccurrence(kw, kws[seedB]) > table.CoOccurrence(kw, kws[seedA]) {
			second = append(second, kw)
		} else {
			first = append(first, kw)
		}
	}
	sort.Strings(first)
	sort.Strings(second)
	return first, second
}
