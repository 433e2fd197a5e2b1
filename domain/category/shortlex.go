package category

import (
	"sort"
	"strings"
)

// Compare orders two identifiers by ShortLex applied segment by segment:
// segments compare shorter-first, then bytewise, and an id that is a
// segment prefix of another (an ancestor) sorts first. For single-segment
// ids this is exactly the (length, id) key, and for canonical ids it keeps
// every parent directly in front of its subtree.
func Compare(a, b string) int {
	sa, sb := Segments(a), Segments(b)
	for k := 0; k < len(sa) && k < len(sb); k++ {
		if len(sa[k]) != len(sb[k]) {
			if len(sa[k]) < len(sb[k]) {
				return -1
			}
			return 1
		}
		if c := strings.Compare(sa[k], sb[k]); c != 0 {
			return c
		}
	}
	switch {
	case len(sa) < len(sb):
		return -1
	case len(sa) > len(sb):
		return 1
	}
	return 0
}

// Less reports whether a sorts before b in ShortLex order.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

// SortByShortLex returns a ShortLex-ordered copy of list. The sort is stable,
// so equal ids keep their input order and the result is deterministic for
// any permutation of the same input.
func SortByShortLex(list []Category) []Category {
	out := make([]Category, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i].ID, out[j].ID)
	})
	return out
}

// SortIDs returns a ShortLex-ordered copy of ids.
func SortIDs(ids []string) []string {
	out := append([]string(nil), ids...)
	sort.SliceStable(out, func(i, j int) bool {
		return Less(out[i], out[j])
	})
	return out
}

// ValidateOrder reports whether list is a valid ShortLex order: ids strictly
// increase (so none repeats) and every parent present in the list appears
// before its children. It never fails loudly; callers decide what an invalid
// order means for them.
func ValidateOrder(list []Category) bool {
	pos := make(map[string]int, len(list))
	for i, c := range list {
		if i > 0 && Compare(list[i-1].ID, c.ID) >= 0 {
			return false
		}
		pos[c.ID] = i
	}
	for i, c := range list {
		if c.ParentID == "" {
			continue
		}
		if p, ok := pos[c.ParentID]; ok && p >= i {
			return false
		}
	}
	return true
}
