package category

import (
	"trustdebt/domain/core"
)

// ValidateForest checks that defs form a forest: ids are unique, every
// declared parent exists, no parent chain revisits a node, and each depth is
// its parent's depth plus one. Categories are visited in ShortLex order so
// the reported offender is deterministic.
func ValidateForest(defs []Category) error {
	if err := CheckUnique(defs); err != nil {
		return err
	}

	byID := make(map[string]Category, len(defs))
	for _, c := range defs {
		byID[c.ID] = c
	}
	ordered := SortByShortLex(defs)

	for _, c := range ordered {
		if c.ParentID == "" {
			continue
		}
		if _, ok := byID[c.ParentID]; !ok {
			return core.NewOrphanCategoryError(c.ID, c.ParentID)
		}
	}

	// Every parent exists, so a walk either reaches a root or loops.
	for _, c := range ordered {
		visited := map[string]struct{}{c.ID: {}}
		for cur := c; cur.ParentID != ""; {
			if _, seen := visited[cur.ParentID]; seen {
				return core.NewCyclicHierarchyError(c.ID)
			}
			visited[cur.ParentID] = struct{}{}
			cur = byID[cur.ParentID]
		}
	}

	for _, c := range ordered {
		if c.ParentID == "" {
			if c.Depth != 0 {
				return core.NewInvalidCategoryError(c.ID, "root category must have depth 0")
			}
			continue
		}
		if parent := byID[c.ParentID]; c.Depth != parent.Depth+1 {
			return core.NewInvalidCategoryError(c.ID, "depth must equal parent depth + 1")
		}
	}
	return nil
}

// CheckUnique fails with DuplicateCategoryId on the first repeated id. The
// presence matrix indexes categories positionally, so a duplicate would
// silently alias two rows.
func CheckUnique(defs []Category) error {
	seen := make(map[string]struct{}, len(defs))
	for _, c := range defs {
		if _, ok := seen[c.ID]; ok {
			return core.NewDuplicateCategoryError(c.ID)
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
