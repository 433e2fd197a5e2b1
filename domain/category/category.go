// Package category holds the hierarchical category taxonomy a trust-debt run
// measures against: definitions, the forest invariant, and the ShortLex order
// the presence matrix is indexed by.
package category

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"trustdebt/domain/core"
)

// idPattern accepts canonical ShortLex identifiers such as "A", "B2" or "A.1.3".
var idPattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*(\.[A-Za-z0-9]+)*$`)

// Category is one node of the taxonomy forest.
type Category struct {
	ID          string   `json:"id" yaml:"id"`
	DisplayName string   `json:"display_name" yaml:"display_name"`
	ParentID    string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Depth       int      `json:"depth" yaml:"depth"`
	Keywords    []string `json:"keywords" yaml:"keywords"`
	Weight      float64  `json:"weight" yaml:"weight"`
}

// Clone returns a copy that shares no slices with c.
func (c Category) Clone() Category {
	out := c
	out.Keywords = append([]string(nil), c.Keywords...)
	return out
}

// HasKeyword reports whether kw (normalized) is in the keyword set.
func (c Category) HasKeyword(kw string) bool {
	kw = NormalizeKeyword(kw)
	i := sort.SearchStrings(c.Keywords, kw)
	return i < len(c.Keywords) && c.Keywords[i] == kw
}

// ValidID reports whether id is syntactically a ShortLex identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Segments splits an identifier into its dot-separated parts.
func Segments(id string) []string {
	if id == "" {
		return nil
	}
	return strings.Split(id, ".")
}

// ParentOf returns the id implied by dropping the last segment, or "" for roots.
func ParentOf(id string) string {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return ""
	}
	return id[:i]
}

// NormalizeKeyword trims and lower-cases a keyword token.
func NormalizeKeyword(kw string) string {
	return strings.ToLower(strings.TrimSpace(kw))
}

// NormalizeKeywords returns the sorted, de-duplicated, non-empty keyword set.
func NormalizeKeywords(keywords []string) []string {
	seen := make(map[string]struct{}, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = NormalizeKeyword(kw)
		if kw == "" {
			continue
		}
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		out = append(out, kw)
	}
	sort.Strings(out)
	return out
}

// normalize validates the parts of a definition that do not depend on other
// categories and returns the canonical form.
func normalize(def Category) (Category, error) {
	def = def.Clone()
	def.ID = strings.TrimSpace(def.ID)
	def.ParentID = strings.TrimSpace(def.ParentID)

	if !ValidID(def.ID) {
		return def, core.NewInvalidCategoryError(def.ID, "id is not a valid ShortLex identifier")
	}
	if def.Depth < 0 {
		return def, core.NewInvalidCategoryError(def.ID, "depth must be >= 0")
	}
	if def.Depth == 0 && def.ParentID != "" {
		return def, core.NewInvalidCategoryError(def.ID, "root category cannot declare a parent")
	}
	if def.Depth > 0 && def.ParentID == "" {
		return def, core.NewInvalidCategoryError(def.ID, "non-root category must declare a parent")
	}
	if def.ParentID == def.ID {
		return def, core.NewCyclicHierarchyError(def.ID)
	}
	if math.IsNaN(def.Weight) || math.IsInf(def.Weight, 0) || def.Weight < 0 {
		return def, core.NewInvalidCategoryError(def.ID, "weight must be a finite value >= 0")
	}
	def.Keywords = NormalizeKeywords(def.Keywords)
	if len(def.Keywords) == 0 {
		return def, core.NewInvalidCategoryError(def.ID, "keyword set must not be empty")
	}
	if strings.TrimSpace(def.DisplayName) == "" {
		def.DisplayName = def.ID
	}
	return def, nil
}

// checkCanonical requires the id to extend its parent's id by one segment so
// the ShortLex order keeps every subtree contiguous.
func checkCanonical(def Category) error {
	if def.ParentID == "" {
		if strings.Contains(def.ID, ".") {
			return core.NewInvalidCategoryError(def.ID, "root id must be a single segment")
		}
		return nil
	}
	if ParentOf(def.ID) != def.ParentID {
		return core.NewInvalidCategoryError(def.ID, "id must extend parent id "+def.ParentID+" by one segment")
	}
	return nil
}
