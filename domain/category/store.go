package category

import (
	"trustdebt/domain/core"
)

// Store is an immutable-by-convention arena of categories indexed by id.
// Mutation goes through AddCategory only; consumers that reshape the
// taxonomy (the balancer) build a fresh Store with Load instead of editing
// one in place, so no parent reference can dangle.
type Store struct {
	categories []Category
	index      map[string]int
	children   map[string][]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		index:    make(map[string]int),
		children: make(map[string][]string),
	}
}

// Load builds a store from definitions given in any order. Each definition is
// checked on its own, then the whole list is checked as a forest, then ids
// are checked to be canonical for their parent.
func Load(defs []Category) (*Store, error) {
	normalized := make([]Category, 0, len(defs))
	for _, def := range defs {
		c, err := normalize(def)
		if err != nil {
			return nil, err
		}
		normalized = append(normalized, c)
	}
	if err := ValidateForest(normalized); err != nil {
		return nil, err
	}

	s := NewStore()
	for _, c := range SortByShortLex(normalized) {
		if err := checkCanonical(c); err != nil {
			return nil, err
		}
		s.insert(c)
	}
	return s, nil
}

// AddCategory validates def against the current contents and inserts it.
// The parent of a non-root category must already be present.
func (s *Store) AddCategory(def Category) error {
	c, err := normalize(def)
	if err != nil {
		return err
	}
	if _, exists := s.index[c.ID]; exists {
		return core.NewDuplicateCategoryError(c.ID)
	}
	if c.ParentID != "" {
		parent, ok := s.Get(c.ParentID)
		if !ok {
			return core.NewInvalidCategoryError(c.ID, "parent "+c.ParentID+" does not exist")
		}
		if c.Depth != parent.Depth+1 {
			return core.NewInvalidCategoryError(c.ID, "depth must equal parent depth + 1")
		}
	}
	if err := checkCanonical(c); err != nil {
		return err
	}
	s.insert(c)
	return nil
}

func (s *Store) insert(c Category) {
	s.index[c.ID] = len(s.categories)
	s.categories = append(s.categories, c)
	if c.ParentID != "" {
		s.children[c.ParentID] = SortIDs(append(s.children[c.ParentID], c.ID))
	}
}

// ValidateForest re-checks the forest invariant over the stored categories.
func (s *Store) ValidateForest() error {
	return ValidateForest(s.categories)
}

// Get returns a copy of the category with the given id.
func (s *Store) Get(id string) (Category, bool) {
	i, ok := s.index[id]
	if !ok {
		return Category{}, false
	}
	return s.categories[i].Clone(), true
}

// Has reports whether id is present.
func (s *Store) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of categories.
func (s *Store) Len() int {
	return len(s.categories)
}

// Categories returns copies of all categories in insertion order.
func (s *Store) Categories() []Category {
	out := make([]Category, len(s.categories))
	for i, c := range s.categories {
		out[i] = c.Clone()
	}
	return out
}

// Ordered returns copies of all categories in ShortLex order.
func (s *Store) Ordered() []Category {
	return SortByShortLex(s.Categories())
}

// IDs returns all ids in ShortLex order.
func (s *Store) IDs() []string {
	ids := make([]string, len(s.categories))
	for i, c := range s.categories {
		ids[i] = c.ID
	}
	return SortIDs(ids)
}

// IsLeaf reports whether id has no children.
func (s *Store) IsLeaf(id string) bool {
	return len(s.children[id]) == 0
}

// Siblings returns the other categories sharing id's parent (other roots for
// a root), in ShortLex order.
func (s *Store) Siblings(id string) []string {
	c, ok := s.Get(id)
	if !ok {
		return nil
	}
	var pool []string
	if c.ParentID == "" {
		for _, other := range s.categories {
			if other.ParentID == "" {
				pool = append(pool, other.ID)
			}
		}
		pool = SortIDs(pool)
	} else {
		pool = s.children[c.ParentID]
	}
	out := make([]string, 0, len(pool))
	for _, other := range pool {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

// UsedIDs returns the set of ids currently present.
func (s *Store) UsedIDs() map[string]struct{} {
	used := make(map[string]struct{}, len(s.categories))
	for _, c := range s.categories {
		used[c.ID] = struct{}{}
	}
	return used
}

// TotalWeight sums the weights of all categories.
func (s *Store) TotalWeight() float64 {
	total := 0.0
	for _, c := range s.categories {
		total += c.Weight
	}
	return total
}
