package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Definitional errors halt the run; they are never recovered locally.
	ErrInvalidCategoryDefinition = errors.New("invalid category definition")
	ErrDuplicateCategoryID       = errors.New("duplicate category id")
	ErrCyclicHierarchy           = errors.New("cyclic category hierarchy")
	ErrOrphanCategory            = errors.New("orphan category")

	// Input errors
	ErrCorruptMatrixInput = errors.New("corrupt matrix input")
	ErrInvalidSignal      = errors.New("invalid signal table")
	ErrInvalidBoundaries  = errors.New("invalid grade boundaries")
)

// CategoryError locates a definitional problem on a single category.
type CategoryError struct {
	Kind       error  // one of the definitional sentinels
	CategoryID string // offending id
	Detail     string
}

func (e *CategoryError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v: %q", e.Kind, e.CategoryID)
	}
	return fmt.Sprintf("%v: %q: %s", e.Kind, e.CategoryID, e.Detail)
}

func (e *CategoryError) Unwrap() error {
	return e.Kind
}

// CorruptInputError reports a non-finite or negative value together with the
// matrix cell it was found in. Row and Col are -1 when the value is an
// aggregate (for example a triangle total) rather than a single cell.
type CorruptInputError struct {
	Row   int
	Col   int
	RowID string
	ColID string
	Field string
	Value float64
}

func (e *CorruptInputError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("%v: %s=%v", ErrCorruptMatrixInput, e.Field, e.Value)
	}
	return fmt.Sprintf("%v: cell (%d,%d) [%s,%s] %s=%v",
		ErrCorruptMatrixInput, e.Row, e.Col, e.RowID, e.ColID, e.Field, e.Value)
}

func (e *CorruptInputError) Unwrap() error {
	return ErrCorruptMatrixInput
}

// Error constructors with context
func NewInvalidCategoryError(id, reason string) error {
	return &CategoryError{Kind: ErrInvalidCategoryDefinition, CategoryID: id, Detail: reason}
}

func NewDuplicateCategoryError(id string) error {
	return &CategoryError{Kind: ErrDuplicateCategoryID, CategoryID: id}
}

func NewOrphanCategoryError(id, parentID string) error {
	return &CategoryError{Kind: ErrOrphanCategory, CategoryID: id, Detail: fmt.Sprintf("parent %q does not exist", parentID)}
}

func NewCyclicHierarchyError(id string) error {
	return &CategoryError{Kind: ErrCyclicHierarchy, CategoryID: id, Detail: "parent chain revisits this category"}
}

func NewSignalError(keyword, reason string) error {
	return fmt.Errorf("%w: keyword %q: %s", ErrInvalidSignal, keyword, reason)
}

func NewBoundaryError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidBoundaries, reason)
}

// Error checking helpers
func IsDefinitionError(err error) bool {
	return errors.Is(err, ErrInvalidCategoryDefinition) ||
		errors.Is(err, ErrDuplicateCategoryID) ||
		errors.Is(err, ErrCyclicHierarchy) ||
		errors.Is(err, ErrOrphanCategory)
}

func IsCorruptInputError(err error) bool {
	return errors.Is(err, ErrCorruptMatrixInput) || errors.Is(err, ErrInvalidSignal)
}
