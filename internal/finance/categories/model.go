package categories

import (
	"errors"
	"time"
)

// Kind classifies a category as revenue or expense.
type Kind string

const (
	KindRevenue Kind = "REVENUE"
	KindExpense Kind = "EXPENSE"
)

// Valid reports whether the kind is one of the known values.
func (k Kind) Valid() bool {
	return k == KindRevenue || k == KindExpense
}

// Category is a node of the classification tree as persisted: parent linkage
// only, no children. The materialized forest lives in Node.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Kind      Kind      `json:"kind"`
	ParentID  *int64    `json:"parentId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Node is a category with its children resolved.
type Node struct {
	Category
	Children []*Node `json:"children,omitempty"`
}

var (
	// ErrNotFound indicates a missing category.
	ErrNotFound = errors.New("categories: not found")
	// ErrHasChildren indicates a delete attempt on a category with subcategories.
	ErrHasChildren = errors.New("categories: category has subcategories")
	// ErrInUse indicates a delete attempt on a category referenced by ledger entries.
	ErrInUse = errors.New("categories: category referenced by ledger entries")
	// ErrInvalidKind indicates an unknown kind value.
	ErrInvalidKind = errors.New("categories: invalid kind")
	// ErrParentNotFound indicates a create request referencing a missing parent.
	ErrParentNotFound = errors.New("categories: parent not found")
)
