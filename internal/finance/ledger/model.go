package ledger

import (
	"errors"
	"time"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/money"
)

// Entry is a dated financial transaction classified by a category.
type Entry struct {
	ID           int64           `json:"id"`
	Kind         categories.Kind `json:"kind"`
	Counterparty string          `json:"counterparty"`
	Description  string          `json:"description"`
	CategoryID   int64           `json:"categoryId"`
	EmployeeName string          `json:"employeeName,omitempty"`
	Date         time.Time       `json:"date"`
	Amount       money.Money     `json:"amount"`
	Note         string          `json:"note,omitempty"`
	ImportSource *string         `json:"importSource,omitempty"`
	ImportRef    *string         `json:"importRef,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Summary totals a date window across all categories.
type Summary struct {
	TotalRevenue money.Money `json:"totalRevenue"`
	TotalExpense money.Money `json:"totalExpense"`
	Balance      money.Money `json:"balance"`
}

// ListRequest captures the listing filters of the ledger page.
type ListRequest struct {
	Kind         categories.Kind
	DateStart    *time.Time
	DateEnd      *time.Time
	Counterparty string
	CategoryID   *int64
	Search       string
	Page         int
	PerPage      int
}

var (
	// ErrNotFound indicates a missing entry.
	ErrNotFound = errors.New("ledger: entry not found")
	// ErrDuplicateImport indicates an entry with the same import reference
	// already exists; the import is a no-op.
	ErrDuplicateImport = errors.New("ledger: import reference already recorded")
	// ErrDateRequired indicates a missing entry date.
	ErrDateRequired = errors.New("ledger: date required")
	// ErrAmountRequired indicates a zero or negative amount.
	ErrAmountRequired = errors.New("ledger: amount must be positive")
	// ErrCategoryRequired indicates a missing category.
	ErrCategoryRequired = errors.New("ledger: category required")
)
