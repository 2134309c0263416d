// Package dre builds DRE (income statement) aggregates over ledger entries and
// compares two periods category by category.
package dre

import (
	"errors"
	"sort"
	"time"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/money"
)

// ErrInvalidDateRange indicates a period whose end precedes its start.
var ErrInvalidDateRange = errors.New("dre: period end before start")

// Period selects a labelled date window and the categories to aggregate.
// Category selection is an explicit opt-in per period; an empty selection
// yields an all-zero aggregate.
type Period struct {
	Label       string    `json:"label"`
	DateStart   time.Time `json:"dateStart"`
	DateEnd     time.Time `json:"dateEnd"`
	CategoryIDs []int64   `json:"categoryIds"`
}

// Totals holds the three DRE measures for one scope.
type Totals struct {
	Revenue money.Money `json:"revenue"`
	Expense money.Money `json:"expense"`
	Net     money.Money `json:"net"`
}

func (t *Totals) accumulate(kind categories.Kind, amount money.Money) {
	switch kind {
	case categories.KindRevenue:
		t.Revenue = t.Revenue.Add(amount)
	case categories.KindExpense:
		t.Expense = t.Expense.Add(amount)
	}
	t.Net = t.Revenue.Sub(t.Expense)
}

// CategoryTotals pairs a category with its period totals.
type CategoryTotals struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	Totals
}

// PeriodAggregate is the full DRE for one period.
type PeriodAggregate struct {
	Label      string           `json:"label"`
	DateStart  time.Time        `json:"dateStart"`
	DateEnd    time.Time        `json:"dateEnd"`
	Totals     Totals           `json:"totals"`
	Categories []CategoryTotals `json:"categories"`

	byCategory map[int64]Totals
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Aggregate filters entries into the period window and selected categories and
// totals them per category. Dates compare at day granularity, both ends
// inclusive. Entries whose category is not selected are ignored; selected ids
// with no matching category still aggregate under the raw id.
func Aggregate(entries []ledger.Entry, p Period) (*PeriodAggregate, error) {
	start, end := day(p.DateStart), day(p.DateEnd)
	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	selected := make(map[int64]bool, len(p.CategoryIDs))
	for _, id := range p.CategoryIDs {
		selected[id] = true
	}

	agg := &PeriodAggregate{
		Label:      p.Label,
		DateStart:  start,
		DateEnd:    end,
		byCategory: make(map[int64]Totals),
	}
	for _, e := range entries {
		if !selected[e.CategoryID] {
			continue
		}
		d := day(e.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		t := agg.byCategory[e.CategoryID]
		t.accumulate(e.Kind, e.Amount)
		agg.byCategory[e.CategoryID] = t
		agg.Totals.accumulate(e.Kind, e.Amount)
	}

	// Every selected category appears in the output, zero-filled when silent.
	for _, id := range p.CategoryIDs {
		if _, ok := agg.byCategory[id]; !ok {
			agg.byCategory[id] = Totals{}
		}
	}
	agg.Categories = make([]CategoryTotals, 0, len(agg.byCategory))
	for id, t := range agg.byCategory {
		agg.Categories = append(agg.Categories, CategoryTotals{CategoryID: id, Totals: t})
	}
	sort.Slice(agg.Categories, func(i, j int) bool {
		return agg.Categories[i].CategoryID < agg.Categories[j].CategoryID
	})
	return agg, nil
}

// ComparisonRow holds both periods' totals for one category and their difference.
type ComparisonRow struct {
	CategoryID int64  `json:"categoryId"`
	Name       string `json:"name"`
	A          Totals `json:"a"`
	B          Totals `json:"b"`
	Diff       Totals `json:"diff"`
}

// Compare merges two aggregates over the union of their category ids. A
// category present on one side only gets zero totals on the other. Diff is
// A minus B per measure. Rows come back sorted by category id.
func Compare(a, b *PeriodAggregate) []ComparisonRow {
	lookup := make(map[int64]ComparisonRow)
	for id, t := range a.byCategory {
		lookup[id] = ComparisonRow{CategoryID: id, A: t}
	}
	for id, t := range b.byCategory {
		row := lookup[id]
		row.CategoryID = id
		row.B = t
		lookup[id] = row
	}
	rows := make([]ComparisonRow, 0, len(lookup))
	for _, row := range lookup {
		row.Diff = Totals{
			Revenue: row.A.Revenue.Sub(row.B.Revenue),
			Expense: row.A.Expense.Sub(row.B.Expense),
			Net:     row.A.Net.Sub(row.B.Net),
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CategoryID < rows[j].CategoryID })
	return rows
}
