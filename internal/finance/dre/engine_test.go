package dre

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/money"
	_ "github.com/bistro-suite/bistro/testing"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func entry(catID int64, kind categories.Kind, day time.Time, cents int64) ledger.Entry {
	return ledger.Entry{Kind: kind, CategoryID: catID, Date: day, Amount: money.FromCents(cents)}
}

func march() Period {
	return Period{
		Label:       "March",
		DateStart:   date(2026, 3, 1),
		DateEnd:     date(2026, 3, 31),
		CategoryIDs: []int64{1, 2},
	}
}

func TestAggregate(t *testing.T) {
	entries := []ledger.Entry{
		entry(1, categories.KindRevenue, date(2026, 3, 5), 50000),
		entry(1, categories.KindRevenue, date(2026, 3, 20), 25000),
		entry(2, categories.KindExpense, date(2026, 3, 10), 30000),
		entry(3, categories.KindExpense, date(2026, 3, 12), 99900), // not selected
		entry(1, categories.KindRevenue, date(2026, 4, 1), 77700), // out of window
	}

	agg, err := Aggregate(entries, march())
	require.NoError(t, err)

	assert.Equal(t, money.FromCents(75000), agg.Totals.Revenue)
	assert.Equal(t, money.FromCents(30000), agg.Totals.Expense)
	assert.Equal(t, money.FromCents(45000), agg.Totals.Net)

	require.Len(t, agg.Categories, 2)
	assert.Equal(t, int64(1), agg.Categories[0].CategoryID)
	assert.Equal(t, money.FromCents(75000), agg.Categories[0].Revenue)
	assert.Equal(t, money.FromCents(30000), agg.Categories[1].Expense)
}

func TestAggregateInclusiveBounds(t *testing.T) {
	entries := []ledger.Entry{
		entry(1, categories.KindRevenue, date(2026, 3, 1), 100),
		entry(1, categories.KindRevenue, date(2026, 3, 31), 200),
		// Same calendar day as the end bound but with a time component.
		entry(1, categories.KindRevenue, time.Date(2026, 3, 31, 23, 15, 0, 0, time.UTC), 400),
		entry(1, categories.KindRevenue, date(2026, 2, 28), 800),
	}
	agg, err := Aggregate(entries, march())
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(700), agg.Totals.Revenue)
}

func TestAggregateInvalidRange(t *testing.T) {
	p := march()
	p.DateStart, p.DateEnd = p.DateEnd, p.DateStart
	_, err := Aggregate(nil, p)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestAggregateSingleDayPeriod(t *testing.T) {
	p := march()
	p.DateStart = date(2026, 3, 15)
	p.DateEnd = date(2026, 3, 15)
	entries := []ledger.Entry{
		entry(1, categories.KindRevenue, date(2026, 3, 15), 5000),
		entry(1, categories.KindRevenue, date(2026, 3, 16), 5000),
	}
	agg, err := Aggregate(entries, p)
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(5000), agg.Totals.Revenue)
}

func TestAggregateEmptySelection(t *testing.T) {
	p := march()
	p.CategoryIDs = nil
	entries := []ledger.Entry{entry(1, categories.KindRevenue, date(2026, 3, 5), 50000)}
	agg, err := Aggregate(entries, p)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, agg.Totals.Revenue)
	assert.Empty(t, agg.Categories)
}

func TestAggregateUnknownCategoryPassesThrough(t *testing.T) {
	p := march()
	p.CategoryIDs = []int64{404}
	entries := []ledger.Entry{entry(404, categories.KindExpense, date(2026, 3, 5), 1234)}
	agg, err := Aggregate(entries, p)
	require.NoError(t, err)
	require.Len(t, agg.Categories, 1)
	assert.Equal(t, int64(404), agg.Categories[0].CategoryID)
	assert.Equal(t, money.FromCents(1234), agg.Categories[0].Expense)
}

func TestAggregateZeroFillsSilentSelection(t *testing.T) {
	agg, err := Aggregate(nil, march())
	require.NoError(t, err)
	require.Len(t, agg.Categories, 2)
	for _, c := range agg.Categories {
		assert.Equal(t, money.Zero, c.Revenue)
		assert.Equal(t, money.Zero, c.Expense)
	}
}

func TestCompare(t *testing.T) {
	a, err := Aggregate([]ledger.Entry{
		entry(1, categories.KindRevenue, date(2026, 3, 5), 75000),
		entry(2, categories.KindExpense, date(2026, 3, 6), 30000),
	}, march())
	require.NoError(t, err)

	april := Period{
		Label: "April", DateStart: date(2026, 4, 1), DateEnd: date(2026, 4, 30),
		CategoryIDs: []int64{1, 5},
	}
	b, err := Aggregate([]ledger.Entry{
		entry(1, categories.KindRevenue, date(2026, 4, 5), 60000),
		entry(5, categories.KindExpense, date(2026, 4, 6), 10000),
	}, april)
	require.NoError(t, err)

	rows := Compare(a, b)
	require.Len(t, rows, 3)

	// Union sorted by id: 1 on both sides, 2 only in A, 5 only in B.
	assert.Equal(t, int64(1), rows[0].CategoryID)
	assert.Equal(t, money.FromCents(75000), rows[0].A.Revenue)
	assert.Equal(t, money.FromCents(60000), rows[0].B.Revenue)
	assert.Equal(t, money.FromCents(15000), rows[0].Diff.Revenue)

	assert.Equal(t, int64(2), rows[1].CategoryID)
	assert.Equal(t, money.Zero, rows[1].B.Expense)
	assert.Equal(t, money.FromCents(30000), rows[1].Diff.Expense)

	assert.Equal(t, int64(5), rows[2].CategoryID)
	assert.Equal(t, money.Zero, rows[2].A.Expense)
	assert.Equal(t, money.FromCents(-10000), rows[2].Diff.Expense)
	assert.Equal(t, money.FromCents(10000), rows[2].Diff.Net)
}

func TestCompareIsDeterministic(t *testing.T) {
	p := march()
	p.CategoryIDs = []int64{9, 3, 1, 7}
	a, err := Aggregate(nil, p)
	require.NoError(t, err)
	b, err := Aggregate(nil, p)
	require.NoError(t, err)

	for range 5 {
		rows := Compare(a, b)
		require.Len(t, rows, 4)
		assert.Equal(t, []int64{1, 3, 7, 9},
			[]int64{rows[0].CategoryID, rows[1].CategoryID, rows[2].CategoryID, rows[3].CategoryID})
	}
}
