package dre

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
	"github.com/bistro-suite/bistro/internal/money"
	_ "github.com/bistro-suite/bistro/testing"
)

type stubEntries struct {
	entries []ledger.Entry
	calls   int
}

// ListBetween mirrors the ledger repository contract: the window is inclusive
// at day granularity, so anything timestamped on the end date is returned.
func (s *stubEntries) ListBetween(_ context.Context, from, to time.Time) ([]ledger.Entry, error) {
	s.calls++
	start := date(from.Year(), from.Month(), from.Day())
	end := date(to.Year(), to.Month(), to.Day()).AddDate(0, 0, 1)
	var out []ledger.Entry
	for _, e := range s.entries {
		if e.Date.Before(start) || !e.Date.Before(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

type stubCategories struct {
	forest []*categories.Node
}

func (s *stubCategories) Tree(context.Context) ([]*categories.Node, error) {
	return s.forest, nil
}

func fixtureForest() []*categories.Node {
	roots, _ := categories.BuildForest([]categories.Category{
		{ID: 1, Name: "Mesas Finalizadas", Kind: categories.KindRevenue},
		{ID: 2, Name: "Insumos", Kind: categories.KindExpense},
	})
	return roots
}

func fixtureEntries() []ledger.Entry {
	return []ledger.Entry{
		{Kind: categories.KindRevenue, CategoryID: 1, Date: date(2026, 3, 5), Amount: money.FromCents(75000)},
		{Kind: categories.KindExpense, CategoryID: 2, Date: date(2026, 3, 10), Amount: money.FromCents(30000)},
		{Kind: categories.KindRevenue, CategoryID: 1, Date: date(2026, 4, 5), Amount: money.FromCents(60000)},
	}
}

func comparePeriods() []Period {
	return []Period{
		{Label: "March", DateStart: date(2026, 3, 1), DateEnd: date(2026, 3, 31), CategoryIDs: []int64{1, 2}},
		{Label: "April", DateStart: date(2026, 4, 1), DateEnd: date(2026, 4, 30), CategoryIDs: []int64{1, 2}},
	}
}

func newTestService(t *testing.T) (*Service, *stubEntries, *Cache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	entries := &stubEntries{entries: fixtureEntries()}
	svc := NewService(entries, &stubCategories{forest: fixtureForest()}, cache, slog.Default())
	return svc, entries, cache
}

func TestServiceCompare(t *testing.T) {
	svc, _, _ := newTestService(t)

	result, err := svc.Compare(context.Background(), comparePeriods())
	require.NoError(t, err)
	require.Len(t, result.Periods, 2)
	require.Len(t, result.Comparison, 2)

	assert.Equal(t, "March", result.Periods[0].Label)
	assert.Equal(t, money.FromCents(75000), result.Periods[0].Totals.Revenue)
	assert.Equal(t, money.FromCents(60000), result.Periods[1].Totals.Revenue)

	assert.Equal(t, "Mesas Finalizadas", result.Comparison[0].Name)
	assert.Equal(t, money.FromCents(15000), result.Comparison[0].Diff.Revenue)
	assert.Equal(t, "Insumos", result.Comparison[1].Name)
	assert.Equal(t, money.FromCents(30000), result.Comparison[1].Diff.Expense)
}

func TestServiceCompareSinglePeriod(t *testing.T) {
	svc, _, _ := newTestService(t)
	result, err := svc.Compare(context.Background(), comparePeriods()[:1])
	require.NoError(t, err)
	require.Len(t, result.Periods, 1)
	assert.Empty(t, result.Comparison)
}

func TestServiceCompareNoPeriods(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Compare(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoPeriods)
}

func TestServiceCompareInvalidRange(t *testing.T) {
	svc, _, _ := newTestService(t)
	periods := comparePeriods()
	periods[0].DateStart, periods[0].DateEnd = periods[0].DateEnd, periods[0].DateStart
	_, err := svc.Compare(context.Background(), periods)
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestServiceCompareUnknownCategoryLabel(t *testing.T) {
	svc, _, _ := newTestService(t)
	periods := comparePeriods()
	periods[0].CategoryIDs = []int64{1, 999}
	periods[1].CategoryIDs = []int64{1, 999}

	result, err := svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	require.Len(t, result.Comparison, 2)
	assert.Equal(t, "(unrecognized)", result.Comparison[1].Name)
}

func TestServiceCompareCountsEndOfDayEntries(t *testing.T) {
	svc, entries, _ := newTestService(t)
	// A table settled on the evening of the period's last day.
	entries.entries = append(entries.entries, ledger.Entry{
		Kind:       categories.KindRevenue,
		CategoryID: 1,
		Date:       time.Date(2026, 3, 31, 20, 0, 0, 0, time.UTC),
		Amount:     money.FromCents(19800),
	})

	result, err := svc.Compare(context.Background(), comparePeriods())
	require.NoError(t, err)
	assert.Equal(t, money.FromCents(94800), result.Periods[0].Totals.Revenue)
}

func TestServiceCompareCacheKeyedByLabel(t *testing.T) {
	svc, _, _ := newTestService(t)
	periods := comparePeriods()

	first, err := svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	assert.Equal(t, "March", first.Periods[0].Label)

	periods[0].Label = "Renamed"
	second, err := svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", second.Periods[0].Label)
}

func TestServiceCompareCaches(t *testing.T) {
	svc, entries, cache := newTestService(t)
	periods := comparePeriods()

	first, err := svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	callsAfterFirst := entries.calls
	require.Positive(t, callsAfterFirst)

	second, err := svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	assert.Equal(t, callsAfterFirst, entries.calls, "second call should hit the cache")
	assert.Equal(t, first.Comparison, second.Comparison)

	// A version bump forces recomputation.
	require.NoError(t, cache.Bump(context.Background()))
	_, err = svc.Compare(context.Background(), periods)
	require.NoError(t, err)
	assert.Greater(t, entries.calls, callsAfterFirst)
}

func TestServiceCompareWithoutCache(t *testing.T) {
	entries := &stubEntries{entries: fixtureEntries()}
	svc := NewService(entries, &stubCategories{forest: fixtureForest()}, nil, slog.Default())

	result, err := svc.Compare(context.Background(), comparePeriods())
	require.NoError(t, err)
	require.Len(t, result.Comparison, 2)
}
