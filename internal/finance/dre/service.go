package dre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/finance/ledger"
)

// unknownCategoryLabel names rows whose category id no longer resolves.
const unknownCategoryLabel = "(unrecognized)"

// ErrNoPeriods indicates a comparison request without periods.
var ErrNoPeriods = errors.New("dre: at least one period required")

// EntrySource supplies ledger entries for a date window. The window is
// inclusive at day granularity: an entry timestamped anywhere on the end
// date, settlement evenings included, must be returned.
type EntrySource interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]ledger.Entry, error)
}

// CategorySource supplies the category forest for row labelling.
type CategorySource interface {
	Tree(ctx context.Context) ([]*categories.Node, error)
}

// Service computes cached, labelled DRE comparisons.
type Service struct {
	entries    EntrySource
	categories CategorySource
	cache      *Cache
	logger     *slog.Logger
}

// NewService constructs a Service. A nil cache disables caching.
func NewService(entries EntrySource, cats CategorySource, cache *Cache, logger *slog.Logger) *Service {
	return &Service{entries: entries, categories: cats, cache: cache, logger: logger}
}

// CompareResult is the full response of a comparison request.
type CompareResult struct {
	Periods    []PeriodAggregate `json:"periods"`
	Comparison []ComparisonRow   `json:"comparison,omitempty"`
}

// Compare aggregates up to four periods concurrently and, when at least two
// were requested, diffs the first two. Results are cached until the next
// ledger write.
func (s *Service) Compare(ctx context.Context, periods []Period) (*CompareResult, error) {
	if len(periods) == 0 {
		return nil, ErrNoPeriods
	}
	for _, p := range periods {
		if day(p.DateEnd).Before(day(p.DateStart)) {
			return nil, ErrInvalidDateRange
		}
	}

	parts := []string{"dre", "compare"}
	for _, p := range periods {
		parts = append(parts, periodKeyPart(p))
	}
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		s.logger.Warn("dre cache unavailable", slog.Any("error", err))
		return s.compute(ctx, periods)
	}

	var result CompareResult
	err = s.cache.FetchJSON(ctx, key, &result, func(ctx context.Context) (any, error) {
		return s.compute(ctx, periods)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (s *Service) compute(ctx context.Context, periods []Period) (*CompareResult, error) {
	aggs := make([]*PeriodAggregate, len(periods))

	g, gctx := errgroup.WithContext(ctx)
	for i, p := range periods {
		g.Go(func() error {
			entries, err := s.entries.ListBetween(gctx, p.DateStart, p.DateEnd)
			if err != nil {
				return fmt.Errorf("load entries for %q: %w", p.Label, err)
			}
			agg, err := Aggregate(entries, p)
			if err != nil {
				return err
			}
			aggs[i] = agg
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names, err := s.categoryNames(ctx)
	if err != nil {
		return nil, err
	}
	label := func(id int64) string {
		if name, ok := names[id]; ok {
			return name
		}
		return unknownCategoryLabel
	}

	result := &CompareResult{Periods: make([]PeriodAggregate, len(aggs))}
	for i, agg := range aggs {
		for j := range agg.Categories {
			agg.Categories[j].Name = label(agg.Categories[j].CategoryID)
		}
		result.Periods[i] = *agg
	}
	if len(aggs) >= 2 {
		rows := Compare(aggs[0], aggs[1])
		for i := range rows {
			rows[i].Name = label(rows[i].CategoryID)
		}
		result.Comparison = rows
	}
	return result, nil
}

func (s *Service) categoryNames(ctx context.Context) (map[int64]string, error) {
	forest, err := s.categories.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category tree: %w", err)
	}
	return categories.NameIndex(forest), nil
}
