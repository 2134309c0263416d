package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bistro-suite/bistro/internal/finance/categories"
	"github.com/bistro-suite/bistro/internal/money"
	"github.com/bistro-suite/bistro/internal/shared"
)

// Invalidator is notified after every ledger write so downstream caches can
// drop stale aggregates. The DRE cache implements it.
type Invalidator interface {
	Bump(ctx context.Context) error
}

// Service applies ledger business rules on top of the repository.
type Service struct {
	repo       Repository
	logger     *slog.Logger
	invalidate Invalidator
}

// NewService constructs a Service. A nil invalidator is allowed.
func NewService(repo Repository, logger *slog.Logger, invalidate Invalidator) *Service {
	return &Service{repo: repo, logger: logger, invalidate: invalidate}
}

func (s *Service) bumpCaches(ctx context.Context) {
	if s.invalidate == nil {
		return
	}
	if err := s.invalidate.Bump(ctx); err != nil {
		s.logger.Warn("cache invalidation failed", slog.Any("error", err))
	}
}

// ListResult bundles a page of entries with pagination metadata.
type ListResult struct {
	Entries    []Entry           `json:"entries"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns a filtered page of entries, newest first.
func (s *Service) List(ctx context.Context, req ListRequest) (*ListResult, error) {
	entries, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return &ListResult{
		Entries:    entries,
		Pagination: shared.NewPagination(req.Page, req.PerPage, total),
	}, nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, id int64) (*Entry, error) {
	return s.repo.Get(ctx, id)
}

// EntryInput groups fields for creating or updating an entry.
type EntryInput struct {
	Kind         categories.Kind
	Counterparty string
	Description  string
	CategoryID   int64
	EmployeeName string
	Date         time.Time
	Amount       money.Money
	Note         string
}

func (in *EntryInput) validate() error {
	if !in.Kind.Valid() {
		return categories.ErrInvalidKind
	}
	if in.Date.IsZero() {
		return ErrDateRequired
	}
	if in.Amount <= 0 {
		return ErrAmountRequired
	}
	if in.CategoryID <= 0 {
		return ErrCategoryRequired
	}
	in.Counterparty = strings.TrimSpace(in.Counterparty)
	in.Description = strings.TrimSpace(in.Description)
	in.EmployeeName = strings.TrimSpace(in.EmployeeName)
	return nil
}

// Create validates and persists a new entry.
func (s *Service) Create(ctx context.Context, in EntryInput) (*Entry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	id, err := s.repo.Create(ctx, Entry{
		Kind:         in.Kind,
		Counterparty: in.Counterparty,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		EmployeeName: in.EmployeeName,
		Date:         in.Date,
		Amount:       in.Amount,
		Note:         in.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("create entry: %w", err)
	}
	s.bumpCaches(ctx)
	return s.repo.Get(ctx, id)
}

// Update validates and rewrites an existing entry. Imported entries keep their
// import reference; only the editable fields change.
func (s *Service) Update(ctx context.Context, id int64, in EntryInput) (*Entry, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, Entry{
		ID:           id,
		Kind:         in.Kind,
		Counterparty: in.Counterparty,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		EmployeeName: in.EmployeeName,
		Date:         in.Date,
		Amount:       in.Amount,
		Note:         in.Note,
	})
	if err != nil {
		return nil, fmt.Errorf("update entry: %w", err)
	}
	s.bumpCaches(ctx)
	return s.repo.Get(ctx, id)
}

// Delete removes an entry.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.bumpCaches(ctx)
	return nil
}

// Summary totals revenue and expense over a day-inclusive window: entries
// timestamped anywhere on the end date count.
func (s *Service) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	return s.repo.Summary(ctx, from, to)
}

// ListBetween returns all entries in a day-inclusive window, oldest first.
// The comparison engine feeds on this.
func (s *Service) ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error) {
	return s.repo.ListBetween(ctx, from, to)
}

// ImportInput describes an entry produced by an automated import.
type ImportInput struct {
	EntryInput
	Source string
	Ref    string
}

// Import persists an imported entry. A repeated (source, ref) pair returns
// ErrDuplicateImport without writing anything.
func (s *Service) Import(ctx context.Context, in ImportInput) (int64, error) {
	if err := in.EntryInput.validate(); err != nil {
		return 0, err
	}
	if in.Source == "" || in.Ref == "" {
		return 0, fmt.Errorf("ledger: import source and ref required")
	}
	id, err := s.repo.Create(ctx, Entry{
		Kind:         in.Kind,
		Counterparty: in.Counterparty,
		Description:  in.Description,
		CategoryID:   in.CategoryID,
		EmployeeName: in.EmployeeName,
		Date:         in.Date,
		Amount:       in.Amount,
		Note:         in.Note,
		ImportSource: &in.Source,
		ImportRef:    &in.Ref,
	})
	if err != nil {
		return 0, err
	}
	s.bumpCaches(ctx)
	return id, nil
}
