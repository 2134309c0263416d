package categories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Service applies category business rules on top of the repository.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// List returns the flat category list ordered by name.
func (s *Service) List(ctx context.Context) ([]Category, error) {
	return s.repo.List(ctx)
}

// Tree returns the materialized forest. Orphaned parent references are logged
// and the affected nodes surface as roots.
func (s *Service) Tree(ctx context.Context) ([]*Node, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	roots, orphans := BuildForest(list)
	if len(orphans) > 0 && s.logger != nil {
		s.logger.Warn("categories with dangling parent promoted to root",
			slog.Any("ids", orphans))
	}
	return roots, nil
}

// CreateInput groups fields for category creation.
type CreateInput struct {
	Name     string
	Kind     Kind
	ParentID *int64
}

// Create validates and persists a new category.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, errors.New("categories: name required")
	}
	if !in.Kind.Valid() {
		return nil, ErrInvalidKind
	}
	if in.ParentID != nil {
		if _, err := s.repo.Get(ctx, *in.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, ErrParentNotFound
			}
			return nil, fmt.Errorf("verify parent: %w", err)
		}
	}
	id, err := s.repo.Create(ctx, Category{Name: name, Kind: in.Kind, ParentID: in.ParentID})
	if err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return s.repo.Get(ctx, id)
}

// Delete removes a category unless it still has children or ledger references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	children, err := s.repo.CountChildren(ctx, id)
	if err != nil {
		return fmt.Errorf("count children: %w", err)
	}
	if children > 0 {
		return ErrHasChildren
	}
	refs, err := s.repo.CountLedgerRefs(ctx, id)
	if err != nil {
		return fmt.Errorf("count ledger refs: %w", err)
	}
	if refs > 0 {
		return ErrInUse
	}
	return s.repo.Delete(ctx, id)
}

// FindOrCreate returns the id of the category with the given name and kind,
// creating a root category when absent. The settlement import job uses this to
// resolve its target revenue category.
func (s *Service) FindOrCreate(ctx context.Context, name string, kind Kind) (int64, error) {
	existing, err := s.repo.FindByName(ctx, name, kind)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("find category: %w", err)
	}
	created, err := s.Create(ctx, CreateInput{Name: name, Kind: kind})
	if err != nil {
		return 0, err
	}
	return created.ID, nil
}
