// Package settings stores suite-wide configuration values.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const keyServiceFeeRate = "service_fee_rate"

// DefaultServiceFeeRate applies when no rate has been stored yet.
const DefaultServiceFeeRate = 10.0

// ErrInvalidRate indicates a service-fee rate outside [0, 100].
var ErrInvalidRate = errors.New("settings: service fee rate must be between 0 and 100")

var errMissing = errors.New("settings: key not set")

// Repository persists settings as key/value pairs.
type Repository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx, `SELECT value FROM settings WHERE key=$1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", errMissing
	}
	return value, err
}

func (r *repository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO settings (key, value) VALUES ($1,$2)
		 ON CONFLICT (key) DO UPDATE SET value=EXCLUDED.value, updated_at=now()`,
		key, value)
	return err
}

// Service exposes typed settings on top of the repository.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// ServiceFeeRate returns the configured rate, falling back to the default
// when nothing has been stored.
func (s *Service) ServiceFeeRate(ctx context.Context) (float64, error) {
	raw, err := s.repo.Get(ctx, keyServiceFeeRate)
	if errors.Is(err, errMissing) {
		return DefaultServiceFeeRate, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load service fee rate: %w", err)
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate < 0 || rate > 100 {
		return DefaultServiceFeeRate, nil
	}
	return rate, nil
}

// SetServiceFeeRate validates and stores the rate.
func (s *Service) SetServiceFeeRate(ctx context.Context, rate float64) error {
	if rate < 0 || rate > 100 {
		return ErrInvalidRate
	}
	return s.repo.Set(ctx, keyServiceFeeRate, strconv.FormatFloat(rate, 'f', -1, 64))
}
