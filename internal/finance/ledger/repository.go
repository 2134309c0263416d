package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistro-suite/bistro/internal/money"
)

// Repository persists ledger entries.
type Repository interface {
	List(ctx context.Context, req ListRequest) ([]Entry, int, error)
	Get(ctx context.Context, id int64) (*Entry, error)
	Create(ctx context.Context, e Entry) (int64, error)
	Update(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id int64) error
	Summary(ctx context.Context, from, to time.Time) (*Summary, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const entryColumns = `id, kind, counterparty, description, category_id, employee_name,
	entry_date, amount_cents, note, import_source, import_ref, created_at, updated_at`

func scanEntry(row pgx.Row) (*Entry, error) {
	var e Entry
	err := row.Scan(&e.ID, &e.Kind, &e.Counterparty, &e.Description, &e.CategoryID,
		&e.EmployeeName, &e.Date, &e.Amount, &e.Note, &e.ImportSource, &e.ImportRef,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &e, nil
}

func collectEntries(rows pgx.Rows) ([]Entry, error) {
	defer rows.Close()
	var list []Entry
	for rows.Next() {
		var e Entry
		err := rows.Scan(&e.ID, &e.Kind, &e.Counterparty, &e.Description, &e.CategoryID,
			&e.EmployeeName, &e.Date, &e.Amount, &e.Note, &e.ImportSource, &e.ImportRef,
			&e.CreatedAt, &e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Date windows are inclusive at day granularity: entry_date carries the time
// a settlement closed, so the upper bound must be the midnight after the end
// date, compared exclusively.
func dayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nextDay(t time.Time) time.Time {
	return dayStart(t).AddDate(0, 0, 1)
}

func listFilters(req ListRequest) (string, []any) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if req.Kind != "" {
		add("kind = $%d", req.Kind)
	}
	if req.DateStart != nil {
		add("entry_date >= $%d", dayStart(*req.DateStart))
	}
	if req.DateEnd != nil {
		add("entry_date < $%d", nextDay(*req.DateEnd))
	}
	if req.Counterparty != "" {
		add("counterparty ILIKE $%d", "%"+req.Counterparty+"%")
	}
	if req.CategoryID != nil {
		add("category_id = $%d", *req.CategoryID)
	}
	if req.Search != "" {
		add("(description ILIKE $%[1]d OR note ILIKE $%[1]d)", "%"+req.Search+"%")
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *repository) List(ctx context.Context, req ListRequest) ([]Entry, int, error) {
	where, args := listFilters(req)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM ledger_entries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if req.PerPage <= 0 {
		req.PerPage = 50
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	offset := (req.Page - 1) * req.PerPage
	query := `SELECT ` + entryColumns + ` FROM ledger_entries` + where +
		fmt.Sprintf(` ORDER BY entry_date DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	rows, err := r.pool.Query(ctx, query, append(args, req.PerPage, offset)...)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) Get(ctx context.Context, id int64) (*Entry, error) {
	return scanEntry(r.pool.QueryRow(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id=$1`, id))
}

func (r *repository) Create(ctx context.Context, e Entry) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO ledger_entries
			(kind, counterparty, description, category_id, employee_name, entry_date,
			 amount_cents, note, import_source, import_ref)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10) RETURNING id`,
		e.Kind, e.Counterparty, e.Description, e.CategoryID, e.EmployeeName, e.Date,
		e.Amount, e.Note, e.ImportSource, e.ImportRef).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateImport
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, e Entry) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE ledger_entries
		 SET kind=$2, counterparty=$3, description=$4, category_id=$5, employee_name=$6,
		     entry_date=$7, amount_cents=$8, note=$9, updated_at=now()
		 WHERE id=$1`,
		e.ID, e.Kind, e.Counterparty, e.Description, e.CategoryID, e.EmployeeName,
		e.Date, e.Amount, e.Note)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM ledger_entries WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) Summary(ctx context.Context, from, to time.Time) (*Summary, error) {
	var revenue, expense int64
	err := r.pool.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(amount_cents) FILTER (WHERE kind='REVENUE'), 0),
			COALESCE(SUM(amount_cents) FILTER (WHERE kind='EXPENSE'), 0)
		 FROM ledger_entries WHERE entry_date >= $1 AND entry_date < $2`,
		dayStart(from), nextDay(to)).Scan(&revenue, &expense)
	if err != nil {
		return nil, err
	}
	rev, exp := money.FromCents(revenue), money.FromCents(expense)
	return &Summary{TotalRevenue: rev, TotalExpense: exp, Balance: rev.Sub(exp)}, nil
}

func (r *repository) ListBetween(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries
		 WHERE entry_date >= $1 AND entry_date < $2 ORDER BY entry_date, id`,
		dayStart(from), nextDay(to))
	if err != nil {
		return nil, err
	}
	return collectEntries(rows)
}
