package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bistro-suite/bistro/internal/money"
	"github.com/bistro-suite/bistro/internal/platform/db"
)

// Repository persists tables, orders and settlements.
type Repository interface {
	GetTable(ctx context.Context, id int64) (*Table, error)
	ListTables(ctx context.Context) ([]Table, error)
	DeliveredOrdersTotal(ctx context.Context, tableID int64) (money.Money, int, error)
	Settle(ctx context.Context, s Settlement) (int64, error)
	GetSettlement(ctx context.Context, id int64) (*Settlement, error)
	ListSettlements(ctx context.Context, page, perPage int) ([]Settlement, int, error)
	ListUnimported(ctx context.Context, limit int) ([]Settlement, error)
	MarkImported(ctx context.Context, id int64, at time.Time) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) GetTable(ctx context.Context, id int64) (*Table, error) {
	var t Table
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, status FROM restaurant_tables WHERE id=$1`, id).
		Scan(&t.ID, &t.Number, &t.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *repository) ListTables(ctx context.Context) ([]Table, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, number, status FROM restaurant_tables ORDER BY number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []Table
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.Number, &t.Status); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *repository) DeliveredOrdersTotal(ctx context.Context, tableID int64) (money.Money, int, error) {
	var total int64
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cents), 0), COUNT(*)
		 FROM orders WHERE table_id=$1 AND status=$2`,
		tableID, OrderDelivered).Scan(&total, &count)
	if err != nil {
		return 0, 0, err
	}
	return money.FromCents(total), count, nil
}

// Settle writes the settlement, closes the table's delivered orders and frees
// the table in one transaction.
func (r *repository) Settle(ctx context.Context, s Settlement) (int64, error) {
	payments, err := json.Marshal(s.Payments)
	if err != nil {
		return 0, err
	}
	var id int64
	err = db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO settlements
				(ref, table_id, table_number, waiter_id, gross_cents, discount_type,
				 discount_percent, discount_cents, service_fee, service_fee_rate,
				 service_fee_cents, final_cents, paid_cents, change_cents, payments, settled_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			 RETURNING id`,
			s.Ref, s.TableID, s.TableNumber, s.WaiterID, s.GrossTotal, s.DiscountType,
			s.DiscountPercent, s.DiscountAmount, s.ServiceFee, s.ServiceFeeRate,
			s.ServiceFeeAmount, s.FinalTotal, s.TotalPaid, s.ChangeDue, payments, s.SettledAt).
			Scan(&id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE orders SET status=$2 WHERE table_id=$1 AND status=$3`,
			s.TableID, OrderSettled, OrderDelivered); err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`UPDATE restaurant_tables SET status=$2 WHERE id=$1`,
			s.TableID, TableAvailable)
		return err
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

const settlementColumns = `id, ref, table_id, table_number, waiter_id, gross_cents, discount_type,
	discount_percent, discount_cents, service_fee, service_fee_rate, service_fee_cents,
	final_cents, paid_cents, change_cents, payments, settled_at, imported_at`

func scanSettlement(row pgx.Row) (*Settlement, error) {
	var s Settlement
	var payments []byte
	err := row.Scan(&s.ID, &s.Ref, &s.TableID, &s.TableNumber, &s.WaiterID, &s.GrossTotal,
		&s.DiscountType, &s.DiscountPercent, &s.DiscountAmount, &s.ServiceFee,
		&s.ServiceFeeRate, &s.ServiceFeeAmount, &s.FinalTotal, &s.TotalPaid, &s.ChangeDue,
		&payments, &s.SettledAt, &s.ImportedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSettlementNotFound
		}
		return nil, err
	}
	if len(payments) > 0 {
		if err := json.Unmarshal(payments, &s.Payments); err != nil {
			return nil, err
		}
	}
	return &s, nil
}

func collectSettlements(rows pgx.Rows) ([]Settlement, error) {
	defer rows.Close()
	var list []Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *s)
	}
	return list, rows.Err()
}

func (r *repository) GetSettlement(ctx context.Context, id int64) (*Settlement, error) {
	return scanSettlement(r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id=$1`, id))
}

func (r *repository) ListSettlements(ctx context.Context, page, perPage int) ([]Settlement, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM settlements`).Scan(&total); err != nil {
		return nil, 0, err
	}
	if perPage <= 0 {
		perPage = 50
	}
	if page <= 0 {
		page = 1
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 ORDER BY settled_at DESC, id DESC LIMIT $1 OFFSET $2`,
		perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	list, err := collectSettlements(rows)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *repository) ListUnimported(ctx context.Context, limit int) ([]Settlement, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE imported_at IS NULL ORDER BY settled_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	return collectSettlements(rows)
}

func (r *repository) MarkImported(ctx context.Context, id int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE settlements SET imported_at=$2 WHERE id=$1 AND imported_at IS NULL`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrSettlementNotFound
	}
	return nil
}
