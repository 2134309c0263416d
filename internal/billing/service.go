package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bistro-suite/bistro/internal/money"
	"github.com/bistro-suite/bistro/internal/shared"
)

// FeeRateSource supplies the configured default service-fee rate.
type FeeRateSource interface {
	ServiceFeeRate(ctx context.Context) (float64, error)
}

// Enqueuer schedules the asynchronous ledger import of a settlement.
type Enqueuer interface {
	EnqueueSettlementImport(ctx context.Context, settlementID int64) error
}

// Service settles tables and lists past settlements.
type Service struct {
	repo     Repository
	feeRates FeeRateSource
	enqueuer Enqueuer
	logger   *slog.Logger
}

// NewService constructs a Service. A nil enqueuer disables the ledger import.
func NewService(repo Repository, feeRates FeeRateSource, enqueuer Enqueuer, logger *slog.Logger) *Service {
	return &Service{repo: repo, feeRates: feeRates, enqueuer: enqueuer, logger: logger}
}

// SettleInput collects the inputs of a table settlement.
type SettleInput struct {
	Discount        DiscountSpec
	ChargeFee       bool
	FeeRateOverride *float64
	Payments        []Payment
	WaiterID        *int64
}

func (s *Service) feeSpec(ctx context.Context, in SettleInput) (ServiceFeeSpec, error) {
	spec := ServiceFeeSpec{Enabled: in.ChargeFee}
	if in.FeeRateOverride != nil {
		spec.RatePercent = *in.FeeRateOverride
		return spec, nil
	}
	rate, err := s.feeRates.ServiceFeeRate(ctx)
	if err != nil {
		return ServiceFeeSpec{}, fmt.Errorf("load service fee rate: %w", err)
	}
	spec.RatePercent = rate
	return spec, nil
}

// Preview computes the settlement figures for a table without persisting
// anything. An insufficient payment is not an error here; the returned
// settlement carries the shortfall.
func (s *Service) Preview(ctx context.Context, tableID int64, in SettleInput) (*BillSettlement, error) {
	gross, _, err := s.grossTotal(ctx, tableID)
	if err != nil {
		return nil, err
	}
	fee, err := s.feeSpec(ctx, in)
	if err != nil {
		return nil, err
	}
	bill, err := ComputeSettlement(gross, in.Discount, fee, in.Payments)
	if err != nil && !errors.Is(err, ErrInsufficientPayment) {
		return nil, err
	}
	return bill, nil
}

func (s *Service) grossTotal(ctx context.Context, tableID int64) (money.Money, int, error) {
	if _, err := s.repo.GetTable(ctx, tableID); err != nil {
		return 0, 0, err
	}
	total, n, err := s.repo.DeliveredOrdersTotal(ctx, tableID)
	if err != nil {
		return 0, 0, fmt.Errorf("sum delivered orders: %w", err)
	}
	return total, n, nil
}

// SettleTable computes and persists the settlement for a table, frees the
// table and schedules the ledger import.
func (s *Service) SettleTable(ctx context.Context, tableID int64, in SettleInput) (*Settlement, error) {
	table, err := s.repo.GetTable(ctx, tableID)
	if err != nil {
		return nil, err
	}
	gross, count, err := s.repo.DeliveredOrdersTotal(ctx, tableID)
	if err != nil {
		return nil, fmt.Errorf("sum delivered orders: %w", err)
	}
	if count == 0 {
		return nil, ErrNothingToSettle
	}
	fee, err := s.feeSpec(ctx, in)
	if err != nil {
		return nil, err
	}
	bill, err := ComputeSettlement(gross, in.Discount, fee, in.Payments)
	if err != nil {
		return nil, err
	}

	settlement := Settlement{
		Ref:              uuid.NewString(),
		TableID:          table.ID,
		TableNumber:      table.Number,
		WaiterID:         in.WaiterID,
		GrossTotal:       bill.GrossTotal,
		DiscountType:     bill.Discount.Type,
		DiscountPercent:  bill.Discount.Percent,
		DiscountAmount:   bill.Discount.Amount,
		ServiceFee:       fee.Enabled,
		ServiceFeeRate:   fee.RatePercent,
		ServiceFeeAmount: bill.ServiceFeeAmount,
		FinalTotal:       bill.FinalTotal,
		TotalPaid:        bill.TotalPaid,
		ChangeDue:        bill.ChangeDue,
		Payments:         bill.Payments,
		SettledAt:        time.Now().UTC(),
	}
	id, err := s.repo.Settle(ctx, settlement)
	if err != nil {
		return nil, fmt.Errorf("persist settlement: %w", err)
	}
	settlement.ID = id

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueSettlementImport(ctx, id); err != nil {
			// The nightly sweep picks up settlements that failed to enqueue.
			s.logger.Error("enqueue settlement import",
				slog.Int64("settlement_id", id), slog.Any("error", err))
		}
	}
	return &settlement, nil
}

// Tables lists all tables with their occupancy state.
func (s *Service) Tables(ctx context.Context) ([]Table, error) {
	return s.repo.ListTables(ctx)
}

// SettlementPage bundles a page of settlements with pagination metadata.
type SettlementPage struct {
	Settlements []Settlement      `json:"settlements"`
	Pagination  shared.Pagination `json:"pagination"`
}

// ListSettlements returns past settlements, newest first.
func (s *Service) ListSettlements(ctx context.Context, page, perPage int) (*SettlementPage, error) {
	list, total, err := s.repo.ListSettlements(ctx, page, perPage)
	if err != nil {
		return nil, fmt.Errorf("list settlements: %w", err)
	}
	if list == nil {
		list = []Settlement{}
	}
	return &SettlementPage{
		Settlements: list,
		Pagination:  shared.NewPagination(page, perPage, total),
	}, nil
}
