package billing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistro-suite/bistro/internal/money"
	_ "github.com/bistro-suite/bistro/testing"
)

type mockBillingRepo struct {
	tables      map[int64]Table
	orderTotals map[int64]money.Money
	orderCounts map[int64]int
	settlements map[int64]Settlement
	nextID      int64
}

func newMockBillingRepo() *mockBillingRepo {
	return &mockBillingRepo{
		tables:      map[int64]Table{},
		orderTotals: map[int64]money.Money{},
		orderCounts: map[int64]int{},
		settlements: map[int64]Settlement{},
		nextID:      1,
	}
}

func (m *mockBillingRepo) GetTable(_ context.Context, id int64) (*Table, error) {
	t, ok := m.tables[id]
	if !ok {
		return nil, ErrTableNotFound
	}
	return &t, nil
}

func (m *mockBillingRepo) ListTables(context.Context) ([]Table, error) {
	var list []Table
	for _, t := range m.tables {
		list = append(list, t)
	}
	return list, nil
}

func (m *mockBillingRepo) DeliveredOrdersTotal(_ context.Context, tableID int64) (money.Money, int, error) {
	return m.orderTotals[tableID], m.orderCounts[tableID], nil
}

func (m *mockBillingRepo) Settle(_ context.Context, s Settlement) (int64, error) {
	s.ID = m.nextID
	m.nextID++
	m.settlements[s.ID] = s
	t := m.tables[s.TableID]
	t.Status = TableAvailable
	m.tables[s.TableID] = t
	m.orderTotals[s.TableID] = 0
	m.orderCounts[s.TableID] = 0
	return s.ID, nil
}

func (m *mockBillingRepo) GetSettlement(_ context.Context, id int64) (*Settlement, error) {
	s, ok := m.settlements[id]
	if !ok {
		return nil, ErrSettlementNotFound
	}
	return &s, nil
}

func (m *mockBillingRepo) ListSettlements(context.Context, int, int) ([]Settlement, int, error) {
	var list []Settlement
	for _, s := range m.settlements {
		list = append(list, s)
	}
	return list, len(list), nil
}

func (m *mockBillingRepo) ListUnimported(context.Context, int) ([]Settlement, error) {
	var list []Settlement
	for _, s := range m.settlements {
		if s.ImportedAt == nil {
			list = append(list, s)
		}
	}
	return list, nil
}

func (m *mockBillingRepo) MarkImported(_ context.Context, id int64, at time.Time) error {
	s, ok := m.settlements[id]
	if !ok || s.ImportedAt != nil {
		return ErrSettlementNotFound
	}
	s.ImportedAt = &at
	m.settlements[id] = s
	return nil
}

type stubFeeRate struct {
	rate float64
}

func (s stubFeeRate) ServiceFeeRate(context.Context) (float64, error) { return s.rate, nil }

type recordingEnqueuer struct {
	ids []int64
}

func (r *recordingEnqueuer) EnqueueSettlementImport(_ context.Context, id int64) error {
	r.ids = append(r.ids, id)
	return nil
}

func newBillingService() (*Service, *mockBillingRepo, *recordingEnqueuer) {
	repo := newMockBillingRepo()
	repo.tables[7] = Table{ID: 7, Number: 7, Status: TableOccupied}
	repo.orderTotals[7] = cents(20000)
	repo.orderCounts[7] = 3
	enq := &recordingEnqueuer{}
	return NewService(repo, stubFeeRate{rate: 10}, enq, slog.Default()), repo, enq
}

func TestSettleTable(t *testing.T) {
	svc, repo, enq := newBillingService()

	settlement, err := svc.SettleTable(context.Background(), 7, SettleInput{
		Discount:  DiscountSpec{Type: DiscountPercentage, Percent: 10},
		ChargeFee: true,
		Payments:  []Payment{{Method: "cash", Amount: cents(20000)}},
	})
	require.NoError(t, err)

	assert.Equal(t, cents(19800), settlement.FinalTotal)
	assert.Equal(t, cents(200), settlement.ChangeDue)
	assert.NotEmpty(t, settlement.Ref)
	assert.Equal(t, float64(10), settlement.ServiceFeeRate)

	// The table is freed and the import is scheduled.
	assert.Equal(t, TableAvailable, repo.tables[7].Status)
	assert.Equal(t, []int64{settlement.ID}, enq.ids)
}

func TestSettleTableFeeRateOverride(t *testing.T) {
	svc, _, _ := newBillingService()
	override := 12.5

	settlement, err := svc.SettleTable(context.Background(), 7, SettleInput{
		Discount:        DiscountSpec{Type: DiscountNone},
		ChargeFee:       true,
		FeeRateOverride: &override,
		Payments:        []Payment{{Method: "card", Amount: cents(22500)}},
	})
	require.NoError(t, err)
	assert.Equal(t, cents(2500), settlement.ServiceFeeAmount)
	assert.Equal(t, override, settlement.ServiceFeeRate)
}

func TestSettleTableInsufficientPayment(t *testing.T) {
	svc, repo, enq := newBillingService()

	_, err := svc.SettleTable(context.Background(), 7, SettleInput{
		Discount:  DiscountSpec{Type: DiscountNone},
		ChargeFee: true,
		Payments:  []Payment{{Method: "cash", Amount: cents(10000)}},
	})
	require.ErrorIs(t, err, ErrInsufficientPayment)

	// Nothing persisted, table still occupied, no import enqueued.
	assert.Empty(t, repo.settlements)
	assert.Equal(t, TableOccupied, repo.tables[7].Status)
	assert.Empty(t, enq.ids)
}

func TestSettleTableNotFound(t *testing.T) {
	svc, _, _ := newBillingService()
	_, err := svc.SettleTable(context.Background(), 404, SettleInput{
		Discount: DiscountSpec{Type: DiscountNone},
	})
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestSettleTableNothingToSettle(t *testing.T) {
	svc, repo, _ := newBillingService()
	repo.tables[8] = Table{ID: 8, Number: 8, Status: TableOccupied}

	_, err := svc.SettleTable(context.Background(), 8, SettleInput{
		Discount: DiscountSpec{Type: DiscountNone},
	})
	assert.ErrorIs(t, err, ErrNothingToSettle)
}

func TestPreviewAllowsShortPayment(t *testing.T) {
	svc, _, _ := newBillingService()

	bill, err := svc.Preview(context.Background(), 7, SettleInput{
		Discount:  DiscountSpec{Type: DiscountNone},
		ChargeFee: true,
		Payments:  []Payment{{Method: "cash", Amount: cents(5000)}},
	})
	require.NoError(t, err)
	assert.Equal(t, cents(22000), bill.FinalTotal)
	assert.Equal(t, cents(5000), bill.TotalPaid)
	assert.Equal(t, money.Zero, bill.ChangeDue)
}
