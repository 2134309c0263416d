package billing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistro-suite/bistro/internal/money"
	_ "github.com/bistro-suite/bistro/testing"
)

func cents(v int64) money.Money { return money.FromCents(v) }

func tenPercentFee() ServiceFeeSpec {
	return ServiceFeeSpec{Enabled: true, RatePercent: 10}
}

func TestComputeSettlement(t *testing.T) {
	// Gross 200.00, 10% discount -> 180.00, 10% fee on the discounted
	// amount -> 18.00, final 198.00, paid 200.00 cash -> change 2.00.
	s, err := ComputeSettlement(cents(20000),
		DiscountSpec{Type: DiscountPercentage, Percent: 10},
		tenPercentFee(),
		[]Payment{{Method: "cash", Amount: cents(20000)}})
	require.NoError(t, err)

	assert.Equal(t, cents(18000), s.NetAfterDiscount)
	assert.Equal(t, cents(1800), s.ServiceFeeAmount)
	assert.Equal(t, cents(19800), s.FinalTotal)
	assert.Equal(t, cents(20000), s.TotalPaid)
	assert.Equal(t, cents(200), s.ChangeDue)
}

func TestComputeSettlementFeeOnDiscountedAmount(t *testing.T) {
	withDiscount, err := ComputeSettlement(cents(10000),
		DiscountSpec{Type: DiscountAbsolute, Amount: cents(5000)},
		tenPercentFee(),
		[]Payment{{Method: "card", Amount: cents(10000)}})
	require.NoError(t, err)
	// Fee is 10% of 50.00, not of 100.00.
	assert.Equal(t, cents(500), withDiscount.ServiceFeeAmount)
	assert.Equal(t, cents(5500), withDiscount.FinalTotal)
}

func TestComputeSettlementNoDiscountNoFee(t *testing.T) {
	s, err := ComputeSettlement(cents(7550),
		DiscountSpec{Type: DiscountNone},
		ServiceFeeSpec{Enabled: false, RatePercent: 10},
		[]Payment{{Method: "pix", Amount: cents(7550)}})
	require.NoError(t, err)
	assert.Equal(t, cents(7550), s.NetAfterDiscount)
	assert.Equal(t, money.Zero, s.ServiceFeeAmount)
	assert.Equal(t, cents(7550), s.FinalTotal)
	assert.Equal(t, money.Zero, s.ChangeDue)
}

func TestComputeSettlementAbsoluteDiscountFloorsAtZero(t *testing.T) {
	s, err := ComputeSettlement(cents(3000),
		DiscountSpec{Type: DiscountAbsolute, Amount: cents(5000)},
		tenPercentFee(),
		nil)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, s.NetAfterDiscount)
	assert.Equal(t, money.Zero, s.FinalTotal)
}

func TestComputeSettlementZeroFinalNeedsNoPayment(t *testing.T) {
	s, err := ComputeSettlement(cents(3000),
		DiscountSpec{Type: DiscountPercentage, Percent: 100},
		ServiceFeeSpec{},
		nil)
	require.NoError(t, err)
	assert.Equal(t, money.Zero, s.FinalTotal)
	assert.Equal(t, money.Zero, s.ChangeDue)
}

func TestComputeSettlementInsufficientPayment(t *testing.T) {
	// Final total is 220.00; one centavo short across two payment lines.
	s, err := ComputeSettlement(cents(20000),
		DiscountSpec{Type: DiscountNone},
		tenPercentFee(),
		[]Payment{{Method: "cash", Amount: cents(21000)}, {Method: "card", Amount: cents(999)}})
	require.ErrorIs(t, err, ErrInsufficientPayment)
	require.NotNil(t, s)
	assert.Equal(t, cents(22000), s.FinalTotal)
	assert.Equal(t, cents(21999), s.TotalPaid)
	assert.Equal(t, money.Zero, s.ChangeDue)

	// Exact payment settles without change.
	exact, err := ComputeSettlement(cents(20000),
		DiscountSpec{Type: DiscountNone},
		tenPercentFee(),
		[]Payment{{Method: "cash", Amount: cents(22000)}})
	require.NoError(t, err)
	assert.Equal(t, money.Zero, exact.ChangeDue)
}

func TestComputeSettlementSplitPayments(t *testing.T) {
	s, err := ComputeSettlement(cents(19800),
		DiscountSpec{Type: DiscountNone},
		ServiceFeeSpec{},
		[]Payment{
			{Method: "cash", Amount: cents(10000)},
			{Method: "card", Amount: cents(8000)},
			{Method: "pix", Amount: cents(2000)},
		})
	require.NoError(t, err)
	assert.Equal(t, cents(20000), s.TotalPaid)
	assert.Equal(t, cents(200), s.ChangeDue)
}

func TestComputeSettlementRoundsHalfUp(t *testing.T) {
	// 10% of 33.35 is 3.335, which rounds to 3.34 at the centavo.
	s, err := ComputeSettlement(cents(3335),
		DiscountSpec{Type: DiscountNone},
		tenPercentFee(),
		[]Payment{{Method: "cash", Amount: cents(3700)}})
	require.NoError(t, err)
	assert.Equal(t, cents(334), s.ServiceFeeAmount)
	assert.Equal(t, cents(3669), s.FinalTotal)
}

func TestComputeSettlementInvalidDiscount(t *testing.T) {
	tests := []struct {
		name     string
		discount DiscountSpec
	}{
		{"unknown type", DiscountSpec{Type: "COUPON"}},
		{"empty type", DiscountSpec{}},
		{"negative percent", DiscountSpec{Type: DiscountPercentage, Percent: -5}},
		{"negative amount", DiscountSpec{Type: DiscountAbsolute, Amount: -100}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeSettlement(cents(1000), tc.discount, ServiceFeeSpec{}, nil)
			assert.ErrorIs(t, err, ErrInvalidDiscount)
		})
	}
}

func TestComputeSettlementNegativePayment(t *testing.T) {
	_, err := ComputeSettlement(cents(1000),
		DiscountSpec{Type: DiscountNone},
		ServiceFeeSpec{},
		[]Payment{{Method: "cash", Amount: cents(-100)}})
	assert.ErrorIs(t, err, ErrNegativePayment)
}
