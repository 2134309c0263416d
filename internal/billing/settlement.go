// Package billing settles restaurant tables: gross total, discount, service
// fee, payment validation and change.
package billing

import (
	"errors"

	"github.com/bistro-suite/bistro/internal/money"
)

// DiscountType enumerates how a discount is expressed.
type DiscountType string

const (
	DiscountNone       DiscountType = "NONE"
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountAbsolute   DiscountType = "ABSOLUTE"
)

// Valid reports whether t is a known discount type.
func (t DiscountType) Valid() bool {
	switch t {
	case DiscountNone, DiscountPercentage, DiscountAbsolute:
		return true
	}
	return false
}

// DiscountSpec describes the discount applied to a bill. Percent is used for
// DiscountPercentage, Amount for DiscountAbsolute.
type DiscountSpec struct {
	Type    DiscountType `json:"type"`
	Percent float64      `json:"percent,omitempty"`
	Amount  money.Money  `json:"amount,omitempty"`
}

// ServiceFeeSpec describes the service fee toggle and rate.
type ServiceFeeSpec struct {
	Enabled     bool    `json:"enabled"`
	RatePercent float64 `json:"ratePercent"`
}

// Payment is one payment line. Method is recorded as given, never validated
// against a processor.
type Payment struct {
	Method string      `json:"method"`
	Amount money.Money `json:"amount"`
}

var (
	// ErrInvalidDiscount indicates an unknown discount type or a negative
	// discount value.
	ErrInvalidDiscount = errors.New("billing: invalid discount")
	// ErrNegativePayment indicates a payment line below zero.
	ErrNegativePayment = errors.New("billing: negative payment amount")
	// ErrInsufficientPayment indicates the payments do not cover the final
	// total; the settlement must not proceed.
	ErrInsufficientPayment = errors.New("billing: payments below final total")
)

// BillSettlement holds every derived figure of a table settlement.
type BillSettlement struct {
	GrossTotal       money.Money    `json:"grossTotal"`
	Discount         DiscountSpec   `json:"discount"`
	NetAfterDiscount money.Money    `json:"netAfterDiscount"`
	ServiceFee       ServiceFeeSpec `json:"serviceFee"`
	ServiceFeeAmount money.Money    `json:"serviceFeeAmount"`
	FinalTotal       money.Money    `json:"finalTotal"`
	Payments         []Payment      `json:"payments"`
	TotalPaid        money.Money    `json:"totalPaid"`
	ChangeDue        money.Money    `json:"changeDue"`
}

// ComputeSettlement derives a full settlement from the gross total, discount,
// service fee and payment lines. The discount applies to the gross total and
// floors at zero; the service fee applies to the discounted amount. When the
// payments do not cover the final total the computed settlement is returned
// together with ErrInsufficientPayment so callers can still display it.
func ComputeSettlement(gross money.Money, discount DiscountSpec, fee ServiceFeeSpec, payments []Payment) (*BillSettlement, error) {
	if !discount.Type.Valid() {
		return nil, ErrInvalidDiscount
	}
	if discount.Percent < 0 || discount.Amount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	net := gross
	switch discount.Type {
	case DiscountPercentage:
		net = gross.SubFloor(gross.ApplyPercent(discount.Percent))
	case DiscountAbsolute:
		net = gross.SubFloor(discount.Amount)
	}

	var feeAmount money.Money
	if fee.Enabled {
		feeAmount = net.ApplyPercent(fee.RatePercent)
	}

	s := &BillSettlement{
		GrossTotal:       gross,
		Discount:         discount,
		NetAfterDiscount: net,
		ServiceFee:       fee,
		ServiceFeeAmount: feeAmount,
		FinalTotal:       net.Add(feeAmount),
		Payments:         payments,
	}
	for _, p := range payments {
		if p.Amount.IsNegative() {
			return nil, ErrNegativePayment
		}
		s.TotalPaid = s.TotalPaid.Add(p.Amount)
	}
	s.ChangeDue = s.TotalPaid.SubFloor(s.FinalTotal)
	if s.TotalPaid < s.FinalTotal {
		return s, ErrInsufficientPayment
	}
	return s, nil
}
