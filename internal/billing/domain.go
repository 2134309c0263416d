package billing

import (
	"errors"
	"time"

	"github.com/bistro-suite/bistro/internal/money"
)

// TableStatus enumerates the occupancy state of a restaurant table.
type TableStatus string

const (
	TableAvailable TableStatus = "AVAILABLE"
	TableOccupied  TableStatus = "OCCUPIED"
)

// Table is a physical restaurant table.
type Table struct {
	ID     int64       `json:"id"`
	Number int         `json:"number"`
	Status TableStatus `json:"status"`
}

// OrderStatus enumerates kitchen order states. Only delivered orders count
// toward the bill.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderPreparing OrderStatus = "PREPARING"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderSettled   OrderStatus = "SETTLED"
)

// Settlement is a persisted, finalized table bill.
type Settlement struct {
	ID               int64        `json:"id"`
	Ref              string       `json:"ref"`
	TableID          int64        `json:"tableId"`
	TableNumber      int          `json:"tableNumber"`
	WaiterID         *int64       `json:"waiterId,omitempty"`
	GrossTotal       money.Money  `json:"grossTotal"`
	DiscountType     DiscountType `json:"discountType"`
	DiscountPercent  float64      `json:"discountPercent,omitempty"`
	DiscountAmount   money.Money  `json:"discountAmount,omitempty"`
	ServiceFee       bool         `json:"serviceFee"`
	ServiceFeeRate   float64      `json:"serviceFeeRate"`
	ServiceFeeAmount money.Money  `json:"serviceFeeAmount"`
	FinalTotal       money.Money  `json:"finalTotal"`
	TotalPaid        money.Money  `json:"totalPaid"`
	ChangeDue        money.Money  `json:"changeDue"`
	Payments         []Payment    `json:"payments"`
	SettledAt        time.Time    `json:"settledAt"`
	ImportedAt       *time.Time   `json:"importedAt,omitempty"`
}

var (
	// ErrTableNotFound indicates a missing table.
	ErrTableNotFound = errors.New("billing: table not found")
	// ErrNothingToSettle indicates a table with no delivered orders.
	ErrNothingToSettle = errors.New("billing: no delivered orders for table")
	// ErrSettlementNotFound indicates a missing settlement.
	ErrSettlementNotFound = errors.New("billing: settlement not found")
)
