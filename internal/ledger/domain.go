// Package ledger implements the order-ledger engine: the rules that keep an
// order's monetary fields, its customer's aggregate totals, and its invoice
// status mutually consistent as orders are created and payments collected.
package ledger

import (
	"time"
)

// PaymentStatus enumerates an order's collection state.
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// FulfillmentStatus enumerates production/delivery progress. It is orthogonal
// to PaymentStatus and only ever moves forward.
type FulfillmentStatus string

const (
	FulfillmentPending    FulfillmentStatus = "pending"
	FulfillmentInProgress FulfillmentStatus = "in_progress"
	FulfillmentCompleted  FulfillmentStatus = "completed"
	FulfillmentDelivered  FulfillmentStatus = "delivered"
)

// PaymentMode enumerates accepted collection channels.
type PaymentMode string

const (
	PaymentModeCash  PaymentMode = "cash"
	PaymentModeUPI   PaymentMode = "upi"
	PaymentModeCard  PaymentMode = "card"
	PaymentModeOther PaymentMode = "other"
)

// Priority enumerates order urgency.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// InvoiceStatus enumerates the stored invoice state.
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
)

// InvoiceOverdue is a read-side display state, never persisted.
const InvoiceOverdue = "overdue"

// DerivePaymentStatus is the single source of truth for an order's payment
// status. No call site may compute it by any other formula.
func DerivePaymentStatus(total, advance float64) PaymentStatus {
	switch {
	case advance >= total:
		return PaymentStatusPaid
	case advance > 0:
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// PendingAmount returns the balance owed on an order, clamped at zero.
func PendingAmount(total, advance float64) float64 {
	pending := total - advance
	if pending < 0 {
		return 0
	}
	return pending
}

// CanAdvanceTo reports whether next is the immediately following fulfillment
// stage. Regressions and skips are rejected.
func (s FulfillmentStatus) CanAdvanceTo(next FulfillmentStatus) bool {
	switch s {
	case FulfillmentPending:
		return next == FulfillmentInProgress
	case FulfillmentInProgress:
		return next == FulfillmentCompleted
	case FulfillmentCompleted:
		return next == FulfillmentDelivered
	default:
		return false
	}
}

// Valid reports whether the payment mode is one of the accepted channels.
func (m PaymentMode) Valid() bool {
	switch m {
	case PaymentModeCash, PaymentModeUPI, PaymentModeCard, PaymentModeOther:
		return true
	}
	return false
}

// Valid reports whether the priority is one of the accepted levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// OrderGarment is one requested garment line on an order.
type OrderGarment struct {
	GarmentType string            `json:"garment_type"`
	Subtypes    map[string]string `json:"subtypes,omitempty"`
	Quantity    int               `json:"quantity"`
	Notes       string            `json:"notes,omitempty"`
}

// Order model. The monetary triple, fulfillment status, and tailor assignment
// are the only fields mutated after creation.
type Order struct {
	ID            int64
	CustomerID    int64
	CustomerName  string
	Garments      []OrderGarment
	Measurements  map[string]float64
	TotalAmount   float64
	AdvancePaid   float64
	PendingAmount float64
	PaymentMode   PaymentMode
	PaymentStatus PaymentStatus
	Status        FulfillmentStatus
	Priority      Priority
	TailorID      *int64
	TailorName    *string
	DeliveryDate  time.Time
	Notes         *string
	ClientRef     *string
	Revision      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Payment is an immutable record of one collection event against one order.
type Payment struct {
	ID         int64
	Number     string
	OrderID    int64
	CustomerID int64
	Amount     float64
	Mode       PaymentMode
	PaidAt     time.Time
	Notes      *string
	CreatedAt  time.Time
}

// Invoice is generated exactly once per order at creation time.
type Invoice struct {
	ID          int64
	Number      string
	OrderID     int64
	CustomerID  int64
	Amount      float64
	Status      InvoiceStatus
	DueAt       time.Time
	GeneratedAt time.Time
	PaidAt      *time.Time
}

// DisplayState returns the state shown on invoice listings: the stored status,
// or "overdue" for a pending invoice whose due date has passed.
func (i Invoice) DisplayState(now time.Time) string {
	if i.Status == InvoiceStatusPending && !i.DueAt.IsZero() && i.DueAt.Before(now) {
		return InvoiceOverdue
	}
	return string(i.Status)
}

// CustomerTotals is the aggregate snapshot the engine maintains per customer.
type CustomerTotals struct {
	CustomerID   int64
	TotalOrders  int64
	TotalPaid    float64
	TotalPending float64
}
