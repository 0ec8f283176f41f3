package ledger

import (
	"context"
	"time"
)

// CustomerRef is the slice of a customer record the engine needs.
type CustomerRef struct {
	ID   int64
	Name string
}

// TailorRef is the slice of a worker record the engine needs for assignment.
type TailorRef struct {
	ID       int64
	Name     string
	Role     string
	IsActive bool
}

// ListOrdersRequest filters order listings.
type ListOrdersRequest struct {
	CustomerID    *int64
	PaymentStatus *PaymentStatus
	Status        *FulfillmentStatus
	Priority      *Priority
	TailorID      *int64
	DateFrom      *time.Time
	DateTo        *time.Time
	Limit         int
	Offset        int
}

// ListPaymentsRequest filters payment listings.
type ListPaymentsRequest struct {
	OrderID    *int64
	CustomerID *int64
	Mode       *PaymentMode
	Limit      int
	Offset     int
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	CustomerID *int64
	Status     *InvoiceStatus
	Limit      int
	Offset     int
}

// Repository defines data access for the ledger engine. Every write path of a
// single engine operation goes through one WithTx scope so that order,
// payment, invoice, and customer-aggregate writes become visible together or
// not at all.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreateOrder(ctx context.Context, o Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	// GetOrderForUpdate locks the order row for the remainder of the
	// enclosing transaction, serialising concurrent collections.
	GetOrderForUpdate(ctx context.Context, id int64) (*Order, error)
	GetOrderByClientRef(ctx context.Context, ref string) (*Order, error)
	ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error)
	UpdateOrderPayment(ctx context.Context, id int64, advance, pending float64, status PaymentStatus, mode PaymentMode, revision int64) error
	UpdateOrderFulfillment(ctx context.Context, id int64, status FulfillmentStatus) error
	AssignOrderTailor(ctx context.Context, id int64, tailorID int64, tailorName string) error

	InsertPayment(ctx context.Context, p Payment) (int64, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error)
	ListOrderPayments(ctx context.Context, orderID int64) ([]Payment, error)

	CreateInvoice(ctx context.Context, inv Invoice) (int64, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID int64) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error)
	MarkInvoicePaid(ctx context.Context, orderID int64, paidAt time.Time) error
	NextInvoiceNumber(ctx context.Context, at time.Time) (string, error)

	CustomerRef(ctx context.Context, id int64) (*CustomerRef, error)
	TailorRef(ctx context.Context, workerID int64) (*TailorRef, error)
	ApplyCustomerTotals(ctx context.Context, customerID int64, orders int64, paid, pending float64) error
	CustomerTotals(ctx context.Context, customerID int64) (*CustomerTotals, error)
}
