package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/stitchdesk/stitchdesk/internal/observability"
	"github.com/stitchdesk/stitchdesk/internal/shared"
)

// CreateOrderInput carries everything the intake wizard collects.
type CreateOrderInput struct {
	CustomerID   int64
	Garments     []OrderGarment
	Measurements map[string]float64
	TotalAmount  float64
	AdvancePaid  float64
	PaymentMode  PaymentMode
	DeliveryDate time.Time
	Priority     Priority
	TailorID     *int64
	Notes        *string
	// ClientRef is a caller-generated idempotency key. Retrying with the
	// same ref returns the already-created order instead of a duplicate.
	ClientRef string
}

// CreateOrderResult is the snapshot returned after order creation.
type CreateOrderResult struct {
	Order    *Order
	Invoice  *Invoice
	Customer *CustomerTotals
	// Warnings carry non-fatal findings (e.g. a past delivery date) the
	// caller should surface but that do not block creation.
	Warnings []string
	// Deduplicated is true when the ClientRef matched an existing order
	// and no new records were written.
	Deduplicated bool
}

// CollectPaymentInput describes one collection event against an order.
type CollectPaymentInput struct {
	OrderID int64
	Amount  float64
	Mode    PaymentMode
	Notes   *string
	// ExpectedRevision, when set, must match the order's current revision
	// or the collection fails with ErrRevisionMismatch.
	ExpectedRevision *int64
	// ClientRef is a caller-generated idempotency key. A retry carrying a
	// ref that was already processed fails with ErrDuplicateCollection
	// instead of collecting the amount twice.
	ClientRef string
}

// CollectPaymentResult is the snapshot returned after a collection.
type CollectPaymentResult struct {
	Order    *Order
	Payment  *Payment
	Invoice  *Invoice
	Customer *CustomerTotals
}

// OrderDetail bundles an order with its payment history and invoice.
type OrderDetail struct {
	Order    *Order
	Payments []Payment
	Invoice  *Invoice
}

// CacheInvalidator drops derived read models after a ledger write.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) error
}

// IdempotencyGuard remembers processed client references so a retried
// collection is refused rather than applied twice. shared.IdempotencyStore
// implements it.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// Service is the order-ledger engine.
type Service struct {
	repo       Repository
	audit      *shared.AuditLogger
	metrics    *observability.Metrics
	invalidate CacheInvalidator
	idem       IdempotencyGuard
}

// NewService builds the engine. Audit and metrics may be nil in tests.
func NewService(repo Repository, audit *shared.AuditLogger, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, audit: audit, metrics: metrics}
}

// SetInvalidator registers a cache to bump after committed writes.
func (s *Service) SetInvalidator(inv CacheInvalidator) {
	s.invalidate = inv
}

// SetIdempotencyGuard enables client-reference deduplication for payment
// collection. Without a guard, a ClientRef on CollectPayment is ignored.
func (s *Service) SetIdempotencyGuard(guard IdempotencyGuard) {
	s.idem = guard
}

func (s *Service) bumpCaches(ctx context.Context) {
	if s.invalidate == nil {
		return
	}
	_ = s.invalidate.Invalidate(ctx)
}

// CreateOrder persists a new order together with its invoice, the initial
// advance payment (when any), and the customer aggregate update as one
// transaction. Either all of those records become visible or none do.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (res *CreateOrderResult, err error) {
	defer func() { s.metrics.ObserveLedgerOp("create_order", err) }()

	input = applyCreateDefaults(input)
	if err := validateCreateOrder(input); err != nil {
		return nil, err
	}

	if input.ClientRef != "" {
		existing, err := s.repo.GetOrderByClientRef(ctx, input.ClientRef)
		if err == nil {
			return s.resultForExisting(ctx, existing)
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, err
		}
	}

	customer, err := s.repo.CustomerRef(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}

	var tailor *TailorRef
	if input.TailorID != nil {
		tailor, err = s.verifyTailor(ctx, *input.TailorID)
		if err != nil {
			return nil, err
		}
	}

	advance := clamp(input.AdvancePaid, 0, input.TotalAmount)
	pending := PendingAmount(input.TotalAmount, advance)
	now := time.Now()

	order := Order{
		CustomerID:    customer.ID,
		CustomerName:  customer.Name,
		Garments:      input.Garments,
		Measurements:  input.Measurements,
		TotalAmount:   input.TotalAmount,
		AdvancePaid:   advance,
		PendingAmount: pending,
		PaymentMode:   input.PaymentMode,
		PaymentStatus: DerivePaymentStatus(input.TotalAmount, advance),
		Status:        FulfillmentPending,
		Priority:      input.Priority,
		DeliveryDate:  input.DeliveryDate,
		Notes:         input.Notes,
	}
	if tailor != nil {
		order.TailorID = &tailor.ID
		order.TailorName = &tailor.Name
	}
	if input.ClientRef != "" {
		ref := input.ClientRef
		order.ClientRef = &ref
	}

	var warnings []string
	if input.DeliveryDate.Before(now.Truncate(24 * time.Hour)) {
		warnings = append(warnings, "delivery date is in the past")
	}

	var (
		orderID int64
		invoice Invoice
	)
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreateOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		orderID = id

		number, err := repo.NextInvoiceNumber(ctx, now)
		if err != nil {
			return fmt.Errorf("generate invoice number: %w", err)
		}
		invoice = Invoice{
			Number:     number,
			OrderID:    orderID,
			CustomerID: customer.ID,
			Amount:     input.TotalAmount,
			Status:     InvoiceStatusPending,
			DueAt:      input.DeliveryDate,
		}
		if pending == 0 {
			invoice.Status = InvoiceStatusPaid
			paidAt := now
			invoice.PaidAt = &paidAt
		}
		if _, err := repo.CreateInvoice(ctx, invoice); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}

		if advance > 0 {
			_, err := repo.InsertPayment(ctx, Payment{
				Number:     paymentNumber(),
				OrderID:    orderID,
				CustomerID: customer.ID,
				Amount:     advance,
				Mode:       input.PaymentMode,
				PaidAt:     now,
				Notes:      input.Notes,
			})
			if err != nil {
				return fmt.Errorf("record advance payment: %w", err)
			}
		}

		if err := repo.ApplyCustomerTotals(ctx, customer.ID, 1, advance, pending); err != nil {
			return fmt.Errorf("update customer totals: %w", err)
		}
		return nil
	})
	if err != nil {
		// A concurrent retry with the same client ref may have won the
		// race; treat its result as ours.
		if errors.Is(err, ErrClientRefTaken) && input.ClientRef != "" {
			existing, lookupErr := s.repo.GetOrderByClientRef(ctx, input.ClientRef)
			if lookupErr == nil {
				return s.resultForExisting(ctx, existing)
			}
		}
		return nil, err
	}

	created, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	storedInvoice, err := s.repo.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CustomerTotals(ctx, customer.ID)
	if err != nil {
		return nil, err
	}

	s.bumpCaches(ctx)
	s.recordAudit(ctx, "order.created", "order", orderID, map[string]any{
		"customer_id": customer.ID,
		"total":       created.TotalAmount,
		"advance":     created.AdvancePaid,
		"pending":     created.PendingAmount,
		"invoice":     storedInvoice.Number,
	})

	return &CreateOrderResult{
		Order:    created,
		Invoice:  storedInvoice,
		Customer: totals,
		Warnings: warnings,
	}, nil
}

// CollectPayment appends a payment record and rolls the order's monetary
// triple, the invoice status, and the customer aggregates forward in one
// transaction. The order row is locked for the duration, so two concurrent
// collections can never both read the same stale pending amount.
func (s *Service) CollectPayment(ctx context.Context, input CollectPaymentInput) (res *CollectPaymentResult, err error) {
	defer func() { s.metrics.ObserveLedgerOp("collect_payment", err) }()

	if input.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if input.Mode == "" {
		input.Mode = PaymentModeCash
	}
	if !input.Mode.Valid() {
		return nil, ErrInvalidPaymentMode
	}

	if input.ClientRef != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, input.ClientRef, "ledger.collect_payment"); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return nil, ErrDuplicateCollection
			}
			return nil, err
		}
		// Release the key when the transaction fails so the caller can
		// retry with the same ref.
		defer func() {
			if err != nil {
				_ = s.idem.Delete(ctx, input.ClientRef)
			}
		}()
	}

	now := time.Now()
	result := &CollectPaymentResult{}
	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		order, err := repo.GetOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if input.ExpectedRevision != nil && *input.ExpectedRevision != order.Revision {
			return ErrRevisionMismatch
		}
		if input.Amount > order.PendingAmount {
			return ErrExceedsPending
		}

		payment := Payment{
			Number:     paymentNumber(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Amount:     input.Amount,
			Mode:       input.Mode,
			PaidAt:     now,
			Notes:      input.Notes,
		}
		paymentID, err := repo.InsertPayment(ctx, payment)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		payment.ID = paymentID

		newAdvance := order.AdvancePaid + input.Amount
		newPending := PendingAmount(order.TotalAmount, newAdvance)
		newStatus := DerivePaymentStatus(order.TotalAmount, newAdvance)
		if err := repo.UpdateOrderPayment(ctx, order.ID, newAdvance, newPending, newStatus, input.Mode, order.Revision); err != nil {
			return fmt.Errorf("update order: %w", err)
		}

		if newPending == 0 {
			if err := repo.MarkInvoicePaid(ctx, order.ID, now); err != nil {
				return fmt.Errorf("mark invoice paid: %w", err)
			}
		}

		if err := repo.ApplyCustomerTotals(ctx, order.CustomerID, 0, input.Amount, -input.Amount); err != nil {
			return fmt.Errorf("update customer totals: %w", err)
		}

		updated := *order
		updated.AdvancePaid = newAdvance
		updated.PendingAmount = newPending
		updated.PaymentStatus = newStatus
		updated.PaymentMode = input.Mode
		updated.Revision = order.Revision + 1
		result.Order = &updated
		result.Payment = &payment

		invoice, err := repo.GetInvoiceByOrder(ctx, order.ID)
		if err != nil {
			return err
		}
		result.Invoice = invoice

		totals, err := repo.CustomerTotals(ctx, order.CustomerID)
		if err != nil {
			return err
		}
		result.Customer = totals
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bumpCaches(ctx)
	s.recordAudit(ctx, "payment.collected", "order", result.Order.ID, map[string]any{
		"amount":  input.Amount,
		"mode":    string(input.Mode),
		"pending": result.Order.PendingAmount,
	})

	return result, nil
}

// MarkInvoicePaid settles an invoice by collecting the order's full remaining
// balance. It reuses the CollectPayment path so every derived field moves
// through the same formulas.
func (s *Service) MarkInvoicePaid(ctx context.Context, invoiceID int64, mode PaymentMode) (*CollectPaymentResult, error) {
	invoice, err := s.repo.GetInvoice(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(ctx, invoice.OrderID)
	if err != nil {
		return nil, err
	}
	if order.PendingAmount <= 0 {
		return nil, ErrNothingPending
	}
	return s.CollectPayment(ctx, CollectPaymentInput{
		OrderID: order.ID,
		Amount:  order.PendingAmount,
		Mode:    mode,
	})
}

// AdvanceFulfillment moves the production status one step forward. It never
// touches monetary fields; payment collection may interleave freely.
func (s *Service) AdvanceFulfillment(ctx context.Context, orderID int64, next FulfillmentStatus) (order *Order, err error) {
	defer func() { s.metrics.ObserveLedgerOp("advance_fulfillment", err) }()

	current, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanAdvanceTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, next)
	}
	if err := s.repo.UpdateOrderFulfillment(ctx, orderID, next); err != nil {
		return nil, err
	}

	s.bumpCaches(ctx)
	s.recordAudit(ctx, "order.status_changed", "order", orderID, map[string]any{
		"from": string(current.Status),
		"to":   string(next),
	})
	return s.repo.GetOrder(ctx, orderID)
}

// AssignTailor attaches an active tailor to the order.
func (s *Service) AssignTailor(ctx context.Context, orderID, workerID int64) (order *Order, err error) {
	defer func() { s.metrics.ObserveLedgerOp("assign_tailor", err) }()

	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	tailor, err := s.verifyTailor(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.AssignOrderTailor(ctx, orderID, tailor.ID, tailor.Name); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, "order.tailor_assigned", "order", orderID, map[string]any{
		"tailor_id": tailor.ID,
	})
	return s.repo.GetOrder(ctx, orderID)
}

// Detail returns an order with its payment history and invoice.
func (s *Service) Detail(ctx context.Context, orderID int64) (*OrderDetail, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListOrderPayments(ctx, orderID)
	if err != nil {
		return nil, err
	}
	invoice, err := s.repo.GetInvoiceByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return &OrderDetail{Order: order, Payments: payments, Invoice: invoice}, nil
}

// ListOrders returns matching orders plus the unpaged total.
func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	return s.repo.ListOrders(ctx, req)
}

// ListPayments returns matching payment records plus the unpaged total.
func (s *Service) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, req)
}

// ListInvoices returns matching invoices plus the unpaged total.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	return s.repo.ListInvoices(ctx, req)
}

// GetInvoice returns one invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) resultForExisting(ctx context.Context, order *Order) (*CreateOrderResult, error) {
	invoice, err := s.repo.GetInvoiceByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	totals, err := s.repo.CustomerTotals(ctx, order.CustomerID)
	if err != nil {
		return nil, err
	}
	return &CreateOrderResult{
		Order:        order,
		Invoice:      invoice,
		Customer:     totals,
		Deduplicated: true,
	}, nil
}

func (s *Service) verifyTailor(ctx context.Context, workerID int64) (*TailorRef, error) {
	tailor, err := s.repo.TailorRef(ctx, workerID)
	if err != nil {
		return nil, err
	}
	if tailor.Role != "tailor" || !tailor.IsActive {
		return nil, ErrNotATailor
	}
	return tailor, nil
}

func (s *Service) recordAudit(ctx context.Context, action, entity string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: fmt.Sprintf("%d", entityID),
		Meta:     meta,
	})
}

func paymentNumber() string {
	return "PAY-" + uuid.NewString()[:8]
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
