package ledger

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stitchdesk/stitchdesk/internal/shared"
)

type memRepo struct {
	orders      map[int64]Order
	ordersByRef map[string]int64
	payments    []Payment
	invoices    map[int64]Invoice
	invByOrder  map[int64]int64
	totals      map[int64]CustomerTotals
	customers   map[int64]CustomerRef
	workers     map[int64]TailorRef
	seqs        map[string]int64
	nextOrder   int64
	nextPayment int64
	nextInvoice int64
}

func newMemRepo() *memRepo {
	return &memRepo{
		orders:      map[int64]Order{},
		ordersByRef: map[string]int64{},
		invoices:    map[int64]Invoice{},
		invByOrder:  map[int64]int64{},
		totals:      map[int64]CustomerTotals{},
		customers:   map[int64]CustomerRef{},
		workers:     map[int64]TailorRef{},
		seqs:        map[string]int64{},
	}
}

func (m *memRepo) snapshot() *memRepo {
	c := newMemRepo()
	for k, v := range m.orders {
		c.orders[k] = v
	}
	for k, v := range m.ordersByRef {
		c.ordersByRef[k] = v
	}
	c.payments = append([]Payment(nil), m.payments...)
	for k, v := range m.invoices {
		c.invoices[k] = v
	}
	for k, v := range m.invByOrder {
		c.invByOrder[k] = v
	}
	for k, v := range m.totals {
		c.totals[k] = v
	}
	for k, v := range m.seqs {
		c.seqs[k] = v
	}
	c.nextOrder, c.nextPayment, c.nextInvoice = m.nextOrder, m.nextPayment, m.nextInvoice
	return c
}

func (m *memRepo) restore(s *memRepo) {
	m.orders = s.orders
	m.ordersByRef = s.ordersByRef
	m.payments = s.payments
	m.invoices = s.invoices
	m.invByOrder = s.invByOrder
	m.totals = s.totals
	m.seqs = s.seqs
	m.nextOrder, m.nextPayment, m.nextInvoice = s.nextOrder, s.nextPayment, s.nextInvoice
}

func (m *memRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	s := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(s)
		return err
	}
	return nil
}

func (m *memRepo) CreateOrder(_ context.Context, o Order) (int64, error) {
	if o.ClientRef != nil {
		if _, ok := m.ordersByRef[*o.ClientRef]; ok {
			return 0, ErrClientRefTaken
		}
	}
	m.nextOrder++
	o.ID = m.nextOrder
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	m.orders[o.ID] = o
	if o.ClientRef != nil {
		m.ordersByRef[*o.ClientRef] = o.ID
	}
	return o.ID, nil
}

func (m *memRepo) GetOrder(_ context.Context, id int64) (*Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

func (m *memRepo) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memRepo) GetOrderByClientRef(_ context.Context, ref string) (*Order, error) {
	id, ok := m.ordersByRef[ref]
	if !ok {
		return nil, ErrOrderNotFound
	}
	o := m.orders[id]
	return &o, nil
}

func (m *memRepo) ListOrders(_ context.Context, req ListOrdersRequest) ([]Order, int, error) {
	var out []Order
	for _, o := range m.orders {
		if req.CustomerID != nil && o.CustomerID != *req.CustomerID {
			continue
		}
		if req.PaymentStatus != nil && o.PaymentStatus != *req.PaymentStatus {
			continue
		}
		if req.Status != nil && o.Status != *req.Status {
			continue
		}
		out = append(out, o)
	}
	return out, len(out), nil
}

func (m *memRepo) UpdateOrderPayment(_ context.Context, id int64, advance, pending float64, status PaymentStatus, mode PaymentMode, revision int64) error {
	o, ok := m.orders[id]
	if !ok || o.Revision != revision {
		return ErrRevisionMismatch
	}
	o.AdvancePaid = advance
	o.PendingAmount = pending
	o.PaymentStatus = status
	o.PaymentMode = mode
	o.Revision++
	o.UpdatedAt = time.Now()
	m.orders[id] = o
	return nil
}

func (m *memRepo) UpdateOrderFulfillment(_ context.Context, id int64, status FulfillmentStatus) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *memRepo) AssignOrderTailor(_ context.Context, id, tailorID int64, tailorName string) error {
	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.TailorID = &tailorID
	o.TailorName = &tailorName
	m.orders[id] = o
	return nil
}

func (m *memRepo) InsertPayment(_ context.Context, p Payment) (int64, error) {
	m.nextPayment++
	p.ID = m.nextPayment
	m.payments = append(m.payments, p)
	return p.ID, nil
}

func (m *memRepo) ListPayments(_ context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	var out []Payment
	for _, p := range m.payments {
		if req.OrderID != nil && p.OrderID != *req.OrderID {
			continue
		}
		if req.CustomerID != nil && p.CustomerID != *req.CustomerID {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *memRepo) ListOrderPayments(_ context.Context, orderID int64) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) CreateInvoice(_ context.Context, inv Invoice) (int64, error) {
	m.nextInvoice++
	inv.ID = m.nextInvoice
	inv.GeneratedAt = time.Now()
	m.invoices[inv.ID] = inv
	m.invByOrder[inv.OrderID] = inv.ID
	return inv.ID, nil
}

func (m *memRepo) GetInvoice(_ context.Context, id int64) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	return &inv, nil
}

func (m *memRepo) GetInvoiceByOrder(_ context.Context, orderID int64) (*Invoice, error) {
	id, ok := m.invByOrder[orderID]
	if !ok {
		return nil, ErrInvoiceNotFound
	}
	inv := m.invoices[id]
	return &inv, nil
}

func (m *memRepo) ListInvoices(_ context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	var out []Invoice
	for _, inv := range m.invoices {
		if req.CustomerID != nil && inv.CustomerID != *req.CustomerID {
			continue
		}
		if req.Status != nil && inv.Status != *req.Status {
			continue
		}
		out = append(out, inv)
	}
	return out, len(out), nil
}

func (m *memRepo) MarkInvoicePaid(_ context.Context, orderID int64, paidAt time.Time) error {
	id, ok := m.invByOrder[orderID]
	if !ok {
		return ErrInvoiceNotFound
	}
	inv := m.invoices[id]
	if inv.Status != InvoiceStatusPaid {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &paidAt
		m.invoices[id] = inv
	}
	return nil
}

func (m *memRepo) NextInvoiceNumber(_ context.Context, at time.Time) (string, error) {
	period := at.Format("200601")
	m.seqs["INV:"+period]++
	return fmt.Sprintf("INV-%s-%04d", period, m.seqs["INV:"+period]), nil
}

func (m *memRepo) CustomerRef(_ context.Context, id int64) (*CustomerRef, error) {
	c, ok := m.customers[id]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	return &c, nil
}

func (m *memRepo) TailorRef(_ context.Context, id int64) (*TailorRef, error) {
	w, ok := m.workers[id]
	if !ok {
		return nil, ErrWorkerNotFound
	}
	return &w, nil
}

func (m *memRepo) ApplyCustomerTotals(_ context.Context, customerID, orders int64, paid, pending float64) error {
	t := m.totals[customerID]
	t.CustomerID = customerID
	t.TotalOrders += orders
	t.TotalPaid += paid
	t.TotalPending += pending
	if t.TotalPending < 0 {
		t.TotalPending = 0
	}
	m.totals[customerID] = t
	return nil
}

func (m *memRepo) CustomerTotals(_ context.Context, customerID int64) (*CustomerTotals, error) {
	t, ok := m.totals[customerID]
	if !ok {
		t = CustomerTotals{CustomerID: customerID}
	}
	return &t, nil
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	repo := newMemRepo()
	repo.customers[1] = CustomerRef{ID: 1, Name: "Asha Verma"}
	repo.workers[7] = TailorRef{ID: 7, Name: "Ravi", Role: "tailor", IsActive: true}
	repo.workers[8] = TailorRef{ID: 8, Name: "Meena", Role: "helper", IsActive: true}
	return NewService(repo, nil, nil), repo
}

func baseInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerID:   1,
		Garments:     []OrderGarment{{GarmentType: "shirt", Quantity: 2}},
		TotalAmount:  1000,
		DeliveryDate: time.Now().AddDate(0, 0, 7),
	}
}

func TestCreateOrderNoAdvance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	res, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	require.Equal(t, PaymentStatusUnpaid, res.Order.PaymentStatus)
	require.Equal(t, 0.0, res.Order.AdvancePaid)
	require.Equal(t, 1000.0, res.Order.PendingAmount)
	require.Equal(t, InvoiceStatusPending, res.Invoice.Status)
	require.Equal(t, res.Order.ID, res.Invoice.OrderID)

	require.Equal(t, int64(1), res.Customer.TotalOrders)
	require.Equal(t, 0.0, res.Customer.TotalPaid)
	require.Equal(t, 1000.0, res.Customer.TotalPending)
	require.Empty(t, repo.payments)
}

func TestCreateOrderWithAdvance(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 400
	input.PaymentMode = PaymentModeUPI

	res, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	require.Equal(t, PaymentStatusPartial, res.Order.PaymentStatus)
	require.Equal(t, 600.0, res.Order.PendingAmount)
	require.Equal(t, 400.0, res.Customer.TotalPaid)
	require.Equal(t, 600.0, res.Customer.TotalPending)

	// The advance is recorded as a payment event, not just a field.
	require.Len(t, repo.payments, 1)
	require.Equal(t, 400.0, repo.payments[0].Amount)
	require.Equal(t, PaymentModeUPI, repo.payments[0].Mode)
}

func TestCreateOrderFullAdvance(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 1000

	res, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	require.Equal(t, PaymentStatusPaid, res.Order.PaymentStatus)
	require.Equal(t, 0.0, res.Order.PendingAmount)
	require.Equal(t, InvoiceStatusPaid, res.Invoice.Status)
	require.NotNil(t, res.Invoice.PaidAt)
}

func TestCreateOrderClampsAdvanceToTotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 1500

	res, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.Equal(t, 1000.0, res.Order.AdvancePaid)
	require.Equal(t, PaymentStatusPaid, res.Order.PaymentStatus)
}

func TestCreateOrderValidation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
		want   error
	}{
		{"empty garments", func(in *CreateOrderInput) { in.Garments = nil }, ErrEmptyGarments},
		{"zero quantity", func(in *CreateOrderInput) { in.Garments[0].Quantity = 0 }, ErrInvalidQuantity},
		{"zero total", func(in *CreateOrderInput) { in.TotalAmount = 0 }, ErrInvalidTotal},
		{"no delivery date", func(in *CreateOrderInput) { in.DeliveryDate = time.Time{} }, ErrMissingDelivery},
		{"bad payment mode", func(in *CreateOrderInput) { in.PaymentMode = "barter" }, ErrInvalidPaymentMode},
		{"bad priority", func(in *CreateOrderInput) { in.Priority = "urgent" }, ErrInvalidPriority},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := baseInput()
			tc.mutate(&input)
			_, err := svc.CreateOrder(ctx, input)
			require.ErrorIs(t, err, tc.want)
		})
	}

	// Rejected requests leave no trace.
	require.Empty(t, repo.orders)
	require.Empty(t, repo.invoices)
	require.Empty(t, repo.totals)
}

func TestCreateOrderUnknownCustomer(t *testing.T) {
	svc, _ := newTestService(t)
	input := baseInput()
	input.CustomerID = 99

	_, err := svc.CreateOrder(context.Background(), input)
	require.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCreateOrderPastDeliveryWarns(t *testing.T) {
	svc, _ := newTestService(t)
	input := baseInput()
	input.DeliveryDate = time.Now().AddDate(0, 0, -3)

	res, err := svc.CreateOrder(context.Background(), input)
	require.NoError(t, err)
	require.Contains(t, res.Warnings, "delivery date is in the past")
}

func TestCreateOrderIdempotentByClientRef(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 400
	input.ClientRef = "wizard-42"

	first, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.False(t, first.Deduplicated)

	second, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	require.True(t, second.Deduplicated)
	require.Equal(t, first.Order.ID, second.Order.ID)

	// One order, one invoice, one payment, totals counted once.
	require.Len(t, repo.orders, 1)
	require.Len(t, repo.invoices, 1)
	require.Len(t, repo.payments, 1)
	require.Equal(t, int64(1), second.Customer.TotalOrders)
	require.Equal(t, 400.0, second.Customer.TotalPaid)
}

func TestCollectPaymentPartialThenPaid(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 300
	created, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	mid, err := svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID: created.Order.ID,
		Amount:  200,
		Mode:    PaymentModeCash,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPartial, mid.Order.PaymentStatus)
	require.Equal(t, 500.0, mid.Order.AdvancePaid)
	require.Equal(t, 500.0, mid.Order.PendingAmount)
	require.Equal(t, InvoiceStatusPending, mid.Invoice.Status)

	final, err := svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID: created.Order.ID,
		Amount:  500,
		Mode:    PaymentModeCard,
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, final.Order.PaymentStatus)
	require.Equal(t, 0.0, final.Order.PendingAmount)
	require.Equal(t, InvoiceStatusPaid, final.Invoice.Status)
	require.NotNil(t, final.Invoice.PaidAt)

	require.Equal(t, 1000.0, final.Customer.TotalPaid)
	require.Equal(t, 0.0, final.Customer.TotalPending)

	// Advance plus two collections: three immutable payment records.
	require.Len(t, repo.payments, 3)
}

func TestCollectPaymentExceedsPending(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 300
	created, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	before := repo.orders[created.Order.ID]

	_, err = svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID: created.Order.ID,
		Amount:  800,
	})
	require.ErrorIs(t, err, ErrExceedsPending)

	// Rejection mutated nothing.
	require.Equal(t, before, repo.orders[created.Order.ID])
	require.Len(t, repo.payments, 1)
	require.Equal(t, 300.0, repo.totals[1].TotalPaid)
}

func TestCollectPaymentInvalidAmount(t *testing.T) {
	svc, _ := newTestService(t)
	created, err := svc.CreateOrder(context.Background(), baseInput())
	require.NoError(t, err)

	_, err = svc.CollectPayment(context.Background(), CollectPaymentInput{OrderID: created.Order.ID, Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CollectPayment(context.Background(), CollectPaymentInput{OrderID: created.Order.ID, Amount: -50})
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCollectPaymentRevisionMismatch(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	_, err = svc.CollectPayment(ctx, CollectPaymentInput{OrderID: created.Order.ID, Amount: 100})
	require.NoError(t, err)

	stale := created.Order.Revision
	_, err = svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID:          created.Order.ID,
		Amount:           100,
		ExpectedRevision: &stale,
	})
	require.ErrorIs(t, err, ErrRevisionMismatch)
}

func TestCollectPaymentUnknownOrder(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CollectPayment(context.Background(), CollectPaymentInput{OrderID: 404, Amount: 100})
	require.ErrorIs(t, err, ErrOrderNotFound)
}

func TestMarkInvoicePaidCollectsRemainder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	input := baseInput()
	input.AdvancePaid = 250
	created, err := svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	res, err := svc.MarkInvoicePaid(ctx, created.Invoice.ID, PaymentModeUPI)
	require.NoError(t, err)
	require.Equal(t, 750.0, res.Payment.Amount)
	require.Equal(t, PaymentStatusPaid, res.Order.PaymentStatus)
	require.Equal(t, InvoiceStatusPaid, res.Invoice.Status)

	_, err = svc.MarkInvoicePaid(ctx, created.Invoice.ID, PaymentModeUPI)
	require.ErrorIs(t, err, ErrNothingPending)
}

func TestAdvanceFulfillment(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	order, err := svc.AdvanceFulfillment(ctx, created.Order.ID, FulfillmentInProgress)
	require.NoError(t, err)
	require.Equal(t, FulfillmentInProgress, order.Status)

	_, err = svc.AdvanceFulfillment(ctx, created.Order.ID, FulfillmentDelivered)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Fulfillment progress never touches money.
	require.Equal(t, created.Order.PendingAmount, order.PendingAmount)
	require.Equal(t, created.Order.PaymentStatus, order.PaymentStatus)
}

func TestAssignTailor(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	order, err := svc.AssignTailor(ctx, created.Order.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, order.TailorID)
	require.Equal(t, int64(7), *order.TailorID)
	require.Equal(t, "Ravi", *order.TailorName)

	_, err = svc.AssignTailor(ctx, created.Order.ID, 8)
	require.ErrorIs(t, err, ErrNotATailor)
}

func TestInvoiceNumbersSequencePerMonth(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	month := time.Now().Format("200601")
	require.Equal(t, fmt.Sprintf("INV-%s-0001", month), first.Invoice.Number)
	require.Equal(t, fmt.Sprintf("INV-%s-0002", month), second.Invoice.Number)
}

type memGuard struct {
	keys map[string]bool
}

func (g *memGuard) CheckAndInsert(_ context.Context, key, _ string) error {
	if g.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	g.keys[key] = true
	return nil
}

func (g *memGuard) Delete(_ context.Context, key string) error {
	delete(g.keys, key)
	return nil
}

func TestCollectPaymentIdempotentByClientRef(t *testing.T) {
	svc, repo := newTestService(t)
	svc.SetIdempotencyGuard(&memGuard{keys: map[string]bool{}})
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	_, err = svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID:   created.Order.ID,
		Amount:    400,
		Mode:      PaymentModeCash,
		ClientRef: "receipt-77",
	})
	require.NoError(t, err)

	_, err = svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID:   created.Order.ID,
		Amount:    400,
		Mode:      PaymentModeCash,
		ClientRef: "receipt-77",
	})
	require.ErrorIs(t, err, ErrDuplicateCollection)

	payments, err := repo.ListOrderPayments(ctx, created.Order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
}

func TestCollectPaymentReleasesClientRefOnFailure(t *testing.T) {
	svc, _ := newTestService(t)
	svc.SetIdempotencyGuard(&memGuard{keys: map[string]bool{}})
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, baseInput())
	require.NoError(t, err)

	_, err = svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID:   created.Order.ID,
		Amount:    5000,
		Mode:      PaymentModeCash,
		ClientRef: "receipt-78",
	})
	require.ErrorIs(t, err, ErrExceedsPending)

	res, err := svc.CollectPayment(ctx, CollectPaymentInput{
		OrderID:   created.Order.ID,
		Amount:    1000,
		Mode:      PaymentModeCash,
		ClientRef: "receipt-78",
	})
	require.NoError(t, err)
	require.Equal(t, PaymentStatusPaid, res.Order.PaymentStatus)
}
