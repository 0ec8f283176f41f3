package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchdesk/stitchdesk/internal/platform/db"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository builds the PostgreSQL-backed ledger repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

const orderColumns = `id, customer_id, customer_name, garments, measurements,
	total_amount, advance_paid, pending_amount, payment_mode, payment_status,
	status, priority, tailor_id, tailor_name, delivery_date, notes, client_ref,
	revision, created_at, updated_at`

func (r *repository) CreateOrder(ctx context.Context, o Order) (int64, error) {
	garments, err := json.Marshal(o.Garments)
	if err != nil {
		return 0, fmt.Errorf("marshal garments: %w", err)
	}
	measurements, err := json.Marshal(o.Measurements)
	if err != nil {
		return 0, fmt.Errorf("marshal measurements: %w", err)
	}

	const query = `
		INSERT INTO orders (
			customer_id, customer_name, garments, measurements,
			total_amount, advance_paid, pending_amount, payment_mode,
			payment_status, status, priority, tailor_id, tailor_name,
			delivery_date, notes, client_ref
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`
	var id int64
	err = r.db.QueryRow(ctx, query,
		o.CustomerID, o.CustomerName, garments, measurements,
		o.TotalAmount, o.AdvancePaid, o.PendingAmount, o.PaymentMode,
		o.PaymentStatus, o.Status, o.Priority, o.TailorID, o.TailorName,
		o.DeliveryDate, o.Notes, o.ClientRef,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrClientRefTaken
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	return r.scanOrder(r.db.QueryRow(ctx, query, id))
}

func (r *repository) GetOrderForUpdate(ctx context.Context, id int64) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1 FOR UPDATE`, orderColumns)
	return r.scanOrder(r.db.QueryRow(ctx, query, id))
}

func (r *repository) GetOrderByClientRef(ctx context.Context, ref string) (*Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE client_ref = $1`, orderColumns)
	return r.scanOrder(r.db.QueryRow(ctx, query, ref))
}

func (r *repository) scanOrder(row pgx.Row) (*Order, error) {
	var (
		o            Order
		garments     []byte
		measurements []byte
	)
	err := row.Scan(
		&o.ID, &o.CustomerID, &o.CustomerName, &garments, &measurements,
		&o.TotalAmount, &o.AdvancePaid, &o.PendingAmount, &o.PaymentMode,
		&o.PaymentStatus, &o.Status, &o.Priority, &o.TailorID, &o.TailorName,
		&o.DeliveryDate, &o.Notes, &o.ClientRef, &o.Revision,
		&o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(garments, &o.Garments); err != nil {
		return nil, fmt.Errorf("unmarshal garments: %w", err)
	}
	if err := json.Unmarshal(measurements, &o.Measurements); err != nil {
		return nil, fmt.Errorf("unmarshal measurements: %w", err)
	}
	return &o, nil
}

func (r *repository) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	appendCond := func(clause string, value interface{}) {
		conditions = append(conditions, fmt.Sprintf(clause, argPos))
		args = append(args, value)
		argPos++
	}

	if req.CustomerID != nil {
		appendCond("customer_id = $%d", *req.CustomerID)
	}
	if req.PaymentStatus != nil {
		appendCond("payment_status = $%d", *req.PaymentStatus)
	}
	if req.Status != nil {
		appendCond("status = $%d", *req.Status)
	}
	if req.Priority != nil {
		appendCond("priority = $%d", *req.Priority)
	}
	if req.TailorID != nil {
		appendCond("tailor_id = $%d", *req.TailorID)
	}
	if req.DateFrom != nil {
		appendCond("created_at >= $%d", *req.DateFrom)
	}
	if req.DateTo != nil {
		appendCond("created_at <= $%d", *req.DateTo)
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM orders %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := r.scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, *o)
	}
	return orders, total, rows.Err()
}

func (r *repository) UpdateOrderPayment(ctx context.Context, id int64, advance, pending float64, status PaymentStatus, mode PaymentMode, revision int64) error {
	const query = `
		UPDATE orders
		SET advance_paid = $1, pending_amount = $2, payment_status = $3,
		    payment_mode = $4, revision = revision + 1, updated_at = NOW()
		WHERE id = $5 AND revision = $6
	`
	tag, err := r.db.Exec(ctx, query, advance, pending, status, mode, id, revision)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRevisionMismatch
	}
	return nil
}

func (r *repository) UpdateOrderFulfillment(ctx context.Context, id int64, status FulfillmentStatus) error {
	const query = `UPDATE orders SET status = $1, revision = revision + 1, updated_at = NOW() WHERE id = $2`
	tag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (r *repository) AssignOrderTailor(ctx context.Context, id int64, tailorID int64, tailorName string) error {
	const query = `UPDATE orders SET tailor_id = $1, tailor_name = $2, revision = revision + 1, updated_at = NOW() WHERE id = $3`
	tag, err := r.db.Exec(ctx, query, tailorID, tailorName, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

const paymentColumns = `id, number, order_id, customer_id, amount, mode, paid_at, notes, created_at`

func (r *repository) InsertPayment(ctx context.Context, p Payment) (int64, error) {
	const query = `
		INSERT INTO payments (number, order_id, customer_id, amount, mode, paid_at, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, p.Number, p.OrderID, p.CustomerID, p.Amount, p.Mode, p.PaidAt, p.Notes).Scan(&id)
	return id, err
}

func (r *repository) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.OrderID != nil {
		conditions = append(conditions, fmt.Sprintf("order_id = $%d", argPos))
		args = append(args, *req.OrderID)
		argPos++
	}
	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Mode != nil {
		conditions = append(conditions, fmt.Sprintf("mode = $%d", argPos))
		args = append(args, *req.Mode)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM payments %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM payments %s ORDER BY paid_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		paymentColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	payments, err := scanPayments(rows)
	if err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

func (r *repository) ListOrderPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	query := fmt.Sprintf(`SELECT %s FROM payments WHERE order_id = $1 ORDER BY paid_at ASC, id ASC`, paymentColumns)
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func scanPayments(rows pgx.Rows) ([]Payment, error) {
	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Number, &p.OrderID, &p.CustomerID, &p.Amount, &p.Mode, &p.PaidAt, &p.Notes, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

const invoiceColumns = `id, number, order_id, customer_id, amount, status, due_at, generated_at, paid_at`

func (r *repository) CreateInvoice(ctx context.Context, inv Invoice) (int64, error) {
	const query = `
		INSERT INTO invoices (number, order_id, customer_id, amount, status, due_at, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, inv.Number, inv.OrderID, inv.CustomerID, inv.Amount, inv.Status, inv.DueAt, inv.PaidAt).Scan(&id)
	return id, err
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE id = $1`, invoiceColumns)
	return scanInvoice(r.db.QueryRow(ctx, query, id))
}

func (r *repository) GetInvoiceByOrder(ctx context.Context, orderID int64) (*Invoice, error) {
	query := fmt.Sprintf(`SELECT %s FROM invoices WHERE order_id = $1`, invoiceColumns)
	return scanInvoice(r.db.QueryRow(ctx, query, orderID))
}

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.DueAt, &inv.GeneratedAt, &inv.PaidAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM invoices %s", whereClause)
	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM invoices %s ORDER BY generated_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		invoiceColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var inv Invoice
		if err := rows.Scan(&inv.ID, &inv.Number, &inv.OrderID, &inv.CustomerID, &inv.Amount, &inv.Status, &inv.DueAt, &inv.GeneratedAt, &inv.PaidAt); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, total, rows.Err()
}

func (r *repository) MarkInvoicePaid(ctx context.Context, orderID int64, paidAt time.Time) error {
	const query = `UPDATE invoices SET status = 'paid', paid_at = $1 WHERE order_id = $2 AND status <> 'paid'`
	_, err := r.db.Exec(ctx, query, paidAt, orderID)
	return err
}

func (r *repository) NextInvoiceNumber(ctx context.Context, at time.Time) (string, error) {
	// INV-{YYYYMM}-{SEQ}, sequence scoped to the calendar month. The upsert
	// serializes concurrent allocations on the period row, so two orders
	// created in the same instant still draw distinct numbers.
	period := at.Format("200601")
	var seq int64
	err := r.db.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, period, seq)
		VALUES ($1, $2, 1)
		ON CONFLICT (doc_type, period)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, "INV", period).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%s-%04d", period, seq), nil
}

func (r *repository) CustomerRef(ctx context.Context, id int64) (*CustomerRef, error) {
	var ref CustomerRef
	err := r.db.QueryRow(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&ref.ID, &ref.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *repository) TailorRef(ctx context.Context, workerID int64) (*TailorRef, error) {
	var ref TailorRef
	err := r.db.QueryRow(ctx, `SELECT id, name, role, is_active FROM workers WHERE id = $1`, workerID).
		Scan(&ref.ID, &ref.Name, &ref.Role, &ref.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrWorkerNotFound
		}
		return nil, err
	}
	return &ref, nil
}

func (r *repository) ApplyCustomerTotals(ctx context.Context, customerID int64, orders int64, paid, pending float64) error {
	const query = `
		UPDATE customers
		SET total_orders = total_orders + $1,
		    total_paid = total_paid + $2,
		    total_pending = GREATEST(0, total_pending + $3),
		    updated_at = NOW()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, orders, paid, pending, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

func (r *repository) CustomerTotals(ctx context.Context, customerID int64) (*CustomerTotals, error) {
	var totals CustomerTotals
	err := r.db.QueryRow(ctx, `SELECT id, total_orders, total_paid, total_pending FROM customers WHERE id = $1`, customerID).
		Scan(&totals.CustomerID, &totals.TotalOrders, &totals.TotalPaid, &totals.TotalPending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, err
	}
	return &totals, nil
}
