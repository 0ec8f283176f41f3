package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IntegrityReport summarises what the nightly scan found. The scan only
// reports drift; repairs are a manual decision.
type IntegrityReport struct {
	CustomersChecked int64
	CustomerDrift    int64
	OrderDrift       int64
	InvoiceDrift     int64
}

// Clean reports whether the scan found nothing wrong.
func (r IntegrityReport) Clean() bool {
	return r.CustomerDrift == 0 && r.OrderDrift == 0 && r.InvoiceDrift == 0
}

// IntegrityScanner cross-checks stored aggregates against the sums derivable
// from the underlying order and payment rows.
type IntegrityScanner struct {
	db     *pgxpool.Pool
	logger *slog.Logger
}

// NewIntegrityScanner builds the scanner.
func NewIntegrityScanner(db *pgxpool.Pool, logger *slog.Logger) *IntegrityScanner {
	return &IntegrityScanner{db: db, logger: logger}
}

// Handle adapts the scanner to an Asynq task handler.
func (s *IntegrityScanner) Handle(ctx context.Context, _ *asynq.Task) error {
	_, err := s.Run(ctx)
	return err
}

// Run executes the full scan and logs every drifting record.
func (s *IntegrityScanner) Run(ctx context.Context) (IntegrityReport, error) {
	var report IntegrityReport

	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`).Scan(&report.CustomersChecked); err != nil {
		return report, err
	}

	// Stored customer aggregates vs sums over their orders and payments.
	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.total_orders, COALESCE(o.cnt, 0), c.total_paid, COALESCE(p.paid, 0), c.total_pending, COALESCE(o.pending, 0)
		FROM customers c
		LEFT JOIN (
			SELECT customer_id, COUNT(*) AS cnt, SUM(pending_amount) AS pending
			FROM orders GROUP BY customer_id
		) o ON o.customer_id = c.id
		LEFT JOIN (
			SELECT customer_id, SUM(amount) AS paid
			FROM payments GROUP BY customer_id
		) p ON p.customer_id = c.id
		WHERE c.total_orders <> COALESCE(o.cnt, 0)
		   OR abs(c.total_paid - COALESCE(p.paid, 0)) > 0.005
		   OR abs(c.total_pending - COALESCE(o.pending, 0)) > 0.005`)
	if err != nil {
		return report, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			id                                 int64
			storedOrders, derivedOrders        int64
			storedPaid, derivedPaid            float64
			storedPending, derivedPending      float64
		)
		if err := rows.Scan(&id, &storedOrders, &derivedOrders, &storedPaid, &derivedPaid, &storedPending, &derivedPending); err != nil {
			return report, err
		}
		report.CustomerDrift++
		s.logger.Warn("customer aggregate drift",
			slog.Int64("customer_id", id),
			slog.Int64("stored_orders", storedOrders), slog.Int64("derived_orders", derivedOrders),
			slog.Float64("stored_paid", storedPaid), slog.Float64("derived_paid", derivedPaid),
			slog.Float64("stored_pending", storedPending), slog.Float64("derived_pending", derivedPending))
	}
	if err := rows.Err(); err != nil {
		return report, err
	}

	// Orders whose stored triple disagrees with the derivation formulas.
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM orders
		WHERE abs(pending_amount - GREATEST(0, total_amount - advance_paid)) > 0.005
		   OR payment_status <> CASE
				WHEN advance_paid >= total_amount THEN 'paid'
				WHEN advance_paid > 0 THEN 'partial'
				ELSE 'unpaid' END`).Scan(&report.OrderDrift)
	if err != nil {
		return report, err
	}
	if report.OrderDrift > 0 {
		s.logger.Warn("order monetary drift", slog.Int64("orders", report.OrderDrift))
	}

	// Invoices whose paid flag disagrees with the order balance.
	err = s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM invoices i
		JOIN orders o ON o.id = i.order_id
		WHERE (i.status = 'paid') <> (o.pending_amount <= 0.005)`).Scan(&report.InvoiceDrift)
	if err != nil {
		return report, err
	}
	if report.InvoiceDrift > 0 {
		s.logger.Warn("invoice status drift", slog.Int64("invoices", report.InvoiceDrift))
	}

	if report.Clean() {
		s.logger.Info("ledger integrity scan clean", slog.Int64("customers", report.CustomersChecked))
	}
	return report, nil
}
