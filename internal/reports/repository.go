package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// KPISummary contains the headline numbers on the shop dashboard.
type KPISummary struct {
	OrdersToday      int64   `json:"orders_today"`
	ActiveOrders     int64   `json:"active_orders"`
	RevenueThisMonth float64 `json:"revenue_this_month"`
	OutstandingTotal float64 `json:"outstanding_total"`
	OverdueInvoices  int64   `json:"overdue_invoices"`
	DueThisWeek      int64   `json:"due_this_week"`
}

// StatusCount is one slice of the orders-by-status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// RevenuePoint is one bucket of the revenue series.
type RevenuePoint struct {
	Period    string  `json:"period"`
	Collected float64 `json:"collected"`
	Orders    int64   `json:"orders"`
}

// TopCustomer is one row of the best-customers table.
type TopCustomer struct {
	CustomerID   int64   `json:"customer_id"`
	Name         string  `json:"name"`
	TotalOrders  int64   `json:"total_orders"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
}

// Repository exposes the aggregate queries the report screens rely on. All
// numbers are derived from the ledger tables on read.
type Repository interface {
	KPISummary(ctx context.Context, asOf time.Time) (KPISummary, error)
	OrdersByStatus(ctx context.Context) ([]StatusCount, error)
	RevenueSeries(ctx context.Context, from, to time.Time, byMonth bool) ([]RevenuePoint, error)
	TopCustomers(ctx context.Context, limit int) ([]TopCustomer, error)
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

func (r *repository) KPISummary(ctx context.Context, asOf time.Time) (KPISummary, error) {
	var s KPISummary
	dayStart := time.Date(asOf.Year(), asOf.Month(), asOf.Day(), 0, 0, 0, 0, asOf.Location())
	monthStart := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, asOf.Location())
	weekEnd := dayStart.AddDate(0, 0, 7)

	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM orders WHERE created_at >= $1),
			(SELECT COUNT(*) FROM orders WHERE status IN ('pending', 'in_progress')),
			(SELECT COALESCE(SUM(amount), 0) FROM payments WHERE paid_at >= $2),
			(SELECT COALESCE(SUM(pending_amount), 0) FROM orders),
			(SELECT COUNT(*) FROM invoices WHERE status = 'pending' AND due_at < $3),
			(SELECT COUNT(*) FROM orders WHERE status NOT IN ('delivered') AND delivery_date >= $1 AND delivery_date < $4)`,
		dayStart, monthStart, asOf, weekEnd).
		Scan(&s.OrdersToday, &s.ActiveOrders, &s.RevenueThisMonth, &s.OutstandingTotal, &s.OverdueInvoices, &s.DueThisWeek)
	return s, err
}

func (r *repository) OrdersByStatus(ctx context.Context) ([]StatusCount, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, sc)
	}
	return counts, rows.Err()
}

func (r *repository) RevenueSeries(ctx context.Context, from, to time.Time, byMonth bool) ([]RevenuePoint, error) {
	format := "YYYY-MM-DD"
	if byMonth {
		format = "YYYY-MM"
	}
	rows, err := r.db.Query(ctx, `
		SELECT to_char(paid_at, $1), COALESCE(SUM(amount), 0), COUNT(DISTINCT order_id)
		FROM payments
		WHERE paid_at >= $2 AND paid_at < $3
		GROUP BY 1 ORDER BY 1`, format, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RevenuePoint
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Period, &p.Collected, &p.Orders); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func (r *repository) TopCustomers(ctx context.Context, limit int) ([]TopCustomer, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, name, total_orders, total_paid, total_pending
		FROM customers
		ORDER BY total_paid DESC, total_orders DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []TopCustomer
	for rows.Next() {
		var tc TopCustomer
		if err := rows.Scan(&tc.CustomerID, &tc.Name, &tc.TotalOrders, &tc.TotalPaid, &tc.TotalPending); err != nil {
			return nil, err
		}
		customers = append(customers, tc)
	}
	return customers, rows.Err()
}
