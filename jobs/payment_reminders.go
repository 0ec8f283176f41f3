package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReminderEnqueuer is the slice of the jobs client the reminder scan needs.
type ReminderEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload SendEmailPayload) (*asynq.TaskInfo, error)
}

// PaymentReminder finds overdue invoices and queues one reminder mail per
// customer with an email address on file.
type PaymentReminder struct {
	db     *pgxpool.Pool
	client ReminderEnqueuer
	logger *slog.Logger
}

// NewPaymentReminder builds the reminder scan.
func NewPaymentReminder(db *pgxpool.Pool, client ReminderEnqueuer, logger *slog.Logger) *PaymentReminder {
	return &PaymentReminder{db: db, client: client, logger: logger}
}

// Handle adapts the scan to an Asynq task handler.
func (p *PaymentReminder) Handle(ctx context.Context, _ *asynq.Task) error {
	rows, err := p.db.Query(ctx, `
		SELECT c.name, c.email, COUNT(*), COALESCE(SUM(o.pending_amount), 0)
		FROM invoices i
		JOIN orders o ON o.id = i.order_id
		JOIN customers c ON c.id = i.customer_id
		WHERE i.status = 'pending' AND i.due_at < NOW() AND c.email <> ''
		GROUP BY c.id, c.name, c.email`)
	if err != nil {
		return err
	}
	defer rows.Close()

	queued := 0
	for rows.Next() {
		var (
			name, email string
			invoices    int64
			pending     float64
		)
		if err := rows.Scan(&name, &email, &invoices, &pending); err != nil {
			return err
		}
		_, err := p.client.EnqueueSendEmail(ctx, SendEmailPayload{
			To:      email,
			Subject: "Payment reminder from your tailor",
			Body: fmt.Sprintf("Dear %s, you have %d overdue invoice(s) with a balance of %.2f. Please visit the shop to settle.",
				name, invoices, pending),
		})
		if err != nil {
			return err
		}
		queued++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	p.logger.Info("payment reminders queued", slog.Int("customers", queued))
	return nil
}
