package invoicing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stitchdesk/stitchdesk/internal/ledger"
)

func TestRenderInvoiceHTML(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	detail := &ledger.OrderDetail{
		Order: &ledger.Order{
			ID:            1,
			CustomerName:  "Asha Verma",
			Garments:      []ledger.OrderGarment{{GarmentType: "shirt", Quantity: 2}},
			TotalAmount:   12500,
			AdvancePaid:   5000,
			PendingAmount: 7500,
		},
		Invoice: &ledger.Invoice{
			Number:      "INV-202608-0007",
			Status:      ledger.InvoiceStatusPending,
			DueAt:       now.AddDate(0, 0, 10),
			GeneratedAt: now,
		},
		Payments: []ledger.Payment{
			{Number: "PAY-ab12cd34", Amount: 5000, Mode: ledger.PaymentModeUPI, PaidAt: now},
		},
	}

	html, err := renderInvoiceHTML("Nair Tailors", detail, now)
	require.NoError(t, err)

	require.Contains(t, html, "Nair Tailors")
	require.Contains(t, html, "INV-202608-0007")
	require.Contains(t, html, "Asha Verma")
	require.Contains(t, html, "PAY-ab12cd34")
	// Grouped amount formatting.
	require.Contains(t, html, "₹12,500.00")
	require.Contains(t, html, "₹7,500.00")
}

func TestRenderInvoiceHTMLOverdue(t *testing.T) {
	now := time.Date(2026, 8, 20, 10, 0, 0, 0, time.UTC)
	detail := &ledger.OrderDetail{
		Order: &ledger.Order{CustomerName: "Asha"},
		Invoice: &ledger.Invoice{
			Number:      "INV-202607-0001",
			Status:      ledger.InvoiceStatusPending,
			DueAt:       now.AddDate(0, 0, -5),
			GeneratedAt: now.AddDate(0, -1, 0),
		},
	}

	html, err := renderInvoiceHTML("", detail, now)
	require.NoError(t, err)
	require.True(t, strings.Contains(html, "overdue"))
}
