package invoicing

import (
	"context"
	"fmt"
	"time"

	"github.com/stitchdesk/stitchdesk/internal/ledger"
)

// LedgerReader is the slice of the ledger this package reads from.
type LedgerReader interface {
	GetInvoice(ctx context.Context, id int64) (*ledger.Invoice, error)
	Detail(ctx context.Context, orderID int64) (*ledger.OrderDetail, error)
}

// Service renders printable invoices.
type Service struct {
	ledger   LedgerReader
	pdf      *PDFClient
	shopName string
}

// NewService builds the invoice renderer. pdf may be nil when no Gotenberg
// instance is configured; HTML rendering still works.
func NewService(reader LedgerReader, pdf *PDFClient, shopName string) *Service {
	if shopName == "" {
		shopName = "StitchDesk"
	}
	return &Service{ledger: reader, pdf: pdf, shopName: shopName}
}

// RenderHTML returns the printable HTML for one invoice.
func (s *Service) RenderHTML(ctx context.Context, invoiceID int64) (string, error) {
	invoice, err := s.ledger.GetInvoice(ctx, invoiceID)
	if err != nil {
		return "", err
	}
	detail, err := s.ledger.Detail(ctx, invoice.OrderID)
	if err != nil {
		return "", err
	}
	return renderInvoiceHTML(s.shopName, detail, time.Now())
}

// RenderPDF converts the invoice HTML into a PDF via Gotenberg.
func (s *Service) RenderPDF(ctx context.Context, invoiceID int64) ([]byte, error) {
	if s.pdf == nil {
		return nil, fmt.Errorf("pdf rendering not configured")
	}
	html, err := s.RenderHTML(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	return s.pdf.RenderHTML(ctx, html)
}
