package ledger

import (
	"time"

	"github.com/stitchdesk/stitchdesk/internal/shared"
)

const dateLayout = "2006-01-02"

type garmentPayload struct {
	GarmentType string            `json:"garment_type" validate:"required"`
	Subtypes    map[string]string `json:"subtypes"`
	Quantity    int               `json:"quantity" validate:"required,gt=0"`
	Notes       string            `json:"notes"`
}

type createOrderRequest struct {
	CustomerID   int64              `json:"customer_id" validate:"required,gt=0"`
	Garments     []garmentPayload   `json:"garments" validate:"required,min=1,dive"`
	Measurements map[string]float64 `json:"measurements"`
	TotalAmount  float64            `json:"total_amount" validate:"required,gt=0"`
	AdvancePaid  float64            `json:"advance_paid" validate:"gte=0"`
	PaymentMode  string             `json:"payment_mode"`
	DeliveryDate string             `json:"delivery_date" validate:"required"`
	Priority     string             `json:"priority"`
	TailorID     *int64             `json:"tailor_id"`
	Notes        *string            `json:"notes"`
	ClientRef    string             `json:"client_ref"`
}

type collectPaymentRequest struct {
	Amount           float64 `json:"amount" validate:"required,gt=0"`
	PaymentMode      string  `json:"payment_mode"`
	Notes            *string `json:"notes"`
	ExpectedRevision *int64  `json:"expected_revision"`
	ClientRef        string  `json:"client_ref" validate:"omitempty,max=128"`
}

type advanceStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type assignTailorRequest struct {
	WorkerID int64 `json:"worker_id" validate:"required,gt=0"`
}

type markInvoicePaidRequest struct {
	PaymentMode string `json:"payment_mode"`
}

type orderResponse struct {
	ID            int64              `json:"id"`
	CustomerID    int64              `json:"customer_id"`
	CustomerName  string             `json:"customer_name"`
	Garments      []OrderGarment     `json:"garments"`
	Measurements  map[string]float64 `json:"measurements,omitempty"`
	TotalAmount   float64            `json:"total_amount"`
	AdvancePaid   float64            `json:"advance_paid"`
	PendingAmount float64            `json:"pending_amount"`
	PaymentMode   string             `json:"payment_mode"`
	PaymentStatus string             `json:"payment_status"`
	Status        string             `json:"status"`
	Priority      string             `json:"priority"`
	TailorID      *int64             `json:"tailor_id,omitempty"`
	TailorName    *string            `json:"tailor_name,omitempty"`
	DeliveryDate  string             `json:"delivery_date"`
	Notes         *string            `json:"notes,omitempty"`
	Revision      int64              `json:"revision"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

type paymentResponse struct {
	ID         int64     `json:"id"`
	Number     string    `json:"number"`
	OrderID    int64     `json:"order_id"`
	CustomerID int64     `json:"customer_id"`
	Amount     float64   `json:"amount"`
	Mode       string    `json:"mode"`
	PaidAt     time.Time `json:"paid_at"`
	Notes      *string   `json:"notes,omitempty"`
}

type invoiceResponse struct {
	ID          int64      `json:"id"`
	Number      string     `json:"number"`
	OrderID     int64      `json:"order_id"`
	CustomerID  int64      `json:"customer_id"`
	Amount      float64    `json:"amount"`
	Status      string     `json:"status"`
	DueAt       string     `json:"due_at"`
	GeneratedAt time.Time  `json:"generated_at"`
	PaidAt      *time.Time `json:"paid_at,omitempty"`
}

type customerTotalsResponse struct {
	CustomerID   int64   `json:"customer_id"`
	TotalOrders  int64   `json:"total_orders"`
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
}

type createOrderResponse struct {
	Order        orderResponse          `json:"order"`
	Invoice      invoiceResponse        `json:"invoice"`
	Customer     customerTotalsResponse `json:"customer"`
	Warnings     []string               `json:"warnings,omitempty"`
	Deduplicated bool                   `json:"deduplicated"`
}

type collectPaymentResponse struct {
	Order    orderResponse          `json:"order"`
	Payment  paymentResponse        `json:"payment"`
	Invoice  invoiceResponse        `json:"invoice"`
	Customer customerTotalsResponse `json:"customer"`
}

type orderDetailResponse struct {
	Order    orderResponse     `json:"order"`
	Payments []paymentResponse `json:"payments"`
	Invoice  invoiceResponse   `json:"invoice"`
}

type listResponse[T any] struct {
	Items      []T               `json:"items"`
	Pagination shared.Pagination `json:"pagination"`
}

func toOrderResponse(o Order) orderResponse {
	return orderResponse{
		ID:            o.ID,
		CustomerID:    o.CustomerID,
		CustomerName:  o.CustomerName,
		Garments:      o.Garments,
		Measurements:  o.Measurements,
		TotalAmount:   o.TotalAmount,
		AdvancePaid:   o.AdvancePaid,
		PendingAmount: o.PendingAmount,
		PaymentMode:   string(o.PaymentMode),
		PaymentStatus: string(o.PaymentStatus),
		Status:        string(o.Status),
		Priority:      string(o.Priority),
		TailorID:      o.TailorID,
		TailorName:    o.TailorName,
		DeliveryDate:  o.DeliveryDate.Format(dateLayout),
		Notes:         o.Notes,
		Revision:      o.Revision,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func toPaymentResponse(p Payment) paymentResponse {
	return paymentResponse{
		ID:         p.ID,
		Number:     p.Number,
		OrderID:    p.OrderID,
		CustomerID: p.CustomerID,
		Amount:     p.Amount,
		Mode:       string(p.Mode),
		PaidAt:     p.PaidAt,
		Notes:      p.Notes,
	}
}

func toInvoiceResponse(i Invoice, now time.Time) invoiceResponse {
	return invoiceResponse{
		ID:          i.ID,
		Number:      i.Number,
		OrderID:     i.OrderID,
		CustomerID:  i.CustomerID,
		Amount:      i.Amount,
		Status:      i.DisplayState(now),
		DueAt:       i.DueAt.Format(dateLayout),
		GeneratedAt: i.GeneratedAt,
		PaidAt:      i.PaidAt,
	}
}

func toCustomerTotalsResponse(t CustomerTotals) customerTotalsResponse {
	return customerTotalsResponse{
		CustomerID:   t.CustomerID,
		TotalOrders:  t.TotalOrders,
		TotalPaid:    t.TotalPaid,
		TotalPending: t.TotalPending,
	}
}

func (r createOrderRequest) toInput() (CreateOrderInput, error) {
	delivery, err := time.Parse(dateLayout, r.DeliveryDate)
	if err != nil {
		return CreateOrderInput{}, ErrMissingDelivery
	}
	garments := make([]OrderGarment, 0, len(r.Garments))
	for _, g := range r.Garments {
		garments = append(garments, OrderGarment{
			GarmentType: g.GarmentType,
			Subtypes:    g.Subtypes,
			Quantity:    g.Quantity,
			Notes:       g.Notes,
		})
	}
	return CreateOrderInput{
		CustomerID:   r.CustomerID,
		Garments:     garments,
		Measurements: r.Measurements,
		TotalAmount:  r.TotalAmount,
		AdvancePaid:  r.AdvancePaid,
		PaymentMode:  PaymentMode(r.PaymentMode),
		DeliveryDate: delivery,
		Priority:     Priority(r.Priority),
		TailorID:     r.TailorID,
		Notes:        r.Notes,
		ClientRef:    r.ClientRef,
	}, nil
}
