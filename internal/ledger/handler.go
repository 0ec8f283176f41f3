package ledger

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
	"github.com/stitchdesk/stitchdesk/internal/shared"
)

// Handler manages order, payment, and invoice endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers ledger routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.listOrders)
		r.Post("/", h.createOrder)
		r.Get("/{id}", h.getOrder)
		r.Post("/{id}/payments", h.collectPayment)
		r.Post("/{id}/status", h.advanceStatus)
		r.Post("/{id}/tailor", h.assignTailor)
	})
	r.Route("/payments", func(r chi.Router) {
		r.Get("/", h.listPayments)
	})
	r.Route("/invoices", func(r chi.Router) {
		r.Get("/", h.listInvoices)
		r.Get("/{id}", h.getInvoice)
		r.Post("/{id}/pay", h.markInvoicePaid)
	})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	input, err := req.toInput()
	if err != nil {
		httpx.RespondError(w, err)
		return
	}

	res, err := h.service.CreateOrder(r.Context(), input)
	if err != nil {
		h.logger.Error("create order", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	status := http.StatusCreated
	if res.Deduplicated {
		status = http.StatusOK
	}
	httpx.JSON(w, status, createOrderResponse{
		Order:        toOrderResponse(*res.Order),
		Invoice:      toInvoiceResponse(*res.Invoice, time.Now()),
		Customer:     toCustomerTotalsResponse(*res.Customer),
		Warnings:     res.Warnings,
		Deduplicated: res.Deduplicated,
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid order id")
		return
	}
	detail, err := h.service.Detail(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	payments := make([]paymentResponse, 0, len(detail.Payments))
	for _, p := range detail.Payments {
		payments = append(payments, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, orderDetailResponse{
		Order:    toOrderResponse(*detail.Order),
		Payments: payments,
		Invoice:  toInvoiceResponse(*detail.Invoice, time.Now()),
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListOrdersRequest{}
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("payment_status"); v != "" {
		ps := PaymentStatus(v)
		req.PaymentStatus = &ps
	}
	if v := q.Get("status"); v != "" {
		fs := FulfillmentStatus(v)
		req.Status = &fs
	}
	if v := q.Get("priority"); v != "" {
		p := Priority(v)
		req.Priority = &p
	}
	if v := q.Get("tailor_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.TailorID = &id
		}
	}
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse(dateLayout, v); err == nil {
			req.DateTo = &t
		}
	}
	page, limit := pageParams(q)
	req.Limit = limit
	req.Offset = (page - 1) * limit

	orders, total, err := h.service.ListOrders(r.Context(), req)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, toOrderResponse(o))
	}
	httpx.JSON(w, http.StatusOK, listResponse[orderResponse]{
		Items:      items,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) collectPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid order id")
		return
	}
	var req collectPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	res, err := h.service.CollectPayment(r.Context(), CollectPaymentInput{
		OrderID:          id,
		Amount:           req.Amount,
		Mode:             PaymentMode(req.PaymentMode),
		Notes:            req.Notes,
		ExpectedRevision: req.ExpectedRevision,
		ClientRef:        req.ClientRef,
	})
	if err != nil {
		h.logger.Error("collect payment", slog.Any("error", err), slog.Int64("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, collectPaymentResponse{
		Order:    toOrderResponse(*res.Order),
		Payment:  toPaymentResponse(*res.Payment),
		Invoice:  toInvoiceResponse(*res.Invoice, time.Now()),
		Customer: toCustomerTotalsResponse(*res.Customer),
	})
}

func (h *Handler) advanceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid order id")
		return
	}
	var req advanceStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	order, err := h.service.AdvanceFulfillment(r.Context(), id, FulfillmentStatus(req.Status))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *Handler) assignTailor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid order id")
		return
	}
	var req assignTailorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	order, err := h.service.AssignTailor(r.Context(), id, req.WorkerID)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListPaymentsRequest{}
	if v := q.Get("order_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.OrderID = &id
		}
	}
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("mode"); v != "" {
		m := PaymentMode(v)
		req.Mode = &m
	}
	page, limit := pageParams(q)
	req.Limit = limit
	req.Offset = (page - 1) * limit

	payments, total, err := h.service.ListPayments(r.Context(), req)
	if err != nil {
		h.logger.Error("list payments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	items := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		items = append(items, toPaymentResponse(p))
	}
	httpx.JSON(w, http.StatusOK, listResponse[paymentResponse]{
		Items:      items,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := ListInvoicesRequest{}
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	if v := q.Get("status"); v != "" {
		st := InvoiceStatus(v)
		req.Status = &st
	}
	page, limit := pageParams(q)
	req.Limit = limit
	req.Offset = (page - 1) * limit

	invoices, total, err := h.service.ListInvoices(r.Context(), req)
	if err != nil {
		h.logger.Error("list invoices", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	now := time.Now()
	items := make([]invoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		items = append(items, toInvoiceResponse(inv, now))
	}
	httpx.JSON(w, http.StatusOK, listResponse[invoiceResponse]{
		Items:      items,
		Pagination: shared.NewPagination(page, limit, total),
	})
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid invoice id")
		return
	}
	invoice, err := h.service.GetInvoice(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toInvoiceResponse(*invoice, time.Now()))
}

func (h *Handler) markInvoicePaid(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid invoice id")
		return
	}
	var req markInvoicePaidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}

	res, err := h.service.MarkInvoicePaid(r.Context(), id, PaymentMode(req.PaymentMode))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, collectPaymentResponse{
		Order:    toOrderResponse(*res.Order),
		Payment:  toPaymentResponse(*res.Payment),
		Invoice:  toInvoiceResponse(*res.Invoice, time.Now()),
		Customer: toCustomerTotalsResponse(*res.Customer),
	})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func pageParams(q url.Values) (page, limit int) {
	page, _ = strconv.Atoi(q.Get("page"))
	limit, _ = strconv.Atoi(q.Get("limit"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
