package reports

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
)

// Handler manages report endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.Dashboard)
	r.Get("/revenue", h.Revenue)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dash, err := h.service.GetDashboard(r.Context(), time.Now())
	if err != nil {
		h.logger.Error("build dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dash)
}

func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	now := time.Now()
	from := now.AddDate(0, -1, 0)
	to := now
	if v := q.Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := q.Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t.AddDate(0, 0, 1)
		}
	}
	if !from.Before(to) {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "from must be before to")
		return
	}

	points, err := h.service.GetRevenue(r.Context(), from, to, q.Get("interval") == "month")
	if err != nil {
		h.logger.Error("build revenue report", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if points == nil {
		points = []RevenuePoint{}
	}
	httpx.JSON(w, http.StatusOK, points)
}
