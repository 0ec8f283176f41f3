package garments

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stitchdesk/stitchdesk/internal/platform/httpx"
)

// Handler manages garment catalog endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Show)
	r.Put("/{id}", h.Update)
	r.Post("/{id}/retire", h.Retire)
	r.Post("/{id}/restore", h.Restore)
	r.Get("/{id}/subtypes", h.ListSubtypes)
	r.Post("/{id}/subtypes", h.CreateSubtype)
	r.Delete("/subtypes/{id}", h.DeleteSubtype)
}

type typeForm struct {
	Name         string   `json:"name"`
	BasePrice    float64  `json:"base_price"`
	Measurements []string `json:"measurements"`
}

type subtypeForm struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	types, err := h.service.List(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.logger.Error("list garment types", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if types == nil {
		types = []GarmentType{}
	}
	httpx.JSON(w, http.StatusOK, types)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid garment type id")
		return
	}
	gt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gt)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var form typeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	gt, err := h.service.Create(r.Context(), GarmentType{
		Name:         form.Name,
		BasePrice:    form.BasePrice,
		Measurements: form.Measurements,
	})
	if err != nil {
		h.logger.Error("create garment type", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, gt)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid garment type id")
		return
	}
	var form typeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	if err := h.service.Update(r.Context(), id, GarmentType{
		Name:         form.Name,
		BasePrice:    form.BasePrice,
		Measurements: form.Measurements,
	}); err != nil {
		httpx.RespondError(w, err)
		return
	}
	gt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gt)
}

func (h *Handler) Retire(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Retire)
}

func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, h.service.Restore)
}

func (h *Handler) ListSubtypes(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid garment type id")
		return
	}
	subtypes, err := h.service.ListSubtypes(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if subtypes == nil {
		subtypes = []Subtype{}
	}
	httpx.JSON(w, http.StatusOK, subtypes)
}

func (h *Handler) CreateSubtype(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid garment type id")
		return
	}
	var form subtypeForm
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "malformed JSON body")
		return
	}
	st, err := h.service.CreateSubtype(r.Context(), Subtype{
		GarmentTypeID: id,
		Name:          form.Name,
		Options:       form.Options,
	})
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, st)
}

func (h *Handler) DeleteSubtype(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid subtype id")
		return
	}
	if err := h.service.DeleteSubtype(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request, op func(context.Context, int64) error) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid request", "invalid garment type id")
		return
	}
	if err := op(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	gt, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, gt)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
