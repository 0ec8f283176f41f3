package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/stitchdesk/stitchdesk/internal/customers"
	"github.com/stitchdesk/stitchdesk/internal/garments"
	"github.com/stitchdesk/stitchdesk/internal/invoicing"
	"github.com/stitchdesk/stitchdesk/internal/ledger"
	"github.com/stitchdesk/stitchdesk/internal/observability"
	"github.com/stitchdesk/stitchdesk/internal/reports"
	"github.com/stitchdesk/stitchdesk/internal/workers"
	"github.com/stitchdesk/stitchdesk/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	LedgerHandler    *ledger.Handler
	CustomersHandler *customers.Handler
	WorkersHandler   *workers.Handler
	GarmentsHandler  *garments.Handler
	ReportsHandler   *reports.Handler
	InvoicingHandler *invoicing.Handler
	JobHandler       *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router with StitchDesk defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		params.LedgerHandler.MountRoutes(r)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/workers", params.WorkersHandler.MountRoutes)
		r.Route("/garment-types", params.GarmentsHandler.MountRoutes)
		r.Route("/reports", params.ReportsHandler.MountRoutes)
		r.Route("/print/invoices", params.InvoicingHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
