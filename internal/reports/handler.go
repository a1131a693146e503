package reports

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
)

// Handler exposes the report endpoints.
type Handler struct {
	svc *Service
}

// NewHandler builds the reports HTTP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// MountRoutes registers the report routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.Get("/dashboard", h.dashboard)
		r.Get("/vendor-distribution", h.vendorDistribution)
		r.Get("/amortization/export", h.exportCSV)
	})
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Dashboard(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, d)
}

func (h *Handler) vendorDistribution(w http.ResponseWriter, r *http.Request) {
	shares, err := h.svc.VendorDistribution(r.Context())
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, shares)
}

func (h *Handler) exportCSV(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("amortization-%s.csv", h.svc.now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.svc.ExportAmortizationCSV(r.Context(), w); err != nil {
		// Headers are already out; log-and-truncate is all that is left.
		h.svc.logger.Error("csv export failed", slog.String("error", err.Error()))
	}
}
