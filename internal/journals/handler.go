package journals

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
)

// Handler exposes the journal endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the journal HTTP handler.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// MountRoutes registers the journal routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/journals", func(r chi.Router) {
		r.Post("/preview", h.preview)
		r.Get("/contract/{contractID}", h.byContract)
	})
}

func (h *Handler) preview(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	lines, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": lines})
}

func (h *Handler) byContract(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contractID"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	lines, err := h.svc.ListByContract(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": lines})
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	if errors.Is(err, contracts.ErrNotFound) {
		httpx.NotFound(w, "contract not found")
		return
	}
	httpx.Internal(w, err)
}
