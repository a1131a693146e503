package payments

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/amortization"
	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
)

// Handler exposes the payment endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the payment HTTP handler.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// MountRoutes registers the payment routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/payments", func(r chi.Router) {
		r.Post("/execute", h.execute)
		r.Get("/contracts/{contractID}", h.byContract)
		r.Get("/{paymentID}", h.get)
		r.Post("/{paymentID}/cancel", h.cancel)
	})
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request) {
	var req ExecuteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	resp, err := h.svc.Execute(r.Context(), req, operator(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) byContract(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "contractID"), 10, 64)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	responses, err := h.svc.ListByContract(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, responses)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := paymentID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid payment id")
		return
	}
	resp, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	id, err := paymentID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid payment id")
		return
	}
	resp, err := h.svc.Cancel(r.Context(), id, operator(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(w, "payment not found")
	case errors.Is(err, contracts.ErrNotFound):
		httpx.NotFound(w, "contract not found")
	case errors.Is(err, amortization.ErrEntryNotFound):
		httpx.NotFound(w, "amortization entry not found")
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrNoSelection), errors.Is(err, ErrWrongContract):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, ErrAlreadySettled), errors.Is(err, ErrAlreadyCancelled):
		httpx.Conflict(w, err.Error())
	default:
		httpx.Internal(w, err)
	}
}

func paymentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "paymentID"), 10, 64)
}

func operator(r *http.Request) string {
	if op := r.Header.Get("X-Operator"); op != "" {
		return op
	}
	return "system"
}
