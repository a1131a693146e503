package amortization

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/contracts"
	"github.com/meridian-fin/meridian/internal/platform/httpx"
)

// Handler exposes the amortization endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the amortization HTTP handler.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// MountRoutes registers the amortization routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/amortization/calculate/{contractID}", h.calculate)
	r.Route("/amortization-entries", func(r chi.Router) {
		r.Get("/contract/{contractID}", h.byContract)
		r.Post("/operate", h.operate)
	})
}

func (h *Handler) calculate(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	entries, err := h.svc.Calculate(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(entries))
}

func (h *Handler) byContract(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	c, entries, err := h.svc.GetWithContract(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"contractId":  c.ID,
		"vendorName":  c.VendorName,
		"totalAmount": c.TotalAmount,
		"entries":     toResponses(entries),
	})
}

func (h *Handler) operate(w http.ResponseWriter, r *http.Request) {
	var req OperateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	entries, err := h.svc.Operate(r.Context(), req, operator(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponses(entries))
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		httpx.NotFound(w, "contract not found")
	case errors.Is(err, ErrEntryNotFound):
		httpx.NotFound(w, "amortization entry not found")
	case errors.Is(err, ErrInvalidRange), errors.Is(err, ErrInvalidAmount):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, ErrEntrySettled):
		httpx.Conflict(w, err.Error())
	default:
		httpx.Internal(w, err)
	}
}

func contractID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "contractID"), 10, 64)
}

func operator(r *http.Request) string {
	if op := r.Header.Get("X-Operator"); op != "" {
		return op
	}
	return "system"
}
