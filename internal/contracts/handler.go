package contracts

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/shared"
)

const maxUploadBytes = 20 << 20

// Handler exposes the contract endpoints.
type Handler struct {
	svc      *Service
	validate *validator.Validate
}

// NewHandler builds the contract HTTP handler.
func NewHandler(svc *Service, validate *validator.Validate) *Handler {
	return &Handler{svc: svc, validate: validate}
}

// MountRoutes registers the contract routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/contracts", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/list", h.list)
		r.Post("/upload", h.upload)
		r.Post("/parse", h.parse)
		r.Get("/{contractID}", h.get)
		r.Put("/{contractID}", h.update)
		r.Put("/{contractID}/status", h.updateStatus)
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, size := shared.PageFromRequest(r)
	items, pagination, err := h.svc.List(r.Context(), page, size)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      toResponses(items),
		"pagination": pagination,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	c, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	c, err := h.svc.Upload(r.Context(), filename, data, operator(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toResponse(c))
}

func (h *Handler) parse(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := h.readUpload(w, r)
	if !ok {
		return
	}
	result, err := h.svc.Parse(r.Context(), filename, data)
	if err != nil {
		httpx.Internal(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	var req UpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	c, err := h.svc.Update(r.Context(), id, req, operator(r))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toResponse(c))
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := contractID(r)
	if err != nil {
		httpx.BadRequest(w, "invalid contract id")
		return
	}
	var req StatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.BadRequest(w, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	status, err := ParseStatus(req.Status)
	if err != nil {
		httpx.BadRequest(w, err.Error())
		return
	}
	if err := h.svc.UpdateStatus(r.Context(), id, status, operator(r)); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": string(status)})
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpx.BadRequest(w, "invalid multipart form")
		return "", nil, false
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.BadRequest(w, "missing file field")
		return "", nil, false
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		httpx.Internal(w, err)
		return "", nil, false
	}
	return header.Filename, data, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.NotFound(w, "contract not found")
	case errors.Is(err, ErrInvalidDates), errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrInvalidStatus):
		httpx.BadRequest(w, err.Error())
	case errors.Is(err, ErrScheduleSettled):
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
