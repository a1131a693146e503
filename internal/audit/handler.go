package audit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meridian-fin/meridian/internal/platform/httpx"
	"github.com/meridian-fin/meridian/internal/shared"
)

// Handler exposes the audit trail.
type Handler struct {
	repo Repository
}

// NewHandler builds the audit HTTP handler.
func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

// MountRoutes registers the audit routes on the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/audit-logs", h.list)
}

type logResponse struct {
	ID       int64          `json:"id"`
	Operator string         `json:"operator"`
	Action   string         `json:"action"`
	Entity   string         `json:"entity"`
	EntityID int64          `json:"entityId"`
	Meta     map[string]any `json:"meta,omitempty"`
	At       time.Time      `json:"occurredAt"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := Filter{
		Entity:   q.Get("entity"),
		Operator: q.Get("operator"),
	}
	if raw := q.Get("entryId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.BadRequest(w, "invalid entryId")
			return
		}
		filter.EntityID = id
	}

	page, size := shared.PageFromRequest(r)
	p := shared.NewPagination(page, size, 0)
	logs, total, err := h.repo.List(r.Context(), filter, p.Offset(), p.PerPage)
	if err != nil {
		httpx.Internal(w, err)
		return
	}

	items := make([]logResponse, 0, len(logs))
	for _, l := range logs {
		items = append(items, logResponse{
			ID:       l.ID,
			Operator: l.Operator,
			Action:   l.Action,
			Entity:   l.Entity,
			EntityID: l.EntityID,
			Meta:     l.Meta,
			At:       l.At,
		})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items":      items,
		"pagination": shared.NewPagination(page, size, total),
	})
}
