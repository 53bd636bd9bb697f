package audit

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/transport"
)

type AuditService interface {
	List(ctx context.Context, actor *auth.Principal, limit int) ([]Entry, error)
}

type Handler struct {
	*transport.BaseHandler
	service AuditService
}

func NewHandler(service AuditService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// List godoc
// @Summary List audit entries
// @Description List recent audit entries, newest first. Admin only.
// @Tags audit
// @Produce json
// @Param limit query int false "Maximum entries to return"
// @Success 200 {array} Entry
// @Router /api/v1/audit [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.service.List(r.Context(), actor, limit)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, entries)
}
