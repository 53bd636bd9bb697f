package dashboard

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/transport"
)

type DashboardService interface {
	Summary(ctx context.Context, actor *auth.Principal) (*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	service DashboardService
}

func NewHandler(service DashboardService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// Summary godoc
// @Summary Dashboard summary
// @Description Aggregate tiles; each tile appears only with the matching permission
// @Tags dashboard
// @Produce json
// @Success 200 {object} Summary
// @Router /api/v1/dashboard [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	summary, err := h.service.Summary(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, summary)
}
