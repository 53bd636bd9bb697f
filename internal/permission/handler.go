package permission

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/shiftwise/shift-manager/internal/transport"
)

type PermissionService interface {
	Resolve(role string) (Resolution, error)
	SetRolePermissions(role string, set Set) error
}

type Handler struct {
	*transport.BaseHandler
	service PermissionService
}

func NewHandler(service PermissionService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// ListRoles godoc
// @Summary List roles with their permission sets
// @Tags permissions
// @Produce json
// @Success 200 {array} Resolution
// @Router /api/v1/roles [get]
func (h *Handler) ListRoles(w http.ResponseWriter, r *http.Request) {
	resolutions := make([]Resolution, 0, len(KnownRoles()))
	for _, role := range KnownRoles() {
		if role == RoleAccountAdmin {
			continue
		}
		resolution, err := h.service.Resolve(role)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}
		resolutions = append(resolutions, resolution)
	}
	h.WriteJSON(w, http.StatusOK, resolutions)
}

// GetRole godoc
// @Summary Get one role's permission set
// @Tags permissions
// @Produce json
// @Param role path string true "Role name"
// @Success 200 {object} Resolution
// @Router /api/v1/roles/{role} [get]
func (h *Handler) GetRole(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	resolution, err := h.service.Resolve(role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resolution)
}

// SetRole godoc
// @Summary Replace a role's permission set
// @Description Store the full permission set for a non-admin role
// @Tags permissions
// @Accept json
// @Produce json
// @Param role path string true "Role name"
// @Param request body Set true "Permission set"
// @Success 200 {object} Resolution
// @Failure 400 {object} internal.Response
// @Router /api/v1/roles/{role} [put]
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")

	var set Set
	if err := json.NewDecoder(r.Body).Decode(&set); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.SetRolePermissions(role, set); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resolution, err := h.service.Resolve(role)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, resolution)
}
