package team

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/transport"
)

type TeamService interface {
	ListDepartments(ctx context.Context, actor *auth.Principal) ([]Department, error)
	CreateDepartment(ctx context.Context, actor *auth.Principal, dto CreateDepartmentDTO) (*Department, error)
	DeleteDepartment(ctx context.Context, actor *auth.Principal, departmentID int64) error

	ListJobRoles(ctx context.Context, actor *auth.Principal) ([]JobRole, error)
	CreateJobRole(ctx context.Context, actor *auth.Principal, dto CreateJobRoleDTO) (*JobRole, error)
	SetJobRoleMembers(ctx context.Context, actor *auth.Principal, jobRoleID int64, leaderIDs, agentIDs []int64) (*JobRole, error)
	DeleteJobRole(ctx context.Context, actor *auth.Principal, jobRoleID int64) error

	ListRoster(ctx context.Context, actor *auth.Principal, leaderID int64) ([]RosterEntry, error)
	AssignAgentToLeader(ctx context.Context, actor *auth.Principal, leaderID, agentID int64) error
	UnassignAgentFromLeader(ctx context.Context, actor *auth.Principal, leaderID, agentID int64) error
}

type Handler struct {
	*transport.BaseHandler
	service TeamService
}

func NewHandler(service TeamService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

func (h *Handler) ListDepartments(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	departments, err := h.service.ListDepartments(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, departments)
}

func (h *Handler) CreateDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	var dto CreateDepartmentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := h.service.CreateDepartment(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) DeleteDepartment(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid department id")
		return
	}
	if err := h.service.DeleteDepartment(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListJobRoles(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	jobRoles, err := h.service.ListJobRoles(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, jobRoles)
}

func (h *Handler) CreateJobRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	var dto CreateJobRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	j, err := h.service.CreateJobRole(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, j)
}

func (h *Handler) SetJobRoleMembers(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid job role id")
		return
	}
	var dto CreateJobRoleDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	j, err := h.service.SetJobRoleMembers(r.Context(), actor, id, dto.LeaderIDs, dto.AgentIDs)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, j)
}

func (h *Handler) DeleteJobRole(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid job role id")
		return
	}
	if err := h.service.DeleteJobRole(r.Context(), actor, id); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListRoster(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	leaderID, err := pathID(r, "leaderID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leader id")
		return
	}
	roster, err := h.service.ListRoster(r.Context(), actor, leaderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, roster)
}

func (h *Handler) AssignAgent(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	leaderID, err := pathID(r, "leaderID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leader id")
		return
	}
	var dto AssignAgentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	if err := h.service.AssignAgentToLeader(r.Context(), actor, leaderID, dto.AgentID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnassignAgent(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	leaderID, err := pathID(r, "leaderID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid leader id")
		return
	}
	agentID, err := pathID(r, "agentID")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid agent id")
		return
	}
	if err := h.service.UnassignAgentFromLeader(r.Context(), actor, leaderID, agentID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}
