package shift

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

type ShiftService interface {
	CreateShift(ctx context.Context, actor *auth.Principal, dto CreateShiftDTO) (*Shift, error)
	BulkCreateShifts(ctx context.Context, actor *auth.Principal, dto BulkCreateShiftDTO) (int, error)
	UpdateShift(ctx context.Context, actor *auth.Principal, shiftID int64, dto UpdateShiftDTO) (*Shift, error)
	PublishShifts(ctx context.Context, actor *auth.Principal, shiftIDs []int64) (int64, error)
	PublishAllShifts(ctx context.Context, actor *auth.Principal) (int64, error)
	DeleteShift(ctx context.Context, actor *auth.Principal, shiftID int64) error
	ListShifts(ctx context.Context, actor *auth.Principal, filter ListFilter) ([]Shift, error)
	CreateTemplate(ctx context.Context, actor *auth.Principal, dto CreateTemplateDTO) (*Template, error)
	ListTemplates(ctx context.Context, actor *auth.Principal) ([]Template, error)
	DeleteTemplate(ctx context.Context, actor *auth.Principal, templateID int64) error
}

type Handler struct {
	*transport.BaseHandler
	service ShiftService
}

func NewHandler(service ShiftService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// List godoc
// @Summary List shifts
// @Description List shifts visible to the caller, filtered by date range, user, department and status
// @Tags shifts
// @Produce json
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Param user_id query int false "Filter by user"
// @Param status query string false "Filter by status"
// @Success 200 {array} Shift
// @Router /api/v1/shifts [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	filter := ListFilter{
		Department: r.URL.Query().Get("department"),
		DateFrom:   r.URL.Query().Get("from"),
		DateTo:     r.URL.Query().Get("to"),
		Status:     Status(r.URL.Query().Get("status")),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id filter")
			return
		}
		filter.UserID = userID
	}
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		h.WriteError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	shifts, err := h.service.ListShifts(r.Context(), actor, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, shifts)
}

// Create godoc
// @Summary Create shift
// @Tags shifts
// @Accept json
// @Produce json
// @Param request body CreateShiftDTO true "Shift details"
// @Success 201 {object} Shift
// @Router /api/v1/shifts [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto CreateShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sh, err := h.service.CreateShift(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, sh)
}

// BulkCreate godoc
// @Summary Bulk create shifts
// @Description Create one shift per user per date in the range
// @Tags shifts
// @Accept json
// @Produce json
// @Param request body BulkCreateShiftDTO true "Bulk shift details"
// @Success 201 {object} map[string]int
// @Router /api/v1/shifts/bulk [post]
func (h *Handler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto BulkCreateShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.service.BulkCreateShifts(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, map[string]int{"created": count})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	shiftID, err := h.shiftIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid shift id")
		return
	}

	var dto UpdateShiftDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sh, err := h.service.UpdateShift(r.Context(), actor, shiftID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, sh)
}

// Publish godoc
// @Summary Publish shifts
// @Description Flip the named drafts to published; missing or already-published ids are skipped
// @Tags shifts
// @Accept json
// @Produce json
// @Param request body PublishShiftsDTO true "Shift ids"
// @Success 200 {object} map[string]int64
// @Router /api/v1/shifts/publish [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto PublishShiftsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	count, err := h.service.PublishShifts(r.Context(), actor, dto.ShiftIDs)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"published": count})
}

func (h *Handler) PublishAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	count, err := h.service.PublishAllShifts(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, map[string]int64{"published": count})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	shiftID, err := h.shiftIDParam(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid shift id")
		return
	}

	if err := h.service.DeleteShift(r.Context(), actor, shiftID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto CreateTemplateDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.service.CreateTemplate(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	templates, err := h.service.ListTemplates(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, templates)
}

func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	templateID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid template id")
		return
	}

	if err := h.service.DeleteTemplate(r.Context(), actor, templateID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) shiftIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
