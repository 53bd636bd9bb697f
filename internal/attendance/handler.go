package attendance

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/transport"
)

type AttendanceService interface {
	ClockIn(ctx context.Context, actor *auth.Principal, ip string) (*ClockLog, error)
	ClockOut(ctx context.Context, actor *auth.Principal) (*ClockLog, error)
	GetStatus(ctx context.Context, actor *auth.Principal, userID int64) (*Availability, error)
	ListAvailability(ctx context.Context, actor *auth.Principal) ([]Availability, error)
	ListLogs(ctx context.Context, actor *auth.Principal, filter LogFilter) ([]ClockLog, error)
	StartBreak(ctx context.Context, actor *auth.Principal, breakTypeID int64) (*BreakLog, error)
	EndBreak(ctx context.Context, actor *auth.Principal) (*BreakLog, error)
	ListBreakTypes(ctx context.Context, actor *auth.Principal) ([]BreakType, error)
	CreateBreakType(ctx context.Context, actor *auth.Principal, dto BreakTypeDTO) (*BreakType, error)
	UpdateBreakType(ctx context.Context, actor *auth.Principal, breakTypeID int64, dto BreakTypeDTO) (*BreakType, error)
	DeleteBreakType(ctx context.Context, actor *auth.Principal, breakTypeID int64) error
}

type Handler struct {
	*transport.BaseHandler
	service AttendanceService
}

func NewHandler(service AttendanceService, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
	}
}

// ClockIn godoc
// @Summary Clock in
// @Description Open an attendance span for the caller
// @Tags attendance
// @Produce json
// @Success 201 {object} ClockLog
// @Failure 409 {object} internal.Response
// @Router /api/v1/attendance/clock-in [post]
func (h *Handler) ClockIn(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	log, err := h.service.ClockIn(r.Context(), actor, clientIP(r))
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, log)
}

// ClockOut godoc
// @Summary Clock out
// @Tags attendance
// @Produce json
// @Success 200 {object} ClockLog
// @Failure 409 {object} internal.Response
// @Router /api/v1/attendance/clock-out [post]
func (h *Handler) ClockOut(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	log, err := h.service.ClockOut(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, log)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	userID := actor.ID
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id")
			return
		}
		userID = parsed
	}

	status, err := h.service.GetStatus(r.Context(), actor, userID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, status)
}

func (h *Handler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	availability, err := h.service.ListAvailability(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, availability)
}

// ListLogs godoc
// @Summary List clock logs
// @Description List attendance logs visible to the caller, newest date first
// @Tags attendance
// @Produce json
// @Param user_id query int false "Filter by user"
// @Param from query string false "Start date (YYYY-MM-DD)"
// @Param to query string false "End date (YYYY-MM-DD)"
// @Success 200 {array} ClockLog
// @Router /api/v1/attendance/logs [get]
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	filter := LogFilter{
		DateFrom: r.URL.Query().Get("from"),
		DateTo:   r.URL.Query().Get("to"),
	}
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid user_id filter")
			return
		}
		filter.UserID = userID
	}

	logs, err := h.service.ListLogs(r.Context(), actor, filter)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, logs)
}

func (h *Handler) StartBreak(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto StartBreakDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.HandleServiceError(w, err)
		return
	}

	b, err := h.service.StartBreak(r.Context(), actor, dto.BreakTypeID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) EndBreak(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	b, err := h.service.EndBreak(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) ListBreakTypes(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	breakTypes, err := h.service.ListBreakTypes(r.Context(), actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, breakTypes)
}

func (h *Handler) CreateBreakType(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	var dto BreakTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bt, err := h.service.CreateBreakType(r.Context(), actor, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, bt)
}

func (h *Handler) UpdateBreakType(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	breakTypeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid break type id")
		return
	}

	var dto BreakTypeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bt, err := h.service.UpdateBreakType(r.Context(), actor, breakTypeID, dto)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, bt)
}

func (h *Handler) DeleteBreakType(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	breakTypeID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid break type id")
		return
	}

	if err := h.service.DeleteBreakType(r.Context(), actor, breakTypeID); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
