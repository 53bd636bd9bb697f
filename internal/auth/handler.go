package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/transport"
)

// AuthService defines what the handler needs from the auth layer.
type AuthService interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetPrincipal(userID int64) (*Principal, error)
}

// PresenceCloser closes the caller's open clock log on logout so a forgotten
// browser tab cannot leave them clocked in forever.
type PresenceCloser interface {
	CloseOpenLog(ctx context.Context, userID int64) error
}

type Handler struct {
	*transport.BaseHandler
	service  AuthService
	presence PresenceCloser
}

func NewHandler(service AuthService, presence PresenceCloser, logger *slog.Logger) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger),
		service:     service,
		presence:    presence,
	}
}

// Login godoc
// @Summary Login
// @Description Authenticate by email and receive access and refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginDTO true "Login credentials"
// @Success 200 {object} AuthTokens
// @Failure 401 {object} internal.Response
// @Router /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.service.Authenticate(dto)
	if err != nil {
		if vErr, ok := err.(ValidationError); ok {
			h.WriteError(w, http.StatusBadRequest, vErr.Error())
			return
		}
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// RefreshToken godoc
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshTokenDTO true "Refresh token"
// @Success 200 {object} AuthTokens
// @Failure 401 {object} internal.Response
// @Router /api/v1/auth/refresh [post]
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := dto.Validate(); err != nil {
		h.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	tokens, err := h.service.RefreshTokens(dto.RefreshToken)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, tokens)
}

// Logout godoc
// @Summary Logout
// @Description Close the caller's open clock log and mark them offline
// @Tags auth
// @Success 204
// @Failure 401 {object} internal.Response
// @Router /api/v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}

	if h.presence != nil {
		if err := h.presence.CloseOpenLog(r.Context(), principal.ID); err != nil {
			// Logout must succeed even when the clock log cannot be closed.
			h.Logger.Warn("failed to close open clock log on logout",
				"user_id", principal.ID, "error", err)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// Me godoc
// @Summary Current principal
// @Description Return the authenticated user with their resolved permissions
// @Tags auth
// @Produce json
// @Success 200 {object} Principal
// @Failure 401 {object} internal.Response
// @Router /api/v1/auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, internal.ErrUnauthenticated)
		return
	}
	h.WriteJSON(w, http.StatusOK, principal)
}

// AuthMiddleware validates the bearer token and loads the principal, with a
// fresh permission resolution, into the request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := h.ExtractTokenFromHeader(r)
		if tokenString == "" {
			h.HandleServiceError(w, internal.ErrUnauthenticated)
			return
		}

		claims, err := h.service.ValidateAccessToken(tokenString)
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		principal, err := h.service.GetPrincipal(parseUserID(claims.UserID))
		if err != nil {
			h.HandleServiceError(w, err)
			return
		}

		ctx := ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
