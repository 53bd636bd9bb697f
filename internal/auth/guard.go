package auth

import (
	"encoding/json"
	"net/http"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/permission"
)

// Guard produces route middleware that checks the principal already loaded by
// AuthMiddleware. Services re-check permissions themselves; the guard exists to
// reject early with a uniform error body.
type Guard struct{}

func NewGuard() *Guard {
	return &Guard{}
}

// Authenticated rejects requests without a principal in context.
func (g *Guard) Authenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PrincipalFromContext(r.Context()); !ok {
			writeGuardError(w, internal.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Require gates a route on a single permission flag.
func (g *Guard) Require(flag permission.Flag) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeGuardError(w, internal.ErrUnauthenticated)
				return
			}
			if !principal.Can(flag) {
				writeGuardError(w, internal.NewMissingPermissionError(string(flag)))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole gates a route on role membership. account_admin always passes.
func (g *Guard) RequireRole(roles ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				writeGuardError(w, internal.ErrUnauthenticated)
				return
			}
			if !principal.IsAdmin() && !principal.HasRole(roles...) {
				writeGuardError(w, internal.NewWrongRoleError(roles...))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates a route on the account_admin role alone.
func (g *Guard) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok {
			writeGuardError(w, internal.ErrUnauthenticated)
			return
		}
		if !principal.IsAdmin() {
			writeGuardError(w, internal.NewWrongRoleError(permission.RoleAccountAdmin))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeGuardError(w http.ResponseWriter, appErr *internal.AppError) {
	status, body := appErr.ToHTTPResponse()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
