package auth_test

import (
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/permission"
)

var _ = Describe("Guard", func() {
	var (
		guard *auth.Guard
		next  http.Handler
	)

	BeforeEach(func() {
		guard = auth.NewGuard()
		next = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
	})

	request := func(principal *auth.Principal) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if principal != nil {
			req = req.WithContext(auth.ContextWithPrincipal(req.Context(), principal))
		}
		return req
	}

	Describe("Authenticated", func() {
		It("should return 401 without a principal", func() {
			rec := httptest.NewRecorder()

			guard.Authenticated(next).ServeHTTP(rec, request(nil))

			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
		})

		It("should pass through with a principal", func() {
			rec := httptest.NewRecorder()

			guard.Authenticated(next).ServeHTTP(rec, request(&auth.Principal{ID: 1}))

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("Require", func() {
		It("should name the missing permission in the error body", func() {
			principal := &auth.Principal{ID: 1, Role: permission.RoleAgent}
			rec := httptest.NewRecorder()

			guard.Require(permission.FlagManageShifts)(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Body.String()).To(ContainSubstring("missing permission: manage_shifts"))
		})

		It("should pass a principal holding the flag", func() {
			principal := &auth.Principal{
				ID:    1,
				Role:  permission.RoleTeamLeader,
				Perms: permission.Resolution{Set: permission.Set{ManageShifts: true}},
			}
			rec := httptest.NewRecorder()

			guard.Require(permission.FlagManageShifts)(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("should pass an account_admin without a stored flag", func() {
			principal := &auth.Principal{
				ID:    1,
				Role:  permission.RoleAccountAdmin,
				Perms: permission.AdminResolution(),
			}
			rec := httptest.NewRecorder()

			guard.Require(permission.FlagManageUsers)(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("RequireRole", func() {
		It("should reject a role outside the allowed set", func() {
			principal := &auth.Principal{ID: 1, Role: permission.RoleAgent}
			rec := httptest.NewRecorder()

			guard.RequireRole(permission.RoleManager)(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
		})

		It("should always pass an account_admin", func() {
			principal := &auth.Principal{ID: 1, Role: permission.RoleAccountAdmin}
			rec := httptest.NewRecorder()

			guard.RequireRole(permission.RoleManager)(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusOK))
		})
	})

	Describe("RequireAdmin", func() {
		It("should reject everyone below account_admin", func() {
			principal := &auth.Principal{ID: 1, Role: permission.RoleManager}
			rec := httptest.NewRecorder()

			guard.RequireAdmin(next).ServeHTTP(rec, request(principal))

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(rec.Body.String()).To(ContainSubstring("account_admin"))
		})
	})
})
