package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/shiftwise/shift-manager/internal/attendance"
	"github.com/shiftwise/shift-manager/internal/audit"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/dashboard"
	"github.com/shiftwise/shift-manager/internal/permission"
	"github.com/shiftwise/shift-manager/internal/shift"
	"github.com/shiftwise/shift-manager/internal/team"
	"github.com/shiftwise/shift-manager/internal/transport/middleware"
	"github.com/shiftwise/shift-manager/internal/transport/swagger"
	"github.com/shiftwise/shift-manager/internal/user"
)

type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Shift      *shift.Handler
	Attendance *attendance.Handler
	Team       *team.Handler
	Permission *permission.Handler
	Audit      *audit.Handler
	Dashboard  *dashboard.Handler
}

// RegisterAllRoutes wires the whole HTTP surface. Route guards reject early
// with a uniform body; services re-check permissions on their own, so a
// misplaced guard can never grant more than the service allows.
func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)
	guard := auth.NewGuard()

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/refresh", h.Auth.RefreshToken)

			sr.Group(func(ar chi.Router) {
				ar.Use(h.Auth.AuthMiddleware)
				ar.Post("/logout", h.Auth.Logout)
				ar.Get("/me", h.Auth.Me)
			})
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(guard.Authenticated)

			pr.Route("/shifts", func(sr chi.Router) {
				sr.Get("/", h.Shift.List)

				sr.Group(func(mr chi.Router) {
					mr.Use(guard.Require(permission.FlagManageShifts))
					mr.Post("/", h.Shift.Create)
					mr.Post("/bulk", h.Shift.BulkCreate)
					mr.Put("/{id}", h.Shift.Update)
					mr.Delete("/{id}", h.Shift.Delete)
				})

				sr.Group(func(pubr chi.Router) {
					pubr.Use(guard.Require(permission.FlagPublishShifts))
					pubr.Post("/publish", h.Shift.Publish)
					pubr.Post("/publish-all", h.Shift.PublishAll)
				})
			})

			pr.Route("/shift-templates", func(sr chi.Router) {
				sr.Use(guard.Require(permission.FlagManageShifts))
				sr.Get("/", h.Shift.ListTemplates)
				sr.Post("/", h.Shift.CreateTemplate)
				sr.Delete("/{id}", h.Shift.DeleteTemplate)
			})

			pr.Route("/attendance", func(ar chi.Router) {
				ar.Post("/clock-in", h.Attendance.ClockIn)
				ar.Post("/clock-out", h.Attendance.ClockOut)
				ar.Get("/status", h.Attendance.Status)
				ar.Get("/logs", h.Attendance.ListLogs)
				ar.Post("/breaks/start", h.Attendance.StartBreak)
				ar.Post("/breaks/end", h.Attendance.EndBreak)

				ar.Group(func(vr chi.Router) {
					vr.Use(guard.Require(permission.FlagViewClockLogs))
					vr.Get("/availability", h.Attendance.ListAvailability)
				})
			})

			pr.Route("/break-types", func(br chi.Router) {
				br.Get("/", h.Attendance.ListBreakTypes)

				br.Group(func(mr chi.Router) {
					mr.Use(guard.Require(permission.FlagManageUsers))
					mr.Post("/", h.Attendance.CreateBreakType)
					mr.Put("/{id}", h.Attendance.UpdateBreakType)
					mr.Delete("/{id}", h.Attendance.DeleteBreakType)
				})
			})

			pr.Route("/users", func(ur chi.Router) {
				ur.Get("/", h.User.List)
				ur.Get("/{id}", h.User.Get)

				ur.Group(func(mr chi.Router) {
					mr.Use(guard.Require(permission.FlagManageUsers))
					mr.Post("/", h.User.Create)
					mr.Put("/{id}/role", h.User.SetRole)
					mr.Put("/{id}/department", h.User.SetDepartment)
				})

				ur.Group(func(dr chi.Router) {
					dr.Use(guard.RequireAdmin)
					dr.Delete("/{id}", h.User.Delete)
				})

				ur.Group(func(ar chi.Router) {
					ar.Use(guard.Require(permission.FlagCanSetActiveStatus))
					ar.Put("/{id}/active", h.User.SetActive)
				})
			})

			pr.Route("/departments", func(dr chi.Router) {
				dr.Get("/", h.Team.ListDepartments)

				dr.Group(func(mr chi.Router) {
					mr.Use(guard.Require(permission.FlagManageUsers))
					mr.Post("/", h.Team.CreateDepartment)
					mr.Delete("/{id}", h.Team.DeleteDepartment)
				})
			})

			pr.Route("/job-roles", func(jr chi.Router) {
				jr.Get("/", h.Team.ListJobRoles)

				jr.Group(func(mr chi.Router) {
					mr.Use(guard.Require(permission.FlagManageUsers))
					mr.Post("/", h.Team.CreateJobRole)
					mr.Put("/{id}/members", h.Team.SetJobRoleMembers)
					mr.Delete("/{id}", h.Team.DeleteJobRole)
				})
			})

			pr.Route("/teams/{leaderID}", func(tr chi.Router) {
				tr.Get("/roster", h.Team.ListRoster)

				tr.Group(func(ar chi.Router) {
					ar.Use(guard.Require(permission.FlagAssignTeamLeaders))
					ar.Post("/roster", h.Team.AssignAgent)
					ar.Delete("/roster/{agentID}", h.Team.UnassignAgent)
				})
			})

			pr.Route("/roles", func(rr chi.Router) {
				rr.Use(guard.RequireAdmin)
				rr.Get("/", h.Permission.ListRoles)
				rr.Get("/{role}", h.Permission.GetRole)
				rr.Put("/{role}", h.Permission.SetRole)
			})

			pr.Group(func(ar chi.Router) {
				ar.Use(guard.RequireAdmin)
				ar.Get("/audit", h.Audit.List)
			})

			pr.Get("/dashboard", h.Dashboard.Summary)
		})
	})
}
