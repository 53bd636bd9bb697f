package user

import (
	"context"
	"log/slog"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
)

type Repository interface {
	List(filter ListFilter) ([]User, error)
	GetByID(userID int64) (*User, error)
	GetByEmail(email string) (*User, error)
	Create(u *User, passwordHash string) error
	UpdateRole(userID int64, role string) error
	UpdateDepartment(userID int64, department string) error
	UpdateActive(userID int64, active bool) error
	Delete(userID int64) error
}

// PresenceMarker flips a user offline when their account is deactivated. The
// open clock log, if any, is deliberately left open for later correction.
type PresenceMarker interface {
	ForceOffline(ctx context.Context, userID int64) error
}

// AuditWriter records destructive admin actions. The write happens before the
// destructive statement so a failed delete still leaves a trace of the attempt.
type AuditWriter interface {
	Record(ctx context.Context, action string, actorID int64, actorName string, target interface{}) error
}

type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo        Repository
	presence    PresenceMarker
	audit       AuditWriter
	hasher      PasswordHasher
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewService(repo Repository, presence PresenceMarker, audit AuditWriter, hasher PasswordHasher, broadcaster *events.Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		presence:    presence,
		audit:       audit,
		hasher:      hasher,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// ListUsers returns accounts visible to admin screens. account_admin accounts
// never appear in listings, regardless of who asks.
// ListUsers returns the directory. Callers without manage_users or
// view_clock_logs still get a listing so the schedule can render names, but
// it is pinned to active accounts regardless of the requested filter.
func (s *Service) ListUsers(ctx context.Context, actor *auth.Principal, filter ListFilter) ([]User, error) {
	if !actor.Can(permission.FlagManageUsers) && !actor.Can(permission.FlagViewClockLogs) {
		active := true
		filter.Active = &active
	}
	return s.repo.List(filter)
}

func (s *Service) GetUser(ctx context.Context, actor *auth.Principal, userID int64) (*User, error) {
	if !actor.Can(permission.FlagManageUsers) && actor.ID != userID {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u.Role == permission.RoleAccountAdmin && !actor.IsAdmin() {
		return nil, internal.ErrUserNotFound
	}
	return u, nil
}

func (s *Service) CreateUser(ctx context.Context, actor *auth.Principal, dto CreateUserDTO) (*User, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if dto.Role == permission.RoleAccountAdmin {
		return nil, internal.ErrRoleProtected
	}
	if err := s.checkRoleAssignment(actor, dto.Role); err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, internal.ErrDuplicateEmail
	}

	var passwordHash string
	if dto.Password != "" {
		hash, err := s.hasher.HashPassword(dto.Password)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		passwordHash = hash
	}

	u := &User{
		Email:      dto.Email,
		Name:       dto.Name,
		Role:       dto.Role,
		Department: dto.Department,
		Active:     true,
	}
	if err := s.repo.Create(u, passwordHash); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, actor, "user_created", u)
	s.broadcaster.Changed(ctx, events.EventTypeUsersChanged)
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	return u, nil
}

// SetUserRole changes a user's role. Assigning manager requires the manager or
// admin role; assigning team_leader additionally accepts the
// assign_team_leaders permission. account_admin can never be granted here.
func (s *Service) SetUserRole(ctx context.Context, actor *auth.Principal, userID int64, role string) (*User, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if !permission.IsKnownRole(role) {
		return nil, internal.ErrUnknownRole
	}
	if role == permission.RoleAccountAdmin {
		return nil, internal.ErrRoleProtected
	}
	if err := s.checkRoleAssignment(actor, role); err != nil {
		return nil, err
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u.Role == permission.RoleAccountAdmin {
		return nil, internal.ErrRoleProtected
	}

	if err := s.repo.UpdateRole(userID, role); err != nil {
		return nil, err
	}
	u.Role = role

	s.broadcaster.Changed(ctx, events.EventTypeUsersChanged)
	s.logger.Info("user role changed", "user_id", userID, "role", role, "actor_id", actor.ID)
	return u, nil
}

func (s *Service) checkRoleAssignment(actor *auth.Principal, role string) error {
	switch role {
	case permission.RoleManager:
		if !actor.IsAdmin() && !actor.HasRole(permission.RoleManager) {
			return internal.NewWrongRoleError(permission.RoleManager, permission.RoleAccountAdmin)
		}
	case permission.RoleTeamLeader:
		if !actor.IsAdmin() && !actor.HasRole(permission.RoleManager) && !actor.Can(permission.FlagAssignTeamLeaders) {
			return internal.NewMissingPermissionError(string(permission.FlagAssignTeamLeaders))
		}
	}
	return nil
}

func (s *Service) SetUserDepartment(ctx context.Context, actor *auth.Principal, userID int64, department string) (*User, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateDepartment(userID, department); err != nil {
		return nil, err
	}
	u.Department = department

	s.broadcaster.Changed(ctx, events.EventTypeUsersChanged)
	return u, nil
}

// SetUserActive toggles an account. Deactivation forces the user offline so
// dashboards stop counting them as present; their open clock log stays open.
func (s *Service) SetUserActive(ctx context.Context, actor *auth.Principal, userID int64, active bool) (*User, error) {
	if !actor.Can(permission.FlagCanSetActiveStatus) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagCanSetActiveStatus))
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if u.Role == permission.RoleAccountAdmin {
		return nil, internal.ErrRoleProtected
	}

	if err := s.repo.UpdateActive(userID, active); err != nil {
		return nil, err
	}
	u.Active = active

	if !active && s.presence != nil {
		if err := s.presence.ForceOffline(ctx, userID); err != nil {
			s.logger.Warn("failed to force user offline on deactivation",
				"user_id", userID, "error", err)
		}
	}

	action := "user_deactivated"
	if active {
		action = "user_activated"
	}
	s.recordAudit(ctx, actor, action, u)
	s.broadcaster.Changed(ctx, events.EventTypeUsersChanged)
	s.logger.Info("user active status changed", "user_id", userID, "active", active, "actor_id", actor.ID)
	return u, nil
}

// DeleteUserPermanently removes the account row. Only the account admin may
// do this. The audit entry is written first; if that write fails the delete
// does not happen.
func (s *Service) DeleteUserPermanently(ctx context.Context, actor *auth.Principal, userID int64) error {
	if !actor.IsAdmin() {
		return internal.NewForbiddenError("only the account admin can permanently delete users", internal.ErrCodeWrongRole)
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return err
	}
	if u.Role == permission.RoleAccountAdmin {
		return internal.ErrRoleProtected
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, "user_deleted", actor.ID, actor.Name, u); err != nil {
			return internal.NewInternalError("failed to write audit entry", err)
		}
	}

	if err := s.repo.Delete(userID); err != nil {
		return err
	}

	s.broadcaster.Changed(ctx, events.EventTypeUsersChanged)
	s.logger.Info("user permanently deleted", "user_id", userID, "actor_id", actor.ID)
	return nil
}

func (s *Service) recordAudit(ctx context.Context, actor *auth.Principal, action string, target *User) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, action, actor.ID, actor.Name, target); err != nil {
		s.logger.Warn("failed to write audit entry", "action", action, "error", err)
	}
}
