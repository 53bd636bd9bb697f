package permission

import (
	"errors"
	"log/slog"

	"github.com/shiftwise/shift-manager/internal"
)

// ErrRoleSetMissing is returned by repositories when no row exists for a role.
var ErrRoleSetMissing = errors.New("no permission set stored for role")

// Repository is the data access contract for stored permission sets.
type Repository interface {
	GetSet(role string) (Set, error)
	UpsertSet(role string, set Set) error
}

// Service resolves roles to permission sets. Reads go to the store on every
// call; there is no process-wide cache, so admin edits take effect on the next
// request.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Resolve maps a role label to its permission resolution.
//
// account_admin short-circuits to the admin sentinel before the store is
// consulted; no row exists for it and none must be read. An unknown role or a
// missing row resolves to the zero Set (every flag false), not an error.
func (s *Service) Resolve(role string) (Resolution, error) {
	if role == RoleAccountAdmin {
		return AdminResolution(), nil
	}

	set, err := s.repo.GetSet(role)
	if err != nil {
		if errors.Is(err, ErrRoleSetMissing) {
			return Resolution{Role: role}, nil
		}
		s.logger.Error("failed to resolve role permissions", "role", role, "error", err)
		return Resolution{}, err
	}

	return Resolution{Role: role, Set: set}, nil
}

// SetRolePermissions replaces the stored set for a non-admin role.
func (s *Service) SetRolePermissions(role string, set Set) error {
	if role == RoleAccountAdmin {
		return internal.ErrRoleProtected
	}
	if !IsKnownRole(role) {
		return internal.ErrUnknownRole
	}

	if err := s.repo.UpsertSet(role, set); err != nil {
		s.logger.Error("failed to store role permissions", "role", role, "error", err)
		return err
	}

	s.logger.Info("role permissions updated", "role", role)
	return nil
}

// EnsureDefaults seeds permission rows for roles that have none yet. Idempotent:
// existing rows are left untouched.
func (s *Service) EnsureDefaults() error {
	for role, set := range DefaultSets() {
		_, err := s.repo.GetSet(role)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrRoleSetMissing) {
			return err
		}
		if err := s.repo.UpsertSet(role, set); err != nil {
			return err
		}
		s.logger.Info("seeded default permissions", "role", role)
	}
	return nil
}
