package team

import (
	"context"
	"log/slog"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
)

type Repository interface {
	ListDepartments() ([]Department, error)
	CreateDepartment(d *Department) error
	DeleteDepartment(departmentID int64) error

	ListJobRoles() ([]JobRole, error)
	CreateJobRole(j *JobRole) error
	SetJobRoleMembers(jobRoleID int64, leaderIDs, agentIDs []int64) (*JobRole, error)
	DeleteJobRole(jobRoleID int64) error

	RosterAgentIDs(leaderID int64) ([]int64, error)
	ListRoster(leaderID int64) ([]RosterEntry, error)
	AddRosterEntry(leaderID, agentID int64) error
	RemoveRosterEntry(leaderID, agentID int64) error
}

type Service struct {
	repo        Repository
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewService(repo Repository, broadcaster *events.Broadcaster, logger *slog.Logger) *Service {
	return &Service{repo: repo, broadcaster: broadcaster, logger: logger}
}

// AgentIDs exposes the roster to other services (shift visibility, clock log
// scoping) without them depending on the rest of the team package.
func (s *Service) AgentIDs(leaderID int64) ([]int64, error) {
	return s.repo.RosterAgentIDs(leaderID)
}

func (s *Service) ListDepartments(ctx context.Context, actor *auth.Principal) ([]Department, error) {
	return s.repo.ListDepartments()
}

func (s *Service) CreateDepartment(ctx context.Context, actor *auth.Principal, dto CreateDepartmentDTO) (*Department, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d := &Department{Name: dto.Name, Color: dto.Color, Background: dto.Background, Active: true}
	if err := s.repo.CreateDepartment(d); err != nil {
		return nil, err
	}

	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	s.logger.Info("department created", "department_id", d.ID, "name", d.Name, "actor_id", actor.ID)
	return d, nil
}

func (s *Service) DeleteDepartment(ctx context.Context, actor *auth.Principal, departmentID int64) error {
	if !actor.Can(permission.FlagManageUsers) {
		return internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := s.repo.DeleteDepartment(departmentID); err != nil {
		return err
	}
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	return nil
}

func (s *Service) ListJobRoles(ctx context.Context, actor *auth.Principal) ([]JobRole, error) {
	return s.repo.ListJobRoles()
}

// CreateJobRole creates the label and links its agents to its leaders: every
// agent named on the job role joins every named leader's roster.
func (s *Service) CreateJobRole(ctx context.Context, actor *auth.Principal, dto CreateJobRoleDTO) (*JobRole, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	j := &JobRole{Name: dto.Name, DepartmentID: dto.DepartmentID, LeaderIDs: dto.LeaderIDs, AgentIDs: dto.AgentIDs}
	if err := s.repo.CreateJobRole(j); err != nil {
		return nil, err
	}

	s.linkRosters(j.LeaderIDs, j.AgentIDs)
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	s.logger.Info("job role created", "job_role_id", j.ID, "name", j.Name, "actor_id", actor.ID)
	return j, nil
}

func (s *Service) SetJobRoleMembers(ctx context.Context, actor *auth.Principal, jobRoleID int64, leaderIDs, agentIDs []int64) (*JobRole, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}

	j, err := s.repo.SetJobRoleMembers(jobRoleID, leaderIDs, agentIDs)
	if err != nil {
		return nil, err
	}

	s.linkRosters(j.LeaderIDs, j.AgentIDs)
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	return j, nil
}

func (s *Service) DeleteJobRole(ctx context.Context, actor *auth.Principal, jobRoleID int64) error {
	if !actor.Can(permission.FlagManageUsers) {
		return internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := s.repo.DeleteJobRole(jobRoleID); err != nil {
		return err
	}
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	return nil
}

// linkRosters is additive. Removing a user from a job role never unlinks
// rosters; that is an explicit roster operation.
func (s *Service) linkRosters(leaderIDs, agentIDs []int64) {
	for _, leaderID := range leaderIDs {
		for _, agentID := range agentIDs {
			if err := s.repo.AddRosterEntry(leaderID, agentID); err != nil {
				s.logger.Warn("failed to link roster entry",
					"leader_id", leaderID, "agent_id", agentID, "error", err)
			}
		}
	}
}

func (s *Service) ListRoster(ctx context.Context, actor *auth.Principal, leaderID int64) ([]RosterEntry, error) {
	if !actor.Can(permission.FlagAssignTeamLeaders) && actor.ID != leaderID {
		return nil, internal.NewMissingPermissionError(string(permission.FlagAssignTeamLeaders))
	}
	return s.repo.ListRoster(leaderID)
}

func (s *Service) AssignAgentToLeader(ctx context.Context, actor *auth.Principal, leaderID, agentID int64) error {
	if !actor.Can(permission.FlagAssignTeamLeaders) {
		return internal.NewMissingPermissionError(string(permission.FlagAssignTeamLeaders))
	}
	if err := s.repo.AddRosterEntry(leaderID, agentID); err != nil {
		return err
	}
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	s.logger.Info("agent assigned to leader", "leader_id", leaderID, "agent_id", agentID, "actor_id", actor.ID)
	return nil
}

func (s *Service) UnassignAgentFromLeader(ctx context.Context, actor *auth.Principal, leaderID, agentID int64) error {
	if !actor.Can(permission.FlagAssignTeamLeaders) {
		return internal.NewMissingPermissionError(string(permission.FlagAssignTeamLeaders))
	}
	if err := s.repo.RemoveRosterEntry(leaderID, agentID); err != nil {
		return err
	}
	s.broadcaster.Changed(ctx, events.EventTypeTeamsChanged)
	return nil
}
