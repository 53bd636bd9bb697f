package shift

import (
	"context"
	"log/slog"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
)

// Query is the repository-level shape of a shift listing. A non-nil empty
// UserIDs slice matches nothing; a nil slice means no user restriction.
type Query struct {
	UserIDs    []int64
	Statuses   []Status
	Department string
	DateFrom   string
	DateTo     string
}

type Repository interface {
	Create(s *Shift) error
	CreateBatch(shifts []*Shift) error
	GetByID(shiftID int64) (*Shift, error)
	Update(s *Shift) error
	Delete(shiftID int64) error
	List(q Query) ([]Shift, error)
	// MarkPublished flips draft rows to published and reports how many
	// actually changed. Missing and already-published ids count for nothing.
	MarkPublished(shiftIDs []int64) (int64, error)
	PublishAll() (int64, error)

	CreateTemplate(t *Template) error
	ListTemplates() ([]Template, error)
	DeleteTemplate(templateID int64) error
}

// RosterProvider scopes a team leader's reach to their assigned agents.
type RosterProvider interface {
	AgentIDs(leaderID int64) ([]int64, error)
}

type Service struct {
	repo        Repository
	roster      RosterProvider
	broadcaster *events.Broadcaster
	logger      *slog.Logger
}

func NewService(repo Repository, roster RosterProvider, broadcaster *events.Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		roster:      roster,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// CreateShift creates a single shift. A publish request from a caller without
// the publish permission is not an error: the shift lands as a draft.
func (s *Service) CreateShift(ctx context.Context, actor *auth.Principal, dto CreateShiftDTO) (*Shift, error) {
	if !actor.Can(permission.FlagManageShifts) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkTargetInScope(actor, dto.UserID); err != nil {
		return nil, err
	}

	status := StatusDraft
	if dto.Publish && actor.Can(permission.FlagPublishShifts) {
		status = StatusPublished
	}

	department := dto.Department
	if department == "" {
		department = actor.Department
	}

	sh := &Shift{
		UserID:     dto.UserID,
		Date:       dto.Date,
		StartTime:  dto.StartTime,
		EndTime:    dto.EndTime,
		Department: department,
		Notes:      dto.Notes,
		Status:     status,
		CreatedBy:  actor.ID,
	}
	if err := s.repo.Create(sh); err != nil {
		return nil, err
	}

	s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	s.logger.Info("shift created", "shift_id", sh.ID, "user_id", sh.UserID, "status", sh.Status, "actor_id", actor.ID)
	return sh, nil
}

// BulkCreateShifts expands user_ids x dates and inserts the whole batch with
// one status decision for all of them.
func (s *Service) BulkCreateShifts(ctx context.Context, actor *auth.Principal, dto BulkCreateShiftDTO) (int, error) {
	if !actor.Can(permission.FlagManageShifts) {
		return 0, internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	if err := dto.Validate(); err != nil {
		return 0, err
	}
	for _, userID := range dto.UserIDs {
		if err := s.checkTargetInScope(actor, userID); err != nil {
			return 0, err
		}
	}

	status := StatusDraft
	if dto.Publish && actor.Can(permission.FlagPublishShifts) {
		status = StatusPublished
	}

	department := dto.Department
	if department == "" {
		department = actor.Department
	}

	dates := dto.Dates()
	shifts := make([]*Shift, 0, len(dto.UserIDs)*len(dates))
	for _, userID := range dto.UserIDs {
		for _, date := range dates {
			shifts = append(shifts, &Shift{
				UserID:     userID,
				Date:       date,
				StartTime:  dto.StartTime,
				EndTime:    dto.EndTime,
				Department: department,
				Notes:      dto.Notes,
				Status:     status,
				CreatedBy:  actor.ID,
			})
		}
	}
	if len(shifts) == 0 {
		return 0, nil
	}

	if err := s.repo.CreateBatch(shifts); err != nil {
		return 0, err
	}

	s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	s.logger.Info("shifts bulk created", "count", len(shifts), "status", status, "actor_id", actor.ID)
	return len(shifts), nil
}

// UpdateShift edits an existing shift. Field edits always apply; a status
// change applies only for callers with the publish permission, otherwise the
// stored status is silently retained.
func (s *Service) UpdateShift(ctx context.Context, actor *auth.Principal, shiftID int64, dto UpdateShiftDTO) (*Shift, error) {
	if !actor.Can(permission.FlagManageShifts) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	sh, err := s.repo.GetByID(shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.checkTargetInScope(actor, sh.UserID); err != nil {
		return nil, err
	}

	if dto.Date != nil {
		sh.Date = *dto.Date
	}
	if dto.StartTime != nil {
		sh.StartTime = *dto.StartTime
	}
	if dto.EndTime != nil {
		sh.EndTime = *dto.EndTime
	}
	if dto.Department != nil {
		sh.Department = *dto.Department
	}
	if dto.Notes != nil {
		sh.Notes = *dto.Notes
	}
	if dto.Status != nil && actor.Can(permission.FlagPublishShifts) {
		sh.Status = *dto.Status
	}

	if err := s.repo.Update(sh); err != nil {
		return nil, err
	}

	s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	return sh, nil
}

// PublishShifts flips the named drafts to published. Ids that do not exist or
// are already published are skipped silently; the returned count is how many
// rows actually changed.
func (s *Service) PublishShifts(ctx context.Context, actor *auth.Principal, shiftIDs []int64) (int64, error) {
	if !actor.Can(permission.FlagPublishShifts) {
		return 0, internal.NewMissingPermissionError(string(permission.FlagPublishShifts))
	}
	if len(shiftIDs) == 0 {
		return 0, nil
	}

	count, err := s.repo.MarkPublished(shiftIDs)
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	}
	s.logger.Info("shifts published", "requested", len(shiftIDs), "published", count, "actor_id", actor.ID)
	return count, nil
}

// PublishAllShifts publishes every draft in the system.
func (s *Service) PublishAllShifts(ctx context.Context, actor *auth.Principal) (int64, error) {
	if !actor.Can(permission.FlagPublishShifts) {
		return 0, internal.NewMissingPermissionError(string(permission.FlagPublishShifts))
	}

	count, err := s.repo.PublishAll()
	if err != nil {
		return 0, err
	}

	if count > 0 {
		s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	}
	s.logger.Info("all draft shifts published", "published", count, "actor_id", actor.ID)
	return count, nil
}

// DeleteShift removes a shift permanently, draft or published.
func (s *Service) DeleteShift(ctx context.Context, actor *auth.Principal, shiftID int64) error {
	if !actor.Can(permission.FlagManageShifts) {
		return internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}

	sh, err := s.repo.GetByID(shiftID)
	if err != nil {
		return err
	}
	if err := s.checkTargetInScope(actor, sh.UserID); err != nil {
		return err
	}

	if err := s.repo.Delete(shiftID); err != nil {
		return err
	}

	s.broadcaster.Changed(ctx, events.EventTypeShiftsChanged)
	s.logger.Info("shift deleted", "shift_id", shiftID, "actor_id", actor.ID)
	return nil
}

// ListShifts applies the caller's visibility before any requested filters.
// Agents see their own published shifts; team leaders see their roster; an
// empty roster yields an empty listing, not everything. Managers and admins
// see all users. Drafts appear only with the view_drafts permission.
func (s *Service) ListShifts(ctx context.Context, actor *auth.Principal, filter ListFilter) ([]Shift, error) {
	q := Query{
		Department: filter.Department,
		DateFrom:   filter.DateFrom,
		DateTo:     filter.DateTo,
	}
	canSeeDrafts := actor.Can(permission.FlagViewDrafts)

	switch {
	case actor.IsAdmin() || actor.HasRole(permission.RoleManager):
		if filter.UserID != 0 {
			q.UserIDs = []int64{filter.UserID}
		}
	case actor.HasRole(permission.RoleTeamLeader):
		agentIDs, err := s.roster.AgentIDs(actor.ID)
		if err != nil {
			return nil, err
		}
		if len(agentIDs) == 0 {
			return []Shift{}, nil
		}
		q.UserIDs = agentIDs
		if filter.UserID != 0 {
			if !containsID(agentIDs, filter.UserID) {
				return []Shift{}, nil
			}
			q.UserIDs = []int64{filter.UserID}
		}
	default:
		// Drafts never reach an agent principal, whatever the agent role's
		// stored permission row says.
		q.UserIDs = []int64{actor.ID}
		canSeeDrafts = false
	}
	switch {
	case filter.Status != "":
		if filter.Status == StatusDraft && !canSeeDrafts {
			return []Shift{}, nil
		}
		q.Statuses = []Status{filter.Status}
	case canSeeDrafts:
		q.Statuses = []Status{StatusDraft, StatusPublished}
	default:
		q.Statuses = []Status{StatusPublished}
	}

	return s.repo.List(q)
}

// ListShiftsThisMonth backs the dashboard tile of the same name.
func (s *Service) ListShiftsThisMonth(ctx context.Context, actor *auth.Principal) ([]Shift, error) {
	if !actor.Can(permission.FlagShowShiftsThisMonth) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagShowShiftsThisMonth))
	}

	now := time.Now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := first.AddDate(0, 1, -1)

	return s.ListShifts(ctx, actor, ListFilter{
		DateFrom: first.Format(DateLayout),
		DateTo:   last.Format(DateLayout),
	})
}

// checkTargetInScope limits whom a team leader can schedule: roster agents and
// themselves. Managers and admins schedule anyone.
func (s *Service) checkTargetInScope(actor *auth.Principal, targetUserID int64) error {
	if actor.IsAdmin() || actor.HasRole(permission.RoleManager) {
		return nil
	}
	if targetUserID == actor.ID {
		return nil
	}
	agentIDs, err := s.roster.AgentIDs(actor.ID)
	if err != nil {
		return err
	}
	if !containsID(agentIDs, targetUserID) {
		return internal.NewForbiddenError("target user is outside your team", internal.ErrCodeOutOfScope)
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (s *Service) CreateTemplate(ctx context.Context, actor *auth.Principal, dto CreateTemplateDTO) (*Template, error) {
	if !actor.Can(permission.FlagManageShifts) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t := &Template{
		Name:       dto.Name,
		StartTime:  dto.StartTime,
		EndTime:    dto.EndTime,
		Department: dto.Department,
		Notes:      dto.Notes,
		CreatedBy:  actor.ID,
	}
	if err := s.repo.CreateTemplate(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) ListTemplates(ctx context.Context, actor *auth.Principal) ([]Template, error) {
	if !actor.Can(permission.FlagManageShifts) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	return s.repo.ListTemplates()
}

func (s *Service) DeleteTemplate(ctx context.Context, actor *auth.Principal, templateID int64) error {
	if !actor.Can(permission.FlagManageShifts) {
		return internal.NewMissingPermissionError(string(permission.FlagManageShifts))
	}
	return s.repo.DeleteTemplate(templateID)
}
