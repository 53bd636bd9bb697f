package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/internal/permission"
)

// LogQuery is the repository-level shape of a clock log listing. A non-nil
// empty UserIDs slice matches nothing; nil means no user restriction.
type LogQuery struct {
	UserIDs    []int64
	Department string
	DateFrom   string
	DateTo     string
}

type Repository interface {
	// InsertOpenLog atomically inserts an open row for the user.
	// created is false when an open row already exists; nothing is written
	// in that case.
	InsertOpenLog(log *ClockLog) (created bool, err error)
	GetOpenLog(userID int64) (*ClockLog, error)
	CloseLog(logID int64, at time.Time) error
	ListLogs(q LogQuery) ([]ClockLog, error)

	UpsertAvailability(a *Availability) error
	GetAvailability(userID int64) (*Availability, error)
	ListAvailability() ([]Availability, error)

	CreateBreakType(bt *BreakType) error
	ListBreakTypes() ([]BreakType, error)
	GetBreakType(breakTypeID int64) (*BreakType, error)
	UpdateBreakType(bt *BreakType) error
	DeleteBreakType(breakTypeID int64) error

	StartBreak(b *BreakLog) error
	GetActiveBreak(userID int64) (*BreakLog, error)
	EndBreak(breakID int64, at time.Time, durationMinutes int) error
}

// RosterProvider scopes a team leader's log visibility.
type RosterProvider interface {
	AgentIDs(leaderID int64) ([]int64, error)
}

type Service struct {
	repo        Repository
	roster      RosterProvider
	broadcaster *events.Broadcaster
	logger      *slog.Logger
	now         func() time.Time
}

func NewService(repo Repository, roster RosterProvider, broadcaster *events.Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		repo:        repo,
		roster:      roster,
		broadcaster: broadcaster,
		logger:      logger,
		now:         time.Now,
	}
}

// ClockIn opens an attendance span for the caller. The conditional insert in
// the store decides races: the loser of two simultaneous clock-ins gets a
// conflict, never a second open row.
func (s *Service) ClockIn(ctx context.Context, actor *auth.Principal, ip string) (*ClockLog, error) {
	now := s.now()
	log := &ClockLog{
		UserID:  actor.ID,
		Date:    now.Format(dateLayout),
		ClockIn: now,
		IP:      ip,
	}

	created, err := s.repo.InsertOpenLog(log)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, internal.ErrAlreadyClockedIn
	}

	s.setOnline(actor.ID, &now, nil)
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	s.logger.Info("user clocked in", "user_id", actor.ID, "clock_log_id", log.ID)
	return log, nil
}

// ClockOut closes the caller's open span and ends any running break.
func (s *Service) ClockOut(ctx context.Context, actor *auth.Principal) (*ClockLog, error) {
	open, err := s.repo.GetOpenLog(actor.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, internal.ErrNotClockedIn
	}

	now := s.now()
	s.endActiveBreak(actor.ID, now)

	if err := s.repo.CloseLog(open.ID, now); err != nil {
		return nil, err
	}
	open.ClockOut = &now

	s.setOffline(actor.ID)
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	s.logger.Info("user clocked out", "user_id", actor.ID, "clock_log_id", open.ID)
	return open, nil
}

// CloseOpenLog is the logout safety net: close the span if one is open, do
// nothing otherwise. Satisfies the auth handler's PresenceCloser.
func (s *Service) CloseOpenLog(ctx context.Context, userID int64) error {
	open, err := s.repo.GetOpenLog(userID)
	if err != nil {
		return err
	}
	if open == nil {
		s.setOffline(userID)
		return nil
	}

	now := s.now()
	s.endActiveBreak(userID, now)
	if err := s.repo.CloseLog(open.ID, now); err != nil {
		return err
	}

	s.setOffline(userID)
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	return nil
}

// ForceOffline flips the presence projection without touching the clock log.
// Used on account deactivation: the open span stays open for later correction.
// Satisfies the user service's PresenceMarker.
func (s *Service) ForceOffline(ctx context.Context, userID int64) error {
	if err := s.repo.UpsertAvailability(&Availability{
		UserID:    userID,
		Online:    false,
		OnBreak:   false,
		UpdatedAt: s.now(),
	}); err != nil {
		return err
	}
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	return nil
}

func (s *Service) GetStatus(ctx context.Context, actor *auth.Principal, userID int64) (*Availability, error) {
	if userID != actor.ID && !actor.Can(permission.FlagViewClockLogs) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagViewClockLogs))
	}

	a, err := s.repo.GetAvailability(userID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return &Availability{UserID: userID}, nil
	}
	return a, nil
}

func (s *Service) ListAvailability(ctx context.Context, actor *auth.Principal) ([]Availability, error) {
	if !actor.Can(permission.FlagViewClockLogs) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagViewClockLogs))
	}
	return s.repo.ListAvailability()
}

// ListLogs applies visibility before filters. Everyone sees their own logs.
// Beyond that the view_clock_logs permission is required; team leaders see
// their department by default, narrowed to their roster plus themselves when
// view_own_logs_only is set. Managers and admins see everything.
func (s *Service) ListLogs(ctx context.Context, actor *auth.Principal, filter LogFilter) ([]ClockLog, error) {
	q := LogQuery{DateFrom: filter.DateFrom, DateTo: filter.DateTo}

	switch {
	case actor.IsAdmin() || actor.HasRole(permission.RoleManager):
		if filter.UserID != 0 {
			q.UserIDs = []int64{filter.UserID}
		}
	case actor.Can(permission.FlagViewClockLogs):
		if actor.Can(permission.FlagViewOwnLogsOnly) {
			agentIDs, err := s.roster.AgentIDs(actor.ID)
			if err != nil {
				return nil, err
			}
			q.UserIDs = append(agentIDs, actor.ID)
		} else {
			q.Department = actor.Department
		}
		if filter.UserID != 0 {
			if q.UserIDs != nil && !containsID(q.UserIDs, filter.UserID) {
				return []ClockLog{}, nil
			}
			q.UserIDs = []int64{filter.UserID}
		}
	default:
		if filter.UserID != 0 && filter.UserID != actor.ID {
			return nil, internal.NewMissingPermissionError(string(permission.FlagViewClockLogs))
		}
		q.UserIDs = []int64{actor.ID}
	}

	return s.repo.ListLogs(q)
}

// StartBreak begins a configured break inside the caller's open span. The
// break type descriptor is snapshotted onto the log and the availability row.
func (s *Service) StartBreak(ctx context.Context, actor *auth.Principal, breakTypeID int64) (*BreakLog, error) {
	open, err := s.repo.GetOpenLog(actor.ID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, internal.ErrNotClockedIn
	}

	if active, err := s.repo.GetActiveBreak(actor.ID); err != nil {
		return nil, err
	} else if active != nil {
		return nil, internal.ErrBreakActive
	}

	bt, err := s.repo.GetBreakType(breakTypeID)
	if err != nil {
		return nil, err
	}
	if !bt.Active {
		return nil, internal.ErrBreakTypeNotFound
	}

	b := &BreakLog{
		UserID:      actor.ID,
		ClockLogID:  open.ID,
		BreakTypeID: bt.ID,
		Name:        bt.Name,
		Icon:        bt.Icon,
		Color:       bt.Color,
		Date:        open.Date,
		StartedAt:   s.now(),
	}
	if err := s.repo.StartBreak(b); err != nil {
		return nil, err
	}

	s.setOnline(actor.ID, &open.ClockIn, bt)
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	s.logger.Info("break started", "user_id", actor.ID, "break_type", bt.Name)
	return b, nil
}

func (s *Service) EndBreak(ctx context.Context, actor *auth.Principal) (*BreakLog, error) {
	active, err := s.repo.GetActiveBreak(actor.ID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		return nil, internal.ErrNoActiveBreak
	}

	now := s.now()
	duration := int(now.Sub(active.StartedAt).Minutes())
	if err := s.repo.EndBreak(active.ID, now, duration); err != nil {
		return nil, err
	}
	active.EndedAt = &now
	active.DurationMinutes = duration

	var clockedInAt *time.Time
	if open, err := s.repo.GetOpenLog(actor.ID); err == nil && open != nil {
		clockedInAt = &open.ClockIn
	}
	s.setOnline(actor.ID, clockedInAt, nil)
	s.broadcaster.Changed(ctx, events.EventTypeAttendanceChanged)
	return active, nil
}

// endActiveBreak closes a running break as part of a clock-out path. Failures
// are logged, not surfaced: the clock-out itself must still go through.
func (s *Service) endActiveBreak(userID int64, at time.Time) {
	active, err := s.repo.GetActiveBreak(userID)
	if err != nil || active == nil {
		return
	}
	duration := int(at.Sub(active.StartedAt).Minutes())
	if err := s.repo.EndBreak(active.ID, at, duration); err != nil {
		s.logger.Warn("failed to end break on clock-out", "user_id", userID, "error", err)
	}
}

func (s *Service) setOnline(userID int64, clockedInAt *time.Time, onBreak *BreakType) {
	a := &Availability{
		UserID:      userID,
		Online:      true,
		ClockedInAt: clockedInAt,
		UpdatedAt:   s.now(),
	}
	if onBreak != nil {
		a.OnBreak = true
		a.BreakName = onBreak.Name
		a.BreakIcon = onBreak.Icon
		a.BreakColor = onBreak.Color
	}
	if err := s.repo.UpsertAvailability(a); err != nil {
		s.logger.Warn("failed to update availability", "user_id", userID, "error", err)
	}
}

func (s *Service) setOffline(userID int64) {
	err := s.repo.UpsertAvailability(&Availability{
		UserID:    userID,
		Online:    false,
		OnBreak:   false,
		UpdatedAt: s.now(),
	})
	if err != nil {
		s.logger.Warn("failed to update availability", "user_id", userID, "error", err)
	}
}

// ListBreakTypes returns the catalog. Callers without manage_users see only
// active entries; the admin config screen sees everything.
func (s *Service) ListBreakTypes(ctx context.Context, actor *auth.Principal) ([]BreakType, error) {
	breakTypes, err := s.repo.ListBreakTypes()
	if err != nil {
		return nil, err
	}
	if actor.Can(permission.FlagManageUsers) {
		return breakTypes, nil
	}

	active := make([]BreakType, 0, len(breakTypes))
	for _, bt := range breakTypes {
		if bt.Active {
			active = append(active, bt)
		}
	}
	return active, nil
}

func (s *Service) CreateBreakType(ctx context.Context, actor *auth.Principal, dto BreakTypeDTO) (*BreakType, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	bt := &BreakType{
		Name:       dto.Name,
		Icon:       dto.Icon,
		Color:      dto.Color,
		MaxMinutes: dto.MaxMinutes,
		Active:     dto.Active,
		SortOrder:  dto.SortOrder,
	}
	if err := s.repo.CreateBreakType(bt); err != nil {
		return nil, err
	}
	return bt, nil
}

func (s *Service) UpdateBreakType(ctx context.Context, actor *auth.Principal, breakTypeID int64, dto BreakTypeDTO) (*BreakType, error) {
	if !actor.Can(permission.FlagManageUsers) {
		return nil, internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	bt, err := s.repo.GetBreakType(breakTypeID)
	if err != nil {
		return nil, err
	}
	bt.Name = dto.Name
	bt.Icon = dto.Icon
	bt.Color = dto.Color
	bt.MaxMinutes = dto.MaxMinutes
	bt.Active = dto.Active
	bt.SortOrder = dto.SortOrder

	if err := s.repo.UpdateBreakType(bt); err != nil {
		return nil, err
	}
	return bt, nil
}

func (s *Service) DeleteBreakType(ctx context.Context, actor *auth.Principal, breakTypeID int64) error {
	if !actor.Can(permission.FlagManageUsers) {
		return internal.NewMissingPermissionError(string(permission.FlagManageUsers))
	}
	return s.repo.DeleteBreakType(breakTypeID)
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
