package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
)

type Repository interface {
	Append(e *Entry) error
	List(limit int) ([]Entry, error)
}

// Service writes and reads the audit trail. Entries are append-only; there is
// deliberately no update or delete path.
type Service struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// Record snapshots the target as JSON and appends the entry. Satisfies the
// user service's AuditWriter.
func (s *Service) Record(ctx context.Context, action string, actorID int64, actorName string, target interface{}) error {
	snapshot, err := json.Marshal(target)
	if err != nil {
		return err
	}

	entry := &Entry{
		Action:      action,
		ActorID:     actorID,
		ActorName:   actorName,
		Target:      string(snapshot),
		PerformedAt: s.now(),
	}
	if err := s.repo.Append(entry); err != nil {
		return err
	}

	s.logger.Info("audit entry recorded", "action", action, "actor_id", actorID)
	return nil
}

const defaultListLimit = 200

// List returns recent entries, newest first. Admin only.
func (s *Service) List(ctx context.Context, actor *auth.Principal, limit int) ([]Entry, error) {
	if !actor.IsAdmin() {
		return nil, internal.NewWrongRoleError("account_admin")
	}
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.repo.List(limit)
}
