package audit

import "time"

// Entry is one append-only audit record. Target carries a JSON snapshot of the
// affected resource as it looked when the action ran.
type Entry struct {
	ID          int64     `json:"id"`
	Action      string    `json:"action"`
	ActorID     int64     `json:"actor_id"`
	ActorName   string    `json:"actor_name"`
	Target      string    `json:"target"`
	PerformedAt time.Time `json:"performed_at"`
}

const (
	ActionUserCreated     = "user_created"
	ActionUserActivated   = "user_activated"
	ActionUserDeactivated = "user_deactivated"
	ActionUserDeleted     = "user_deleted"
)
