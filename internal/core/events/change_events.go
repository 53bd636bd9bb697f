package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Change events are deliberately opaque: they carry which resource changed and
// nothing else. Consumers refetch the resource on receipt.
const (
	EventTypeShiftsChanged     = "shifts.changed"
	EventTypeAttendanceChanged = "attendance.changed"
	EventTypeUsersChanged      = "users.changed"
	EventTypeTeamsChanged      = "teams.changed"
)

func NewChangeEvent(eventType string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      map[string]interface{}{},
	}
}

// Broadcaster adapts the event bus to the fire-and-forget "something changed"
// notification the domain services need.
type Broadcaster struct {
	bus *EventBus
}

func NewBroadcaster(bus *EventBus) *Broadcaster {
	return &Broadcaster{bus: bus}
}

// Changed publishes a change notification for the named resource. Errors are
// swallowed by the bus; a failed broadcast must never fail the originating
// request.
func (b *Broadcaster) Changed(ctx context.Context, eventType string) {
	_ = b.bus.Publish(ctx, NewChangeEvent(eventType))
}
