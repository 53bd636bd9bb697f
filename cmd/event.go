package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shiftwise/shift-manager/internal/core/events"
	"github.com/shiftwise/shift-manager/pkg/logger"
	"github.com/spf13/cobra"
)

var changeEventTypes = []string{
	events.EventTypeShiftsChanged,
	events.EventTypeAttendanceChanged,
	events.EventTypeUsersChanged,
	events.EventTypeTeamsChanged,
}

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Change-notification debugging commands",
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a change notification through the event bus",
	Long: "Publish one of the change notifications (" + strings.Join(changeEventTypes, ", ") +
		") and log its delivery, to check the fan-out wiring without driving the API. Defaults to " +
		events.EventTypeShiftsChanged + ".",
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eventType := events.EventTypeShiftsChanged
		if len(args) == 1 {
			eventType = args[0]
		}
		publishChangeEvent(eventType)
	},
}

func publishChangeEvent(eventType string) {
	log := logger.LoggerWrapper()

	known := false
	for _, t := range changeEventTypes {
		if t == eventType {
			known = true
			break
		}
	}
	if !known {
		log.Warn("event type is not one the services publish", "event_type", eventType)
	}

	bus := events.NewEventBus(log)
	bus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		log.Info("change notification delivered",
			"event_id", event.EventID(),
			"event_type", event.EventType())
		return nil
	})

	if err := bus.Publish(context.Background(), events.NewChangeEvent(eventType)); err != nil {
		log.Error("failed to publish change notification", "error", err)
		return
	}

	// handlers run async; give them a beat before the process exits
	time.Sleep(100 * time.Millisecond)
	fmt.Println("published", eventType)
}

func init() {
	eventCmd.AddCommand(publishEventCmd)
	rootCmd.AddCommand(eventCmd)
}
