package attendance

import "time"

// ClockLog is one attendance span. At most one open row (clock_out IS NULL)
// exists per user; the store enforces that with a partial unique index, so
// concurrent clock-ins cannot double-open.
type ClockLog struct {
	ID       int64      `json:"id"`
	UserID   int64      `json:"user_id"`
	Date     string     `json:"date"`
	ClockIn  time.Time  `json:"clock_in"`
	ClockOut *time.Time `json:"clock_out,omitempty"`
	IP       string     `json:"ip,omitempty"`
}

// Availability is the live presence projection derived from clock and break
// activity. It is a cache of the latest state, not a history. The break
// descriptor fields are snapshots of the active break type, empty when the
// user is not on break.
type Availability struct {
	UserID      int64      `json:"user_id"`
	Online      bool       `json:"online"`
	OnBreak     bool       `json:"on_break"`
	BreakName   string     `json:"break_name,omitempty"`
	BreakIcon   string     `json:"break_icon,omitempty"`
	BreakColor  string     `json:"break_color,omitempty"`
	ClockedInAt *time.Time `json:"clocked_in_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// BreakType is a configured break catalog entry. MaxMinutes of zero means no
// duration limit.
type BreakType struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Icon       string `json:"icon,omitempty"`
	Color      string `json:"color,omitempty"`
	MaxMinutes int    `json:"max_minutes,omitempty"`
	Active     bool   `json:"active"`
	SortOrder  int    `json:"sort_order"`
}

// BreakLog records one taken break. Name, icon and color are snapshotted from
// the break type at start so later catalog edits do not rewrite history.
// DurationMinutes is computed when the break ends.
type BreakLog struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	ClockLogID      int64      `json:"clock_log_id"`
	BreakTypeID     int64      `json:"break_type_id"`
	Name            string     `json:"name"`
	Icon            string     `json:"icon,omitempty"`
	Color           string     `json:"color,omitempty"`
	Date            string     `json:"date"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}

const dateLayout = "2006-01-02"
