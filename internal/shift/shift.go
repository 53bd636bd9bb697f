package shift

import "time"

// Status is the shift lifecycle. Drafts are staging; only published shifts
// exist as far as agents are concerned.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func IsValidStatus(s Status) bool {
	return s == StatusDraft || s == StatusPublished
}

// Shift is one scheduled block of work. Dates are calendar days stored as
// "2006-01-02" strings and times as "HH:MM"; both orderings are lexical, so
// the store never parses them.
type Shift struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Date       string    `json:"date"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Department string    `json:"department,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Status     Status    `json:"status"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Template is a reusable time block for quick shift entry.
type Template struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Department string    `json:"department,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedBy  int64     `json:"created_by"`
	CreatedAt  time.Time `json:"created_at"`
}

const DateLayout = "2006-01-02"
