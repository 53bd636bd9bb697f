package team

import "time"

// Department groups users for shift visibility and filtering. Color and
// background drive the schedule UI; inactive departments stay referenced by
// existing users but disappear from pickers.
type Department struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Color      string    `json:"color,omitempty"`
	Background string    `json:"background,omitempty"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// JobRole is an organisational label within a department. Assigning agents and
// leaders to the same job role auto-links the agents into those leaders'
// rosters.
type JobRole struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	DepartmentID int64     `json:"department_id,omitempty"`
	LeaderIDs    []int64   `json:"leader_ids"`
	AgentIDs     []int64   `json:"agent_ids"`
	CreatedAt    time.Time `json:"created_at"`
}

// RosterEntry links one agent to one team leader. The roster is the canonical
// scope for what a leader can see and manage.
type RosterEntry struct {
	ID        int64     `json:"id"`
	LeaderID  int64     `json:"leader_id"`
	AgentID   int64     `json:"agent_id"`
	CreatedAt time.Time `json:"created_at"`
}
