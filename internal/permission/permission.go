package permission

// Role labels form a closed set. account_admin sits above everyone and never
// consults the stored permission map.
const (
	RoleAccountAdmin = "account_admin"
	RoleManager      = "manager"
	RoleTeamLeader   = "team_leader"
	RoleAgent        = "agent"
)

func KnownRoles() []string {
	return []string{RoleAccountAdmin, RoleManager, RoleTeamLeader, RoleAgent}
}

func IsKnownRole(role string) bool {
	switch role {
	case RoleAccountAdmin, RoleManager, RoleTeamLeader, RoleAgent:
		return true
	}
	return false
}

// Flag identifies a single permission toggle.
type Flag string

const (
	FlagManageShifts        Flag = "manage_shifts"
	FlagPublishShifts       Flag = "publish_shifts"
	FlagViewDrafts          Flag = "view_drafts"
	FlagViewClockLogs       Flag = "view_clock_logs"
	FlagViewOwnLogsOnly     Flag = "view_own_logs_only"
	FlagManageUsers         Flag = "manage_users"
	FlagAssignTeamLeaders   Flag = "assign_team_leaders"
	FlagCanSetActiveStatus  Flag = "can_set_active_status"
	FlagShowShiftsThisMonth Flag = "show_shifts_this_month"
	FlagShowTotalHours      Flag = "show_total_hours"
)

func AllFlags() []Flag {
	return []Flag{
		FlagManageShifts,
		FlagPublishShifts,
		FlagViewDrafts,
		FlagViewClockLogs,
		FlagViewOwnLogsOnly,
		FlagManageUsers,
		FlagAssignTeamLeaders,
		FlagCanSetActiveStatus,
		FlagShowShiftsThisMonth,
		FlagShowTotalHours,
	}
}

// Set is the closed permission record stored per role. A fixed struct instead
// of an open string-keyed map: adding a guard for a flag that does not exist
// fails to compile instead of silently returning false.
type Set struct {
	ManageShifts        bool `json:"manage_shifts"`
	PublishShifts       bool `json:"publish_shifts"`
	ViewDrafts          bool `json:"view_drafts"`
	ViewClockLogs       bool `json:"view_clock_logs"`
	ViewOwnLogsOnly     bool `json:"view_own_logs_only"`
	ManageUsers         bool `json:"manage_users"`
	AssignTeamLeaders   bool `json:"assign_team_leaders"`
	CanSetActiveStatus  bool `json:"can_set_active_status"`
	ShowShiftsThisMonth bool `json:"show_shifts_this_month"`
	ShowTotalHours      bool `json:"show_total_hours"`
}

func (s Set) Has(f Flag) bool {
	switch f {
	case FlagManageShifts:
		return s.ManageShifts
	case FlagPublishShifts:
		return s.PublishShifts
	case FlagViewDrafts:
		return s.ViewDrafts
	case FlagViewClockLogs:
		return s.ViewClockLogs
	case FlagViewOwnLogsOnly:
		return s.ViewOwnLogsOnly
	case FlagManageUsers:
		return s.ManageUsers
	case FlagAssignTeamLeaders:
		return s.AssignTeamLeaders
	case FlagCanSetActiveStatus:
		return s.CanSetActiveStatus
	case FlagShowShiftsThisMonth:
		return s.ShowShiftsThisMonth
	case FlagShowTotalHours:
		return s.ShowTotalHours
	}
	return false
}

// Resolution is the outcome of resolving a role. The admin sentinel is distinct
// from an explicit all-true Set: admin checks must never consult the stored map.
type Resolution struct {
	Role  string `json:"role"`
	Admin bool   `json:"admin"`
	Set   Set    `json:"permissions"`
}

func AdminResolution() Resolution {
	return Resolution{Role: RoleAccountAdmin, Admin: true}
}

func (r Resolution) Has(f Flag) bool {
	if r.Admin {
		return true
	}
	return r.Set.Has(f)
}

// DefaultSets seeds a new deployment. account_admin deliberately has no row.
func DefaultSets() map[string]Set {
	return map[string]Set{
		RoleManager: {
			ManageShifts:        true,
			PublishShifts:       true,
			ViewDrafts:          true,
			ViewClockLogs:       true,
			ManageUsers:         true,
			AssignTeamLeaders:   true,
			CanSetActiveStatus:  true,
			ShowShiftsThisMonth: true,
			ShowTotalHours:      true,
		},
		RoleTeamLeader: {
			ManageShifts:        true,
			ViewClockLogs:       true,
			ShowShiftsThisMonth: true,
			ShowTotalHours:      true,
		},
		RoleAgent: {
			ShowShiftsThisMonth: true,
		},
	}
}
