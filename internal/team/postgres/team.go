package postgres

import (
	"errors"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/team"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DepartmentModel struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	Name       string    `gorm:"column:name;uniqueIndex;not null"`
	Color      string    `gorm:"column:color"`
	Background string    `gorm:"column:background"`
	Active     bool      `gorm:"column:active;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (DepartmentModel) TableName() string { return "departments" }

func (m DepartmentModel) toDomain() team.Department {
	return team.Department{
		ID:         m.ID,
		Name:       m.Name,
		Color:      m.Color,
		Background: m.Background,
		Active:     m.Active,
		CreatedAt:  m.CreatedAt,
	}
}

type JobRoleModel struct {
	ID           int64     `gorm:"primaryKey;column:id"`
	Name         string    `gorm:"column:name;not null"`
	DepartmentID int64     `gorm:"column:department_id"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (JobRoleModel) TableName() string { return "job_roles" }

type JobRoleMemberModel struct {
	ID        int64  `gorm:"primaryKey;column:id"`
	JobRoleID int64  `gorm:"column:job_role_id;not null"`
	UserID    int64  `gorm:"column:user_id;not null"`
	Kind      string `gorm:"column:kind;not null"` // leader or agent
}

func (JobRoleMemberModel) TableName() string { return "job_role_members" }

type RosterModel struct {
	ID        int64     `gorm:"primaryKey;column:id"`
	LeaderID  int64     `gorm:"column:leader_id;not null;uniqueIndex:idx_roster_pair"`
	AgentID   int64     `gorm:"column:agent_id;not null;uniqueIndex:idx_roster_pair"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (RosterModel) TableName() string { return "team_leader_agents" }

type TeamRepository struct {
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) team.Repository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) ListDepartments() ([]team.Department, error) {
	var models []DepartmentModel
	if err := r.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	departments := make([]team.Department, 0, len(models))
	for _, m := range models {
		departments = append(departments, m.toDomain())
	}
	return departments, nil
}

func (r *TeamRepository) CreateDepartment(d *team.Department) error {
	model := DepartmentModel{
		Name:       d.Name,
		Color:      d.Color,
		Background: d.Background,
		Active:     d.Active,
		CreatedAt:  time.Now(),
	}
	if err := r.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.NewConflictError("a department with this name already exists", internal.ErrCodeValidationFailed)
		}
		return err
	}
	d.ID = model.ID
	d.CreatedAt = model.CreatedAt
	return nil
}

func (r *TeamRepository) DeleteDepartment(departmentID int64) error {
	result := r.db.Where("id = ?", departmentID).Delete(&DepartmentModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.NewNotFoundError("department not found", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (r *TeamRepository) ListJobRoles() ([]team.JobRole, error) {
	var models []JobRoleModel
	if err := r.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	jobRoles := make([]team.JobRole, 0, len(models))
	for _, m := range models {
		j := team.JobRole{ID: m.ID, Name: m.Name, DepartmentID: m.DepartmentID, CreatedAt: m.CreatedAt}
		if err := r.loadMembers(&j); err != nil {
			return nil, err
		}
		jobRoles = append(jobRoles, j)
	}
	return jobRoles, nil
}

func (r *TeamRepository) loadMembers(j *team.JobRole) error {
	var members []JobRoleMemberModel
	if err := r.db.Where("job_role_id = ?", j.ID).Find(&members).Error; err != nil {
		return err
	}
	j.LeaderIDs = nil
	j.AgentIDs = nil
	for _, m := range members {
		switch m.Kind {
		case "leader":
			j.LeaderIDs = append(j.LeaderIDs, m.UserID)
		case "agent":
			j.AgentIDs = append(j.AgentIDs, m.UserID)
		}
	}
	return nil
}

func (r *TeamRepository) CreateJobRole(j *team.JobRole) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		model := JobRoleModel{Name: j.Name, DepartmentID: j.DepartmentID, CreatedAt: time.Now()}
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		j.ID = model.ID
		j.CreatedAt = model.CreatedAt
		return saveMembers(tx, j.ID, j.LeaderIDs, j.AgentIDs)
	})
}

func (r *TeamRepository) SetJobRoleMembers(jobRoleID int64, leaderIDs, agentIDs []int64) (*team.JobRole, error) {
	var model JobRoleModel
	if err := r.db.Where("id = ?", jobRoleID).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("job role not found", internal.ErrCodeValidationFailed)
		}
		return nil, err
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_role_id = ?", jobRoleID).Delete(&JobRoleMemberModel{}).Error; err != nil {
			return err
		}
		return saveMembers(tx, jobRoleID, leaderIDs, agentIDs)
	})
	if err != nil {
		return nil, err
	}

	j := &team.JobRole{ID: model.ID, Name: model.Name, DepartmentID: model.DepartmentID, CreatedAt: model.CreatedAt}
	if err := r.loadMembers(j); err != nil {
		return nil, err
	}
	return j, nil
}

func saveMembers(tx *gorm.DB, jobRoleID int64, leaderIDs, agentIDs []int64) error {
	for _, id := range leaderIDs {
		if err := tx.Create(&JobRoleMemberModel{JobRoleID: jobRoleID, UserID: id, Kind: "leader"}).Error; err != nil {
			return err
		}
	}
	for _, id := range agentIDs {
		if err := tx.Create(&JobRoleMemberModel{JobRoleID: jobRoleID, UserID: id, Kind: "agent"}).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *TeamRepository) DeleteJobRole(jobRoleID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_role_id = ?", jobRoleID).Delete(&JobRoleMemberModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("id = ?", jobRoleID).Delete(&JobRoleModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return internal.NewNotFoundError("job role not found", internal.ErrCodeValidationFailed)
		}
		return nil
	})
}

func (r *TeamRepository) RosterAgentIDs(leaderID int64) ([]int64, error) {
	var ids []int64
	err := r.db.Model(&RosterModel{}).
		Where("leader_id = ?", leaderID).
		Pluck("agent_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *TeamRepository) ListRoster(leaderID int64) ([]team.RosterEntry, error) {
	var models []RosterModel
	if err := r.db.Where("leader_id = ?", leaderID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]team.RosterEntry, 0, len(models))
	for _, m := range models {
		entries = append(entries, team.RosterEntry{ID: m.ID, LeaderID: m.LeaderID, AgentID: m.AgentID, CreatedAt: m.CreatedAt})
	}
	return entries, nil
}

// AddRosterEntry is idempotent: re-linking an existing pair is a no-op.
func (r *TeamRepository) AddRosterEntry(leaderID, agentID int64) error {
	model := RosterModel{LeaderID: leaderID, AgentID: agentID, CreatedAt: time.Now()}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "leader_id"}, {Name: "agent_id"}},
		DoNothing: true,
	}).Create(&model).Error
}

func (r *TeamRepository) RemoveRosterEntry(leaderID, agentID int64) error {
	result := r.db.Where("leader_id = ? AND agent_id = ?", leaderID, agentID).Delete(&RosterModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.NewNotFoundError("roster entry not found", internal.ErrCodeValidationFailed)
	}
	return nil
}
