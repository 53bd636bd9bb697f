package postgres

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/shiftwise/shift-manager/internal/permission"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RolePermissions is the stored form: one jsonb blob per role.
type RolePermissions struct {
	Role        string    `gorm:"primaryKey;column:role"`
	Permissions string    `gorm:"column:permissions;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (RolePermissions) TableName() string {
	return "role_permissions"
}

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.Repository {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) GetSet(role string) (permission.Set, error) {
	var row RolePermissions
	err := r.db.Where("role = ?", role).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return permission.Set{}, permission.ErrRoleSetMissing
		}
		return permission.Set{}, err
	}

	var set permission.Set
	if err := json.Unmarshal([]byte(row.Permissions), &set); err != nil {
		return permission.Set{}, err
	}
	return set, nil
}

func (r *PermissionRepository) UpsertSet(role string, set permission.Set) error {
	blob, err := json.Marshal(set)
	if err != nil {
		return err
	}

	row := RolePermissions{
		Role:        role,
		Permissions: string(blob),
		UpdatedAt:   time.Now(),
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}},
		DoUpdates: clause.AssignmentColumns([]string{"permissions", "updated_at"}),
	}).Create(&row).Error
}
