package postgres

import (
	"errors"
	"strings"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/permission"
	"github.com/shiftwise/shift-manager/internal/user"
	"gorm.io/gorm"
)

type UserModel struct {
	ID                 int64     `gorm:"primaryKey;column:id"`
	Email              string    `gorm:"column:email;uniqueIndex;not null"`
	Name               string    `gorm:"column:name;not null"`
	Role               string    `gorm:"column:role;not null"`
	Department         string    `gorm:"column:department"`
	PasswordHash       string    `gorm:"column:password_hash"`
	Active             bool      `gorm:"column:active;not null;default:true"`
	OnboardingComplete bool      `gorm:"column:onboarding_complete;not null;default:false"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) toDomain() user.User {
	return user.User{
		ID:                 m.ID,
		Email:              m.Email,
		Name:               m.Name,
		Role:               m.Role,
		Department:         m.Department,
		Active:             m.Active,
		OnboardingComplete: m.OnboardingComplete,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

// List excludes account_admin rows at the query level so no caller, admin
// included, ever sees them in listings.
func (r *UserRepository) List(filter user.ListFilter) ([]user.User, error) {
	query := r.db.Model(&UserModel{}).Where("role <> ?", permission.RoleAccountAdmin)

	if filter.Role != "" {
		query = query.Where("role = ?", filter.Role)
	}
	if filter.Department != "" {
		query = query.Where("department = ?", filter.Department)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	if filter.Search != "" {
		like := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", like, like)
	}

	var models []UserModel
	if err := query.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(models))
	for i := range models {
		users = append(users, models[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var model UserModel
	err := r.db.Where("id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	u := model.toDomain()
	return &u, nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var model UserModel
	err := r.db.Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	u := model.toDomain()
	return &u, nil
}

func (r *UserRepository) Create(u *user.User, passwordHash string) error {
	now := time.Now()
	model := UserModel{
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		Department:   u.Department,
		PasswordHash: passwordHash,
		Active:       u.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateEmail
		}
		return err
	}
	u.ID = model.ID
	u.CreatedAt = model.CreatedAt
	u.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *UserRepository) UpdateRole(userID int64, role string) error {
	return r.updateColumns(userID, map[string]interface{}{"role": role})
}

func (r *UserRepository) UpdateDepartment(userID int64, department string) error {
	return r.updateColumns(userID, map[string]interface{}{"department": department})
}

func (r *UserRepository) UpdateActive(userID int64, active bool) error {
	return r.updateColumns(userID, map[string]interface{}{"active": active})
}

func (r *UserRepository) updateColumns(userID int64, columns map[string]interface{}) error {
	columns["updated_at"] = time.Now()
	result := r.db.Model(&UserModel{}).Where("id = ?", userID).Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) Delete(userID int64) error {
	result := r.db.Where("id = ?", userID).Delete(&UserModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}
