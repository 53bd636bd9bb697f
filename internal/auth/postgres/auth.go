package postgres

import (
	"errors"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/auth"
	"gorm.io/gorm"
)

// UserModel maps the users table for the auth layer.
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

func (m *UserModel) toRecord() *auth.UserRecord {
	return &auth.UserRecord{
		ID:                 m.ID,
		Email:              m.Email,
		Name:               m.Name,
		Role:               m.Role,
		Department:         m.Department,
		PasswordHash:       m.PasswordHash,
		Active:             m.Active,
		OnboardingComplete: m.OnboardingComplete,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.UserRepository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetByEmail(email string) (*auth.UserRecord, error) {
	var model UserModel
	err := r.db.Where("email = ?", email).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return model.toRecord(), nil
}

func (r *AuthRepository) GetByID(userID int64) (*auth.UserRecord, error) {
	var model UserModel
	err := r.db.Where("id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return model.toRecord(), nil
}

func (r *AuthRepository) Create(record *auth.UserRecord) error {
	model := UserModel{
		Email:              record.Email,
		Name:               record.Name,
		Role:               record.Role,
		Department:         record.Department,
		PasswordHash:       record.PasswordHash,
		Active:             record.Active,
		OnboardingComplete: record.OnboardingComplete,
		CreatedAt:          record.CreatedAt,
		UpdatedAt:          record.UpdatedAt,
	}
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	record.ID = model.ID
	return nil
}
