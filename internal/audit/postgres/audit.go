package postgres

import (
	"time"

	"github.com/shiftwise/shift-manager/internal/audit"
	"gorm.io/gorm"
)

type AuditLogModel struct {
	ID          int64     `gorm:"primaryKey;column:id"`
	Action      string    `gorm:"column:action;not null"`
	ActorID     int64     `gorm:"column:actor_id;not null"`
	ActorName   string    `gorm:"column:actor_name"`
	Target      string    `gorm:"column:target"`
	PerformedAt time.Time `gorm:"column:performed_at;not null;index"`
}

func (AuditLogModel) TableName() string { return "audit_logs" }

type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(e *audit.Entry) error {
	model := AuditLogModel{
		Action:      e.Action,
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		Target:      e.Target,
		PerformedAt: e.PerformedAt,
	}
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	e.ID = model.ID
	return nil
}

func (r *AuditRepository) List(limit int) ([]audit.Entry, error) {
	var models []AuditLogModel
	if err := r.db.Order("performed_at DESC").Limit(limit).Find(&models).Error; err != nil {
		return nil, err
	}
	entries := make([]audit.Entry, 0, len(models))
	for _, m := range models {
		entries = append(entries, audit.Entry{
			ID:          m.ID,
			Action:      m.Action,
			ActorID:     m.ActorID,
			ActorName:   m.ActorName,
			Target:      m.Target,
			PerformedAt: m.PerformedAt,
		})
	}
	return entries, nil
}
