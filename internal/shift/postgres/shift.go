package postgres

import (
	"errors"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/shift"
	"gorm.io/gorm"
)

type ShiftModel struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	UserID     int64     `gorm:"column:user_id;not null;index"`
	Date       string    `gorm:"column:date;not null;index"`
	StartTime  string    `gorm:"column:start_time;not null"`
	EndTime    string    `gorm:"column:end_time;not null"`
	Department string    `gorm:"column:department"`
	Notes      string    `gorm:"column:notes"`
	Status     string    `gorm:"column:status;not null;default:draft"`
	CreatedBy  int64     `gorm:"column:created_by;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (ShiftModel) TableName() string { return "shifts" }

func (m *ShiftModel) toDomain() shift.Shift {
	return shift.Shift{
		ID:         m.ID,
		UserID:     m.UserID,
		Date:       m.Date,
		StartTime:  m.StartTime,
		EndTime:    m.EndTime,
		Department: m.Department,
		Notes:      m.Notes,
		Status:     shift.Status(m.Status),
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func fromDomain(s *shift.Shift) ShiftModel {
	return ShiftModel{
		ID:         s.ID,
		UserID:     s.UserID,
		Date:       s.Date,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Department: s.Department,
		Notes:      s.Notes,
		Status:     string(s.Status),
		CreatedBy:  s.CreatedBy,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

type TemplateModel struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	Name       string    `gorm:"column:name;not null"`
	StartTime  string    `gorm:"column:start_time;not null"`
	EndTime    string    `gorm:"column:end_time;not null"`
	Department string    `gorm:"column:department"`
	Notes      string    `gorm:"column:notes"`
	CreatedBy  int64     `gorm:"column:created_by;not null"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (TemplateModel) TableName() string { return "shift_templates" }

type ShiftRepository struct {
	db *gorm.DB
}

func NewShiftRepository(db *gorm.DB) shift.Repository {
	return &ShiftRepository{db: db}
}

func (r *ShiftRepository) Create(s *shift.Shift) error {
	now := time.Now()
	model := fromDomain(s)
	model.CreatedAt = now
	model.UpdatedAt = now
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	s.ID = model.ID
	s.CreatedAt = model.CreatedAt
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ShiftRepository) CreateBatch(shifts []*shift.Shift) error {
	now := time.Now()
	models := make([]ShiftModel, 0, len(shifts))
	for _, s := range shifts {
		model := fromDomain(s)
		model.CreatedAt = now
		model.UpdatedAt = now
		models = append(models, model)
	}

	if err := r.db.CreateInBatches(models, 200).Error; err != nil {
		return err
	}
	for i := range models {
		shifts[i].ID = models[i].ID
		shifts[i].CreatedAt = models[i].CreatedAt
		shifts[i].UpdatedAt = models[i].UpdatedAt
	}
	return nil
}

func (r *ShiftRepository) GetByID(shiftID int64) (*shift.Shift, error) {
	var model ShiftModel
	err := r.db.Where("id = ?", shiftID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrShiftNotFound
		}
		return nil, err
	}
	s := model.toDomain()
	return &s, nil
}

func (r *ShiftRepository) Update(s *shift.Shift) error {
	model := fromDomain(s)
	model.UpdatedAt = time.Now()
	result := r.db.Model(&ShiftModel{}).Where("id = ?", s.ID).Updates(map[string]interface{}{
		"user_id":    model.UserID,
		"date":       model.Date,
		"start_time": model.StartTime,
		"end_time":   model.EndTime,
		"department": model.Department,
		"notes":      model.Notes,
		"status":     model.Status,
		"updated_at": model.UpdatedAt,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrShiftNotFound
	}
	s.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *ShiftRepository) Delete(shiftID int64) error {
	result := r.db.Where("id = ?", shiftID).Delete(&ShiftModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrShiftNotFound
	}
	return nil
}

// List orders by date then start time; both are fixed-width strings, so the
// lexical sort is chronological.
func (r *ShiftRepository) List(q shift.Query) ([]shift.Shift, error) {
	query := r.db.Model(&ShiftModel{})

	if q.UserIDs != nil {
		if len(q.UserIDs) == 0 {
			return []shift.Shift{}, nil
		}
		query = query.Where("user_id IN ?", q.UserIDs)
	}
	if len(q.Statuses) > 0 {
		statuses := make([]string, 0, len(q.Statuses))
		for _, s := range q.Statuses {
			statuses = append(statuses, string(s))
		}
		query = query.Where("status IN ?", statuses)
	}
	if q.Department != "" {
		query = query.Where("department = ?", q.Department)
	}
	if q.DateFrom != "" {
		query = query.Where("date >= ?", q.DateFrom)
	}
	if q.DateTo != "" {
		query = query.Where("date <= ?", q.DateTo)
	}

	var models []ShiftModel
	if err := query.Order("date ASC, start_time ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	shifts := make([]shift.Shift, 0, len(models))
	for i := range models {
		shifts = append(shifts, models[i].toDomain())
	}
	return shifts, nil
}

func (r *ShiftRepository) MarkPublished(shiftIDs []int64) (int64, error) {
	result := r.db.Model(&ShiftModel{}).
		Where("id IN ? AND status = ?", shiftIDs, string(shift.StatusDraft)).
		Updates(map[string]interface{}{
			"status":     string(shift.StatusPublished),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *ShiftRepository) PublishAll() (int64, error) {
	result := r.db.Model(&ShiftModel{}).
		Where("status = ?", string(shift.StatusDraft)).
		Updates(map[string]interface{}{
			"status":     string(shift.StatusPublished),
			"updated_at": time.Now(),
		})
	return result.RowsAffected, result.Error
}

func (r *ShiftRepository) CreateTemplate(t *shift.Template) error {
	model := TemplateModel{
		Name:       t.Name,
		StartTime:  t.StartTime,
		EndTime:    t.EndTime,
		Department: t.Department,
		Notes:      t.Notes,
		CreatedBy:  t.CreatedBy,
		CreatedAt:  time.Now(),
	}
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	t.ID = model.ID
	t.CreatedAt = model.CreatedAt
	return nil
}

func (r *ShiftRepository) ListTemplates() ([]shift.Template, error) {
	var models []TemplateModel
	if err := r.db.Order("name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	templates := make([]shift.Template, 0, len(models))
	for _, m := range models {
		templates = append(templates, shift.Template{
			ID:         m.ID,
			Name:       m.Name,
			StartTime:  m.StartTime,
			EndTime:    m.EndTime,
			Department: m.Department,
			Notes:      m.Notes,
			CreatedBy:  m.CreatedBy,
			CreatedAt:  m.CreatedAt,
		})
	}
	return templates, nil
}

func (r *ShiftRepository) DeleteTemplate(templateID int64) error {
	result := r.db.Where("id = ?", templateID).Delete(&TemplateModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrTemplateNotFound
	}
	return nil
}
