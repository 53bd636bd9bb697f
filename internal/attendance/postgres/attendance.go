package postgres

import (
	"errors"
	"time"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/attendance"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClockLogModel maps clock_logs. A partial unique index on user_id where
// clock_out is null makes the open span per user unique; the insert either
// lands or hits the index, so concurrent clock-ins cannot both open a row.
type ClockLogModel struct {
	ID       int64      `gorm:"primaryKey;column:id"`
	UserID   int64      `gorm:"column:user_id;not null;index"`
	Date     string     `gorm:"column:date;not null"`
	ClockIn  time.Time  `gorm:"column:clock_in;not null"`
	ClockOut *time.Time `gorm:"column:clock_out"`
	IP       string     `gorm:"column:ip"`
}

func (ClockLogModel) TableName() string { return "clock_logs" }

func (m *ClockLogModel) toDomain() attendance.ClockLog {
	return attendance.ClockLog{
		ID:       m.ID,
		UserID:   m.UserID,
		Date:     m.Date,
		ClockIn:  m.ClockIn,
		ClockOut: m.ClockOut,
		IP:       m.IP,
	}
}

type AvailabilityModel struct {
	UserID      int64      `gorm:"primaryKey;column:user_id"`
	Online      bool       `gorm:"column:online;not null;default:false"`
	OnBreak     bool       `gorm:"column:on_break;not null;default:false"`
	BreakName   string     `gorm:"column:break_name"`
	BreakIcon   string     `gorm:"column:break_icon"`
	BreakColor  string     `gorm:"column:break_color"`
	ClockedInAt *time.Time `gorm:"column:clocked_in_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at"`
}

func (AvailabilityModel) TableName() string { return "availability" }

func (m *AvailabilityModel) toDomain() attendance.Availability {
	return attendance.Availability{
		UserID:      m.UserID,
		Online:      m.Online,
		OnBreak:     m.OnBreak,
		BreakName:   m.BreakName,
		BreakIcon:   m.BreakIcon,
		BreakColor:  m.BreakColor,
		ClockedInAt: m.ClockedInAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type BreakTypeModel struct {
	ID         int64  `gorm:"primaryKey;column:id"`
	Name       string `gorm:"column:name;not null"`
	Icon       string `gorm:"column:icon"`
	Color      string `gorm:"column:color"`
	MaxMinutes int    `gorm:"column:max_minutes;not null;default:0"`
	Active     bool   `gorm:"column:active;not null;default:true"`
	SortOrder  int    `gorm:"column:sort_order;not null;default:0"`
}

func (BreakTypeModel) TableName() string { return "break_types" }

func (m *BreakTypeModel) toDomain() attendance.BreakType {
	return attendance.BreakType{
		ID:         m.ID,
		Name:       m.Name,
		Icon:       m.Icon,
		Color:      m.Color,
		MaxMinutes: m.MaxMinutes,
		Active:     m.Active,
		SortOrder:  m.SortOrder,
	}
}

type BreakLogModel struct {
	ID              int64      `gorm:"primaryKey;column:id"`
	UserID          int64      `gorm:"column:user_id;not null;index"`
	ClockLogID      int64      `gorm:"column:clock_log_id;not null"`
	BreakTypeID     int64      `gorm:"column:break_type_id;not null"`
	Name            string     `gorm:"column:name;not null"`
	Icon            string     `gorm:"column:icon"`
	Color           string     `gorm:"column:color"`
	Date            string     `gorm:"column:date;not null"`
	StartedAt       time.Time  `gorm:"column:started_at;not null"`
	EndedAt         *time.Time `gorm:"column:ended_at"`
	DurationMinutes int        `gorm:"column:duration_minutes;not null;default:0"`
}

func (BreakLogModel) TableName() string { return "break_logs" }

func (m *BreakLogModel) toDomain() attendance.BreakLog {
	return attendance.BreakLog{
		ID:              m.ID,
		UserID:          m.UserID,
		ClockLogID:      m.ClockLogID,
		BreakTypeID:     m.BreakTypeID,
		Name:            m.Name,
		Icon:            m.Icon,
		Color:           m.Color,
		Date:            m.Date,
		StartedAt:       m.StartedAt,
		EndedAt:         m.EndedAt,
		DurationMinutes: m.DurationMinutes,
	}
}

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) attendance.Repository {
	return &AttendanceRepository{db: db}
}

func (r *AttendanceRepository) InsertOpenLog(log *attendance.ClockLog) (bool, error) {
	model := ClockLogModel{
		UserID:  log.UserID,
		Date:    log.Date,
		ClockIn: log.ClockIn,
		IP:      log.IP,
	}
	if err := r.db.Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	log.ID = model.ID
	return true, nil
}

// GetOpenLog returns the user's open span, or nil when there is none.
func (r *AttendanceRepository) GetOpenLog(userID int64) (*attendance.ClockLog, error) {
	var model ClockLogModel
	err := r.db.Where("user_id = ? AND clock_out IS NULL", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	log := model.toDomain()
	return &log, nil
}

func (r *AttendanceRepository) CloseLog(logID int64, at time.Time) error {
	result := r.db.Model(&ClockLogModel{}).
		Where("id = ? AND clock_out IS NULL", logID).
		Update("clock_out", at)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrNotClockedIn
	}
	return nil
}

// ListLogs orders newest date first, latest clock-in first within a date.
func (r *AttendanceRepository) ListLogs(q attendance.LogQuery) ([]attendance.ClockLog, error) {
	query := r.db.Model(&ClockLogModel{})

	if q.UserIDs != nil {
		if len(q.UserIDs) == 0 {
			return []attendance.ClockLog{}, nil
		}
		query = query.Where("clock_logs.user_id IN ?", q.UserIDs)
	}
	if q.Department != "" {
		query = query.
			Joins("JOIN users ON users.id = clock_logs.user_id").
			Where("users.department = ?", q.Department)
	}
	if q.DateFrom != "" {
		query = query.Where("clock_logs.date >= ?", q.DateFrom)
	}
	if q.DateTo != "" {
		query = query.Where("clock_logs.date <= ?", q.DateTo)
	}

	var models []ClockLogModel
	if err := query.Order("clock_logs.date DESC, clock_logs.clock_in DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	logs := make([]attendance.ClockLog, 0, len(models))
	for i := range models {
		logs = append(logs, models[i].toDomain())
	}
	return logs, nil
}

func (r *AttendanceRepository) UpsertAvailability(a *attendance.Availability) error {
	model := AvailabilityModel{
		UserID:      a.UserID,
		Online:      a.Online,
		OnBreak:     a.OnBreak,
		BreakName:   a.BreakName,
		BreakIcon:   a.BreakIcon,
		BreakColor:  a.BreakColor,
		ClockedInAt: a.ClockedInAt,
		UpdatedAt:   a.UpdatedAt,
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"online", "on_break", "break_name", "break_icon", "break_color", "clocked_in_at", "updated_at",
		}),
	}).Create(&model).Error
}

func (r *AttendanceRepository) GetAvailability(userID int64) (*attendance.Availability, error) {
	var model AvailabilityModel
	err := r.db.Where("user_id = ?", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	a := model.toDomain()
	return &a, nil
}

func (r *AttendanceRepository) ListAvailability() ([]attendance.Availability, error) {
	var models []AvailabilityModel
	if err := r.db.Order("user_id ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	availability := make([]attendance.Availability, 0, len(models))
	for i := range models {
		availability = append(availability, models[i].toDomain())
	}
	return availability, nil
}

func (r *AttendanceRepository) CreateBreakType(bt *attendance.BreakType) error {
	model := BreakTypeModel{
		Name:       bt.Name,
		Icon:       bt.Icon,
		Color:      bt.Color,
		MaxMinutes: bt.MaxMinutes,
		Active:     bt.Active,
		SortOrder:  bt.SortOrder,
	}
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	bt.ID = model.ID
	return nil
}

func (r *AttendanceRepository) ListBreakTypes() ([]attendance.BreakType, error) {
	var models []BreakTypeModel
	if err := r.db.Order("sort_order ASC, name ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	breakTypes := make([]attendance.BreakType, 0, len(models))
	for i := range models {
		breakTypes = append(breakTypes, models[i].toDomain())
	}
	return breakTypes, nil
}

func (r *AttendanceRepository) GetBreakType(breakTypeID int64) (*attendance.BreakType, error) {
	var model BreakTypeModel
	err := r.db.Where("id = ?", breakTypeID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrBreakTypeNotFound
		}
		return nil, err
	}
	bt := model.toDomain()
	return &bt, nil
}

func (r *AttendanceRepository) UpdateBreakType(bt *attendance.BreakType) error {
	result := r.db.Model(&BreakTypeModel{}).Where("id = ?", bt.ID).Updates(map[string]interface{}{
		"name":        bt.Name,
		"icon":        bt.Icon,
		"color":       bt.Color,
		"max_minutes": bt.MaxMinutes,
		"active":      bt.Active,
		"sort_order":  bt.SortOrder,
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrBreakTypeNotFound
	}
	return nil
}

func (r *AttendanceRepository) DeleteBreakType(breakTypeID int64) error {
	result := r.db.Where("id = ?", breakTypeID).Delete(&BreakTypeModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrBreakTypeNotFound
	}
	return nil
}

func (r *AttendanceRepository) StartBreak(b *attendance.BreakLog) error {
	model := BreakLogModel{
		UserID:      b.UserID,
		ClockLogID:  b.ClockLogID,
		BreakTypeID: b.BreakTypeID,
		Name:        b.Name,
		Icon:        b.Icon,
		Color:       b.Color,
		Date:        b.Date,
		StartedAt:   b.StartedAt,
	}
	if err := r.db.Create(&model).Error; err != nil {
		return err
	}
	b.ID = model.ID
	return nil
}

func (r *AttendanceRepository) GetActiveBreak(userID int64) (*attendance.BreakLog, error) {
	var model BreakLogModel
	err := r.db.Where("user_id = ? AND ended_at IS NULL", userID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	b := model.toDomain()
	return &b, nil
}

func (r *AttendanceRepository) EndBreak(breakID int64, at time.Time, durationMinutes int) error {
	result := r.db.Model(&BreakLogModel{}).
		Where("id = ? AND ended_at IS NULL", breakID).
		Updates(map[string]interface{}{
			"ended_at":         at,
			"duration_minutes": durationMinutes,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return internal.ErrNoActiveBreak
	}
	return nil
}
