package shift

import (
	"regexp"
	"strings"
	"time"

	"github.com/shiftwise/shift-manager/internal"
)

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

func validDate(raw string) bool {
	_, err := time.Parse(DateLayout, raw)
	return err == nil
}

type CreateShiftDTO struct {
	UserID    int64  `json:"user_id"`
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	// Department defaults to the actor's own department when omitted.
	Department string `json:"department,omitempty"`
	Notes      string `json:"notes,omitempty"`
	// Publish asks for immediate publication. Without the publish permission
	// the shift is silently created as a draft instead.
	Publish bool `json:"publish,omitempty"`
}

func (d CreateShiftDTO) Validate() error {
	if d.UserID == 0 {
		return internal.NewValidationFieldError("user_id", "user_id is required", internal.ErrCodeMissingField)
	}
	if !validDate(d.Date) {
		return internal.NewValidationFieldError("date", "date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if !timeOfDayPattern.MatchString(d.StartTime) {
		return internal.NewValidationFieldError("start_time", "start_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	if !timeOfDayPattern.MatchString(d.EndTime) {
		return internal.NewValidationFieldError("end_time", "end_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	return nil
}

// BulkCreateShiftDTO expands user_ids x the date range into individual shifts.
// Weekdays, when present, keeps only the named days ("monday".."sunday").
type BulkCreateShiftDTO struct {
	UserIDs    []int64  `json:"user_ids"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
	StartTime  string   `json:"start_time"`
	EndTime    string   `json:"end_time"`
	Department string   `json:"department,omitempty"`
	Weekdays   []string `json:"weekdays,omitempty"`
	Notes      string   `json:"notes,omitempty"`
	Publish    bool     `json:"publish,omitempty"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func (d BulkCreateShiftDTO) Validate() error {
	if len(d.UserIDs) == 0 {
		return internal.NewValidationFieldError("user_ids", "user_ids is required", internal.ErrCodeMissingField)
	}
	if !validDate(d.StartDate) {
		return internal.NewValidationFieldError("start_date", "start_date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if !validDate(d.EndDate) {
		return internal.NewValidationFieldError("end_date", "end_date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if d.EndDate < d.StartDate {
		return internal.NewValidationFieldError("end_date", "end_date must not precede start_date", internal.ErrCodeInvalidDate)
	}
	if !timeOfDayPattern.MatchString(d.StartTime) {
		return internal.NewValidationFieldError("start_time", "start_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	if !timeOfDayPattern.MatchString(d.EndTime) {
		return internal.NewValidationFieldError("end_time", "end_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	for _, name := range d.Weekdays {
		if _, ok := weekdayNames[strings.ToLower(name)]; !ok {
			return internal.NewValidationFieldError("weekdays", "unknown weekday: "+name, internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// Dates expands the range, honoring the weekday filter.
func (d BulkCreateShiftDTO) Dates() []string {
	start, _ := time.Parse(DateLayout, d.StartDate)
	end, _ := time.Parse(DateLayout, d.EndDate)

	var keep map[time.Weekday]bool
	if len(d.Weekdays) > 0 {
		keep = make(map[time.Weekday]bool, len(d.Weekdays))
		for _, name := range d.Weekdays {
			keep[weekdayNames[strings.ToLower(name)]] = true
		}
	}

	var dates []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if keep != nil && !keep[day.Weekday()] {
			continue
		}
		dates = append(dates, day.Format(DateLayout))
	}
	return dates
}

type UpdateShiftDTO struct {
	Date       *string `json:"date,omitempty"`
	StartTime  *string `json:"start_time,omitempty"`
	EndTime    *string `json:"end_time,omitempty"`
	Department *string `json:"department,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	// Status is honored only for callers holding the publish permission;
	// everyone else keeps the stored status.
	Status *Status `json:"status,omitempty"`
}

func (d UpdateShiftDTO) Validate() error {
	if d.Date != nil && !validDate(*d.Date) {
		return internal.NewValidationFieldError("date", "date must be YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	if d.StartTime != nil && !timeOfDayPattern.MatchString(*d.StartTime) {
		return internal.NewValidationFieldError("start_time", "start_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	if d.EndTime != nil && !timeOfDayPattern.MatchString(*d.EndTime) {
		return internal.NewValidationFieldError("end_time", "end_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	if d.Status != nil && !IsValidStatus(*d.Status) {
		return internal.NewValidationFieldError("status", "status must be draft or published", internal.ErrCodeValidationFailed)
	}
	return nil
}

type PublishShiftsDTO struct {
	ShiftIDs []int64 `json:"shift_ids"`
}

type ListFilter struct {
	UserID     int64
	Department string
	DateFrom   string
	DateTo     string
	Status     Status
}

type CreateTemplateDTO struct {
	Name       string `json:"name"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Department string `json:"department,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

func (d *CreateTemplateDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeMissingField)
	}
	if !timeOfDayPattern.MatchString(d.StartTime) {
		return internal.NewValidationFieldError("start_time", "start_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	if !timeOfDayPattern.MatchString(d.EndTime) {
		return internal.NewValidationFieldError("end_time", "end_time must be HH:MM", internal.ErrCodeValidationFailed)
	}
	return nil
}
