package attendance

import (
	"strings"

	"github.com/shiftwise/shift-manager/internal"
)

type StartBreakDTO struct {
	BreakTypeID int64 `json:"break_type_id"`
}

func (d StartBreakDTO) Validate() error {
	if d.BreakTypeID == 0 {
		return internal.NewValidationFieldError("break_type_id", "break_type_id is required", internal.ErrCodeMissingField)
	}
	return nil
}

type BreakTypeDTO struct {
	Name       string `json:"name"`
	Icon       string `json:"icon"`
	Color      string `json:"color"`
	MaxMinutes int    `json:"max_minutes"`
	Active     bool   `json:"active"`
	SortOrder  int    `json:"sort_order"`
}

func (d *BreakTypeDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeMissingField)
	}
	if d.MaxMinutes < 0 {
		return internal.NewValidationFieldError("max_minutes", "max_minutes must not be negative", internal.ErrCodeValidationFailed)
	}
	return nil
}

type LogFilter struct {
	UserID   int64
	DateFrom string
	DateTo   string
}
