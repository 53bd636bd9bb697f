package team

import (
	"strings"

	"github.com/shiftwise/shift-manager/internal"
)

type CreateDepartmentDTO struct {
	Name       string `json:"name"`
	Color      string `json:"color"`
	Background string `json:"background"`
}

func (d *CreateDepartmentDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeMissingField)
	}
	return nil
}

type CreateJobRoleDTO struct {
	Name         string  `json:"name"`
	DepartmentID int64   `json:"department_id,omitempty"`
	LeaderIDs    []int64 `json:"leader_ids,omitempty"`
	AgentIDs     []int64 `json:"agent_ids,omitempty"`
}

func (d *CreateJobRoleDTO) Validate() error {
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeMissingField)
	}
	return nil
}

type AssignAgentDTO struct {
	AgentID int64 `json:"agent_id"`
}

func (d AssignAgentDTO) Validate() error {
	if d.AgentID == 0 {
		return internal.NewValidationFieldError("agent_id", "agent_id is required", internal.ErrCodeMissingField)
	}
	return nil
}
