package user

import (
	"strings"

	"github.com/shiftwise/shift-manager/internal"
	"github.com/shiftwise/shift-manager/internal/permission"
)

type CreateUserDTO struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       string `json:"role,omitempty"`
	Department string `json:"department,omitempty"`
	Password   string `json:"password,omitempty"`
}

func (d *CreateUserDTO) Validate() error {
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	if d.Email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeMissingField)
	}
	if !strings.Contains(d.Email, "@") {
		return internal.NewValidationFieldError("email", "email is not valid", internal.ErrCodeValidationFailed)
	}
	if d.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeMissingField)
	}
	if d.Role == "" {
		d.Role = permission.RoleAgent
	}
	if !permission.IsKnownRole(d.Role) {
		return internal.ErrUnknownRole
	}
	return nil
}

type SetRoleDTO struct {
	Role string `json:"role"`
}

func (d SetRoleDTO) Validate() error {
	if d.Role == "" {
		return internal.NewValidationFieldError("role", "role is required", internal.ErrCodeMissingField)
	}
	if !permission.IsKnownRole(d.Role) {
		return internal.ErrUnknownRole
	}
	return nil
}

type SetDepartmentDTO struct {
	Department string `json:"department"`
}

type SetActiveDTO struct {
	Active bool `json:"active"`
}

type ListFilter struct {
	Role       string
	Department string
	Active     *bool
	Search     string
}
