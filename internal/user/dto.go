package user

import (
	"errors"

	"github.com/frahmantamala/expense-approval/internal/auth"
)

type CreateUserDTO struct {
	Email    string    `json:"email"`
	Name     string    `json:"name"`
	Password string    `json:"password"`
	Role     auth.Role `json:"role"`
}

func (dto CreateUserDTO) Validate() error {
	if dto.Email == "" {
		return errors.New("email is required")
	}
	if dto.Name == "" {
		return errors.New("name is required")
	}
	if len(dto.Password) < 8 {
		return errors.New("password must be at least 8 characters")
	}
	if !dto.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}

type UpdateUserDTO struct {
	Name     *string    `json:"name,omitempty"`
	Role     *auth.Role `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

func (dto UpdateUserDTO) Validate() error {
	if dto.Role != nil && !dto.Role.Valid() {
		return ErrInvalidRole
	}
	return nil
}
