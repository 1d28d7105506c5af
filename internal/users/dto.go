package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/pkg/db/models"
	"github.com/marvista/community-portal-backend/pkg/enums"
)

// UserDTO is the transport shape for a community user.
type UserDTO struct {
	ID          uuid.UUID    `json:"id"`
	ClerkUserID string       `json:"clerk_user_id"`
	Email       string       `json:"email"`
	FullName    string       `json:"full_name"`
	UnitNumber  *string      `json:"unit_number,omitempty"`
	PhoneNumber *string      `json:"phone_number,omitempty"`
	Role        string       `json:"role"`
	IsActive    bool         `json:"is_active"`
	LastLoginAt *time.Time   `json:"last_login,omitempty"`
	AppRoles    []AppRoleDTO `json:"app_roles,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// AppRoleDTO is a per-application role grant.
type AppRoleDTO struct {
	AppName string `json:"app"`
	Role    string `json:"role"`
}

// CreateUserDTO holds the data required to persist a new user.
type CreateUserDTO struct {
	ClerkUserID string
	Email       string
	FullName    string
	UnitNumber  *string
	PhoneNumber *string
	Role        enums.UserRole
	IsActive    *bool
}

// UpdateUserDTO carries partial updates; nil fields are left untouched.
type UpdateUserDTO struct {
	ClerkUserID *string
	FullName    *string
	UnitNumber  *string
	PhoneNumber *string
	Role        *enums.UserRole
	IsActive    *bool
}

func FromModel(u *models.CommunityUser) *UserDTO {
	if u == nil {
		return nil
	}

	appRoles := make([]AppRoleDTO, 0, len(u.AppRoles))
	for _, grant := range u.AppRoles {
		appRoles = append(appRoles, AppRoleDTO{AppName: grant.AppName, Role: grant.Role})
	}

	return &UserDTO{
		ID:          u.ID,
		ClerkUserID: u.ClerkUserID,
		Email:       u.Email,
		FullName:    u.FullName,
		UnitNumber:  u.UnitNumber,
		PhoneNumber: u.PhoneNumber,
		Role:        u.Role.String(),
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		AppRoles:    appRoles,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.CommunityUser {
	isActive := true
	if c.IsActive != nil {
		isActive = *c.IsActive
	}

	role := c.Role
	if role == "" {
		role = enums.UserRoleHomeowner
	}

	return &models.CommunityUser{
		ClerkUserID: c.ClerkUserID,
		Email:       c.Email,
		FullName:    c.FullName,
		UnitNumber:  c.UnitNumber,
		PhoneNumber: c.PhoneNumber,
		Role:        role,
		IsActive:    isActive,
	}
}
