package admin

import (
	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/internal/users"
)

// CreateUserRequest is the admin-console create payload.
type CreateUserRequest struct {
	ClerkUserID string  `json:"clerk_user_id" validate:"required"`
	Email       string  `json:"email" validate:"required,email"`
	FullName    string  `json:"full_name" validate:"required"`
	UnitNumber  *string `json:"unit_number"`
	PhoneNumber *string `json:"phone_number"`
	Role        string  `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

// UpdateUserRequest carries partial updates; omitted fields stay unchanged.
type UpdateUserRequest struct {
	FullName    *string `json:"full_name"`
	UnitNumber  *string `json:"unit_number"`
	PhoneNumber *string `json:"phone_number"`
	Role        *string `json:"role"`
	IsActive    *bool   `json:"is_active"`
}

// AssignRoleRequest upserts one per-application role grant, addressed by the
// target user's email.
type AssignRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	App   string `json:"app" validate:"required"`
	Role  string `json:"role" validate:"required"`
}

// RemoveRoleRequest drops one per-application role grant.
type RemoveRoleRequest struct {
	Email string `json:"email" validate:"required,email"`
	App   string `json:"app" validate:"required"`
}

// ListUsersResponse wraps the user collection.
type ListUsersResponse struct {
	Users []*users.UserDTO `json:"users"`
	Total int              `json:"total"`
}

// RoleAssignmentResponse reports the grant after an upsert.
type RoleAssignmentResponse struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	App    string    `json:"app"`
	Role   string    `json:"role"`
}
