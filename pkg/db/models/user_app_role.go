package models

import (
	"time"

	"github.com/google/uuid"
)

// UserAppRole grants a user a role scoped to one registered application.
// A user holds at most one role per application.
type UserAppRole struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_app_roles_user_app"`
	AppName   string    `gorm:"column:app_name;type:text;not null;uniqueIndex:idx_user_app_roles_user_app"`
	Role      string    `gorm:"column:role;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName keeps the historical table name.
func (UserAppRole) TableName() string {
	return "user_app_roles"
}
