package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marvista/community-portal-backend/pkg/enums"
)

// CommunityUser is the canonical identity record, keyed locally but linked to
// the hosted identity provider through ClerkUserID.
type CommunityUser struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ClerkUserID string         `gorm:"column:clerk_user_id;type:text;not null;uniqueIndex"`
	Email       string         `gorm:"type:text;not null;uniqueIndex"`
	FullName    string         `gorm:"column:full_name;not null"`
	UnitNumber  *string        `gorm:"column:unit_number"`
	PhoneNumber *string        `gorm:"column:phone_number"`
	Role        enums.UserRole `gorm:"column:role;type:text;not null;default:'homeowner'"`
	IsActive    bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time     `gorm:"column:last_login_at"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`

	AppRoles []UserAppRole `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName keeps the historical table name.
func (CommunityUser) TableName() string {
	return "community_users"
}
