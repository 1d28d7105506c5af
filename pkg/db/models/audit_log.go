package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records a user-scoped action against a community service.
type AuditLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      *uuid.UUID `gorm:"column:user_id;type:uuid;index"`
	ServiceName string     `gorm:"column:service_name;type:text;not null"`
	Action      string     `gorm:"column:action;type:text;not null"`
	Resource    *string    `gorm:"column:resource"`
	IPAddress   *string    `gorm:"column:ip_address"`
	UserAgent   *string    `gorm:"column:user_agent"`
	Extra       *string    `gorm:"column:extra"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// TableName keeps the historical table name.
func (AuditLog) TableName() string {
	return "audit_logs"
}
