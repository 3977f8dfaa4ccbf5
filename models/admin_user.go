package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AdminRole is the back-office role of an administrative identity. The set
// is closed: exactly four roles exist.
type AdminRole string

const (
	RoleAdmin             AdminRole = "admin"
	RoleProductionManager AdminRole = "production_manager"
	RoleCustomerService   AdminRole = "customer_service"
	RoleViewer            AdminRole = "viewer"
)

// IsKnownRole reports whether r is one of the four defined roles.
func IsKnownRole(r AdminRole) bool {
	switch r {
	case RoleAdmin, RoleProductionManager, RoleCustomerService, RoleViewer:
		return true
	}
	return false
}

// AdminUser represents a back-office operator. Deactivation is a soft
// delete; a deactivated user can no longer authenticate.
type AdminUser struct {
	ID           string         `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         AdminRole      `gorm:"not null;default:'viewer'" json:"role"`
	FullName     string         `json:"full_name"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	LastLogin    *time.Time     `json:"last_login,omitempty"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the AdminUser model
func (AdminUser) TableName() string {
	return "admin_users"
}

// BeforeCreate assigns a UUID primary key when none is set
func (u *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
