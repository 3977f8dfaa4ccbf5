package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccountStatus gates dealers and profiles behind the one-time training step.
type AccountStatus string

const (
	AccountPending AccountStatus = "PENDING"
	AccountActive  AccountStatus = "ACTIVE"
)

// Dealer is a company-level customer account permitted to place wholesale
// orders once its primary holder completes training.
type Dealer struct {
	ID           string        `gorm:"type:uuid;primaryKey" json:"id"`
	CompanyName  string        `gorm:"not null" json:"company_name"`
	TaxID        string        `gorm:"uniqueIndex;not null" json:"tax_id"`
	BusinessType string        `json:"business_type"`
	Status       AccountStatus `gorm:"not null;default:'PENDING'" json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the Dealer model
func (Dealer) TableName() string {
	return "dealers"
}

// BeforeCreate assigns a UUID primary key when none is set
func (d *Dealer) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Profile is one person under a dealer account. The profile that registered
// the dealer is the primary holder and implicitly has ordering rights; other
// profiles order only when CanOrder is granted.
type Profile struct {
	ID           string        `gorm:"type:uuid;primaryKey" json:"id"`
	DealerID     string        `gorm:"type:uuid;not null;index" json:"dealer_id"`
	Email        string        `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string        `gorm:"not null" json:"-"`
	FullName     string        `json:"full_name"`
	Phone        string        `json:"phone"`
	Status       AccountStatus `gorm:"not null;default:'PENDING'" json:"status"`
	IsPrimary    bool          `gorm:"not null;default:false" json:"is_primary"`
	CanOrder     bool          `gorm:"not null;default:false" json:"can_order"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// TableName specifies the table name for the Profile model
func (Profile) TableName() string {
	return "profiles"
}

// BeforeCreate assigns a UUID primary key when none is set
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// MayOrder reports whether this profile is allowed to submit orders: the
// profile must be active and either the primary holder or explicitly granted
// ordering rights.
func (p *Profile) MayOrder() bool {
	return p.Status == AccountActive && (p.IsPrimary || p.CanOrder)
}
