package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleFreelancer, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"-"`
	FirstName string    `gorm:"type:varchar(100)" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100)" json:"last_name"`
	Role      Role      `gorm:"type:varchar(20);not null;index" json:"role"`

	// only freelancers are ever stored unapproved
	IsApproved bool `gorm:"not null" json:"is_approved"`

	ReferralCode  *string         `gorm:"type:varchar(20);uniqueIndex" json:"referral_code,omitempty"`
	ReferredBy    *uuid.UUID      `gorm:"type:uuid;index" json:"referred_by,omitempty"`
	RewardBalance decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"reward_balance"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Someone"
}
