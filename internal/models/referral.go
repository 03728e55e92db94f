package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ReferralReward is credited to the referrer once per referral.
var ReferralReward = decimal.NewFromInt(15)

type Referral struct {
	ID           uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ReferrerID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"referrer_id"`
	ReferredID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"referred_id"`
	AssignmentID *uuid.UUID       `gorm:"type:uuid" json:"assignment_id,omitempty"`
	RewardAmount *decimal.Decimal `gorm:"type:decimal(10,2)" json:"reward_amount,omitempty"`
	IsVerified   bool             `gorm:"not null;index" json:"is_verified"`
	VerifiedBy   *uuid.UUID       `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt   *time.Time       `json:"verified_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`

	Referred *User `gorm:"foreignKey:ReferredID" json:"referred,omitempty"`
}

func (r *Referral) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return
}
