package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentVerified PaymentStatus = "verified"
	PaymentRejected PaymentStatus = "rejected"
)

type Payment struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	// partial unique index: one pending payment per assignment
	AssignmentID uuid.UUID       `gorm:"type:uuid;index;uniqueIndex:idx_payments_one_pending,where:status = 'pending'" json:"assignment_id"`
	StudentID    uuid.UUID       `gorm:"type:uuid;index;not null" json:"student_id"`
	FreelancerID uuid.UUID       `gorm:"type:uuid;index;not null" json:"freelancer_id"`
	Amount       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	UPIID        string          `gorm:"column:upi_id;type:varchar(100)" json:"upi_id"`
	Status       PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	VerifiedBy   *uuid.UUID      `gorm:"type:uuid" json:"verified_by,omitempty"`
	VerifiedAt   *time.Time      `json:"verified_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	Assignment  *Assignment         `gorm:"foreignKey:AssignmentID" json:"assignment,omitempty"`
	Student     *User               `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Freelancer  *User               `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Screenshots []PaymentScreenshot `gorm:"foreignKey:PaymentID" json:"screenshots,omitempty"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type PaymentScreenshot struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PaymentID  uuid.UUID `gorm:"type:uuid;index;not null" json:"payment_id"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (s *PaymentScreenshot) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
