package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	FreelancerID uuid.UUID       `gorm:"type:uuid;index;not null" json:"freelancer_id"`
	AssignmentID *uuid.UUID      `gorm:"type:uuid" json:"assignment_id,omitempty"`
	Title        string          `gorm:"type:varchar(200);not null" json:"title"`
	Description  string          `gorm:"type:text;not null" json:"description"`
	Category     string          `gorm:"type:varchar(50);not null;index" json:"category"`
	Tags         datatypes.JSON  `json:"tags"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsActive     bool            `gorm:"not null;index" json:"is_active"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	DeletedAt    gorm.DeletedAt  `gorm:"index" json:"-"`

	Freelancer *User         `gorm:"foreignKey:FreelancerID" json:"freelancer,omitempty"`
	Files      []ProjectFile `gorm:"foreignKey:ProjectID" json:"files,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

type ProjectFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID  uuid.UUID `gorm:"type:uuid;index;not null" json:"project_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `gorm:"type:varchar(100)" json:"file_type"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (f *ProjectFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}

// ProjectPurchase is immutable; (project_id, student_id) is unique.
type ProjectPurchase struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_project_student" json:"project_id"`
	StudentID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_purchase_project_student;index" json:"student_id"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	PurchasedAt time.Time       `gorm:"autoCreateTime" json:"purchased_at"`

	Project *Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (p *ProjectPurchase) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
