package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentDraft      AssignmentStatus = "draft"
	AssignmentPosted     AssignmentStatus = "posted"
	AssignmentAssigned   AssignmentStatus = "assigned"
	AssignmentInProgress AssignmentStatus = "in_progress"
	AssignmentSubmitted  AssignmentStatus = "submitted"
	AssignmentCompleted  AssignmentStatus = "completed"
	AssignmentPaid       AssignmentStatus = "paid"
)

var Categories = []string{
	"Blockchain",
	"Cybersecurity",
	"Web Development",
	"Edge Computing",
	"Fog Computing",
	"Machine Learning",
	"Data Science",
	"Cloud Computing",
	"Mobile Development",
	"DevOps",
	"Other",
}

func IsCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}

type Assignment struct {
	ID                uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	StudentID         uuid.UUID        `gorm:"type:uuid;index;not null" json:"student_id"`
	Title             string           `gorm:"type:varchar(200);not null" json:"title"`
	Description       string           `gorm:"type:text;not null" json:"description"`
	Category          string           `gorm:"type:varchar(50);index" json:"category"`
	Tags              datatypes.JSON   `json:"tags"`
	Deadline          time.Time        `gorm:"not null" json:"deadline"`
	Price             *decimal.Decimal `gorm:"type:decimal(10,2)" json:"price,omitempty"`
	VideoRequirements string           `gorm:"type:text" json:"video_requirements,omitempty"`
	Status            AssignmentStatus `gorm:"type:varchar(20);not null;index" json:"status"`

	// the single freelancer whose acceptance moved the assignment out of posted
	AcceptedBy *uuid.UUID `gorm:"type:uuid;index" json:"accepted_by,omitempty"`

	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Student    *User                 `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Freelancer *User                 `gorm:"foreignKey:AcceptedBy" json:"freelancer,omitempty"`
	Files      []AssignmentFile      `gorm:"foreignKey:AssignmentID" json:"files,omitempty"`
	Acceptance *AssignmentFreelancer `gorm:"foreignKey:AssignmentID" json:"acceptance,omitempty"`
}

func (a *Assignment) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}

type AssignmentFile struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID uuid.UUID `gorm:"type:uuid;index;not null" json:"assignment_id"`
	FileName     string    `gorm:"not null" json:"file_name"`
	FileURL      string    `gorm:"not null" json:"file_url"`
	FileSize     int64     `json:"file_size"`
	FileType     string    `gorm:"type:varchar(100)" json:"file_type"`
	UploadedBy   uuid.UUID `gorm:"type:uuid" json:"uploaded_by"`
	CreatedAt    time.Time `json:"created_at"`
}

func (f *AssignmentFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}

// AssignmentFreelancer is the acceptance record; assignment_id is unique so an
// assignment can be claimed at most once.
type AssignmentFreelancer struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssignmentID    uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"assignment_id"`
	FreelancerID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"freelancer_id"`
	AcceptedAt      time.Time      `json:"accepted_at"`
	StartedAt       *time.Time     `json:"started_at,omitempty"`
	SubmittedAt     *time.Time     `json:"submitted_at,omitempty"`
	SubmittedFiles  datatypes.JSON `json:"submitted_files"`
	SubmissionNotes string         `gorm:"type:text" json:"submission_notes,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

func (af *AssignmentFreelancer) BeforeCreate(tx *gorm.DB) (err error) {
	if af.ID == uuid.Nil {
		af.ID = uuid.New()
	}
	return
}
