package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Message struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SenderID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"sender_id"`
	ReceiverID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"receiver_id"`
	AssignmentID *uuid.UUID `gorm:"type:uuid;index" json:"assignment_id,omitempty"`
	ProjectID    *uuid.UUID `gorm:"type:uuid;index" json:"project_id,omitempty"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	IsRead       bool       `gorm:"not null;index" json:"is_read"`
	CreatedAt    time.Time  `gorm:"index" json:"created_at"`

	Sender   *User         `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Receiver *User         `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Files    []MessageFile `gorm:"foreignKey:MessageID" json:"files,omitempty"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return
}

type MessageFile struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MessageID  uuid.UUID `gorm:"type:uuid;index;not null" json:"message_id"`
	FileName   string    `gorm:"not null" json:"file_name"`
	FileURL    string    `gorm:"not null" json:"file_url"`
	FileSize   int64     `json:"file_size"`
	FileType   string    `gorm:"type:varchar(100)" json:"file_type"`
	IsVideo    bool      `gorm:"not null" json:"is_video"`
	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (f *MessageFile) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	f.IsVideo = strings.HasPrefix(f.FileType, "video/")
	return
}
