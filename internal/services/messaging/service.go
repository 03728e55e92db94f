package messaging

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/auth"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/services/notification"
)

const (
	maxContent     = 5000
	threadLimit    = 100
	inboxScanLimit = 2000
)

type Service struct {
	DB       *gorm.DB
	notifier *notification.Service
	logger   zerolog.Logger
	now      func() time.Time
}

func NewService(db *gorm.DB, notifier *notification.Service, logger zerolog.Logger) *Service {
	return &Service{DB: db, notifier: notifier, logger: logger, now: time.Now}
}

type SendInput struct {
	ReceiverID   uuid.UUID
	Content      string
	AssignmentID *uuid.UUID
	ProjectID    *uuid.UUID
	Files        []models.FileRef
}

// ConversationSummary is one row of the inbox: the other participant and
// the latest message exchanged with them.
type ConversationSummary struct {
	OtherUser   *models.User   `json:"other_user"`
	LastMessage models.Message `json:"last_message"`
	UnreadCount int64          `json:"unread_count"`
}

func (s *Service) Send(ctx context.Context, p auth.Principal, in SendInput) (*models.Message, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	in.Content = strings.TrimSpace(in.Content)
	errs := apperr.FieldErrors{}
	if in.Content == "" && len(in.Files) == 0 {
		errs.Add("content", "message content or files are required")
	}
	if utf8.RuneCountInString(in.Content) > maxContent {
		errs.Add("content", fmt.Sprintf("message must be at most %d characters", maxContent))
	}
	if in.ReceiverID == p.UserID {
		errs.Add("receiver_id", "cannot send a message to yourself")
	}
	for _, f := range in.Files {
		if strings.TrimSpace(f.FileName) == "" || strings.TrimSpace(f.FileURL) == "" {
			errs.Add("files", "file name and url are required")
			break
		}
		if f.FileSize > models.MaxFileSize {
			errs.Add("files", "file size must be less than 25MB")
			break
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	msg := &models.Message{
		SenderID:     p.UserID,
		ReceiverID:   in.ReceiverID,
		AssignmentID: in.AssignmentID,
		ProjectID:    in.ProjectID,
		Content:      in.Content,
	}

	var ob notification.Outbox
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var receiver models.User
		if err := tx.Select("id", "role").First(&receiver, "id = ?", in.ReceiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("receiver not found")
			}
			return err
		}
		var sender models.User
		if err := tx.Select("id", "first_name").First(&sender, "id = ?", p.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Unauthorized("sender not found")
			}
			return err
		}

		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		for _, f := range in.Files {
			file := models.MessageFile{
				MessageID: msg.ID,
				FileName:  f.FileName,
				FileURL:   f.FileURL,
				FileSize:  f.FileSize,
				FileType:  f.FileType,
			}
			if err := tx.Create(&file).Error; err != nil {
				return err
			}
			msg.Files = append(msg.Files, file)
		}

		name := strings.TrimSpace(sender.FirstName)
		if name == "" {
			name = "Someone"
		}
		return s.notifier.Write(tx, &ob, models.Notification{
			UserID:  receiver.ID,
			Title:   "New Message",
			Message: name + " sent you a message",
			Type:    models.NotifMessage,
			Link:    "/dashboard/" + inboxSegment(receiver.Role) + "/messages",
		})
	})
	if err != nil {
		return nil, apperr.Typed(err, "failed to send message")
	}

	s.notifier.Flush(ctx, &ob)
	s.logger.Debug().Str("message_id", msg.ID.String()).Str("sender_id", p.UserID.String()).Msg("message sent")
	return msg, nil
}

// Conversation returns the latest messages between the caller and other,
// oldest first, and marks the ones other sent to the caller as read.
func (s *Service) Conversation(ctx context.Context, p auth.Principal, other uuid.UUID, assignmentID *uuid.UUID) ([]models.Message, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	gdb := s.DB.WithContext(ctx)
	q := gdb.Preload("Files").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)", p.UserID, other, other, p.UserID)
	if assignmentID != nil {
		q = q.Where("assignment_id = ?", *assignmentID)
	}

	var latest []models.Message
	if err := q.Order("created_at DESC").Limit(threadLimit).Find(&latest).Error; err != nil {
		return nil, apperr.Internal("failed to load conversation", err)
	}

	mark := gdb.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", other, p.UserID, false)
	if assignmentID != nil {
		mark = mark.Where("assignment_id = ?", *assignmentID)
	}
	if err := mark.Update("is_read", true).Error; err != nil {
		return nil, apperr.Internal("failed to mark messages read", err)
	}

	out := make([]models.Message, len(latest))
	for i, m := range latest {
		if m.SenderID == other {
			m.IsRead = true
		}
		out[len(latest)-1-i] = m
	}
	return out, nil
}

func (s *Service) Conversations(ctx context.Context, p auth.Principal) ([]ConversationSummary, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return nil, err
	}

	gdb := s.DB.WithContext(ctx)
	var msgs []models.Message
	err := gdb.
		Where("sender_id = ? OR receiver_id = ?", p.UserID, p.UserID).
		Order("created_at DESC").
		Limit(inboxScanLimit).
		Find(&msgs).Error
	if err != nil {
		return nil, apperr.Internal("failed to load conversations", err)
	}

	index := map[uuid.UUID]int{}
	out := []ConversationSummary{}
	for _, m := range msgs {
		other := m.SenderID
		if other == p.UserID {
			other = m.ReceiverID
		}
		i, ok := index[other]
		if !ok {
			i = len(out)
			index[other] = i
			out = append(out, ConversationSummary{LastMessage: m})
		}
		if m.ReceiverID == p.UserID && !m.IsRead {
			out[i].UnreadCount++
		}
	}
	if len(out) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, 0, len(index))
	for id := range index {
		ids = append(ids, id)
	}
	var users []models.User
	if err := gdb.Unscoped().Select("id", "first_name", "last_name", "email", "role").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperr.Internal("failed to load participants", err)
	}
	for i := range users {
		out[index[users[i].ID]].OtherUser = &users[i]
	}
	return out, nil
}

// MarkAsRead marks everything other has sent the caller as read.
func (s *Service) MarkAsRead(ctx context.Context, p auth.Principal, other uuid.UUID) (int64, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return 0, err
	}
	res := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", other, p.UserID, false).
		Update("is_read", true)
	if res.Error != nil {
		return 0, apperr.Internal("failed to mark messages read", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *Service) UnreadCount(ctx context.Context, p auth.Principal) (int64, error) {
	if err := p.Require(auth.Everyone...); err != nil {
		return 0, err
	}
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.Message{}).
		Where("receiver_id = ? AND is_read = ?", p.UserID, false).
		Count(&n).Error
	if err != nil {
		return 0, apperr.Internal("failed to count messages", err)
	}
	return n, nil
}

func inboxSegment(r models.Role) string {
	if r.IsAdmin() {
		return "admin"
	}
	return string(r)
}
