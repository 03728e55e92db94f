package ai

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
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

const (
	maxContent = 5000
	titleLen   = 50
)

// AssignmentReader resolves an assignment the caller is allowed to see.
type AssignmentReader interface {
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*models.Assignment, error)
}

type Assistant struct {
	DB          *gorm.DB
	gen         Generator
	assignments AssignmentReader
	logger      zerolog.Logger
	retryDelay  time.Duration
	historySize int
}

func NewAssistant(db *gorm.DB, gen Generator, assignments AssignmentReader, cfg config.AIConfig, logger zerolog.Logger) *Assistant {
	history := cfg.HistorySize
	if history <= 0 {
		history = 8
	}
	return &Assistant{
		DB:          db,
		gen:         gen,
		assignments: assignments,
		logger:      logger,
		retryDelay:  cfg.RetryDelay,
		historySize: history,
	}
}

type SendInput struct {
	Content        string
	AssignmentID   *uuid.UUID
	ConversationID *uuid.UUID
}

type Reply struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	UserMessage    models.AIMessage `json:"user_message"`
	Message        models.AIMessage `json:"message"`
}

// Send stores the caller's message, asks the generator for an answer and
// stores that too. Generator failures become a canned reply.
func (a *Assistant) Send(ctx context.Context, p auth.Principal, in SendInput) (*Reply, error) {
	if err := p.Require(auth.AIUsers...); err != nil {
		return nil, err
	}
	in.Content = strings.TrimSpace(in.Content)
	if n := utf8.RuneCountInString(in.Content); n < 1 || n > maxContent {
		return nil, apperr.Validation("content", fmt.Sprintf("message must be between 1 and %d characters", maxContent))
	}

	gdb := a.DB.WithContext(ctx)
	conv, err := a.conversationFor(gdb, p, in)
	if err != nil {
		return nil, err
	}

	history, err := a.history(gdb, conv.ID)
	if err != nil {
		return nil, err
	}

	userMsg := models.AIMessage{ConversationID: conv.ID, Role: models.AIRoleUser, Content: in.Content}
	if err := gdb.Create(&userMsg).Error; err != nil {
		return nil, apperr.Internal("failed to save message", err)
	}

	assignmentID := in.AssignmentID
	if assignmentID == nil {
		assignmentID = conv.AssignmentID
	}
	answer := a.generate(ctx, in.Content, history, a.contextFor(ctx, p, assignmentID))

	reply := models.AIMessage{ConversationID: conv.ID, Role: models.AIRoleAssistant, Content: answer}
	if err := gdb.Create(&reply).Error; err != nil {
		return nil, apperr.Internal("failed to save reply", err)
	}
	if err := gdb.Model(&models.AIConversation{}).Where("id = ?", conv.ID).Update("updated_at", time.Now()).Error; err != nil {
		a.logger.Warn().Err(err).Str("conversation_id", conv.ID.String()).Msg("failed to touch conversation")
	}

	return &Reply{ConversationID: conv.ID, UserMessage: userMsg, Message: reply}, nil
}

func (a *Assistant) generate(ctx context.Context, prompt string, history []Turn, contextText string) string {
	text, err := a.gen.Generate(ctx, prompt, history, contextText)
	if errors.Is(err, ErrRateLimited) {
		a.logger.Warn().Dur("retry_in", a.retryDelay).Msg("ai rate limited, retrying once")
		select {
		case <-time.After(a.retryDelay):
			text, err = a.gen.Generate(ctx, prompt, history, contextText)
		case <-ctx.Done():
			err = ctx.Err()
		}
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("ai generation failed")
		return fallbackFor(err)
	}
	return text
}

func (a *Assistant) conversationFor(gdb *gorm.DB, p auth.Principal, in SendInput) (*models.AIConversation, error) {
	var conv models.AIConversation
	if in.ConversationID != nil {
		err := gdb.Where("id = ? AND user_id = ?", *in.ConversationID, p.UserID).First(&conv).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("conversation not found")
		}
		if err != nil {
			return nil, apperr.Internal("failed to load conversation", err)
		}
		return &conv, nil
	}

	conv = models.AIConversation{
		UserID:       p.UserID,
		AssignmentID: in.AssignmentID,
		Title:        truncate(in.Content, titleLen),
	}
	if err := gdb.Create(&conv).Error; err != nil {
		return nil, apperr.Internal("failed to create conversation", err)
	}
	return &conv, nil
}

// history returns the latest persisted turns, oldest first.
func (a *Assistant) history(gdb *gorm.DB, conversationID uuid.UUID) ([]Turn, error) {
	var latest []models.AIMessage
	err := gdb.Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(a.historySize).
		Find(&latest).Error
	if err != nil {
		return nil, apperr.Internal("failed to load history", err)
	}
	turns := make([]Turn, len(latest))
	for i, m := range latest {
		turns[len(latest)-1-i] = Turn{Role: m.Role, Content: m.Content}
	}
	return turns, nil
}

// contextFor describes the assignment when the caller may see it.
func (a *Assistant) contextFor(ctx context.Context, p auth.Principal, id *uuid.UUID) string {
	if id == nil || a.assignments == nil {
		return ""
	}
	asg, err := a.assignments.Get(ctx, p, *id)
	if err != nil {
		a.logger.Debug().Err(err).Str("assignment_id", id.String()).Msg("assignment context skipped")
		return ""
	}
	return fmt.Sprintf("Assignment: %s\nDescription: %s\nCategory: %s\nDeadline: %s",
		asg.Title, asg.Description, asg.Category, asg.Deadline.UTC().Format("2006-01-02"))
}

func (a *Assistant) Conversations(ctx context.Context, p auth.Principal) ([]models.AIConversation, error) {
	if err := p.Require(auth.AIUsers...); err != nil {
		return nil, err
	}
	var out []models.AIConversation
	err := a.DB.WithContext(ctx).Where("user_id = ?", p.UserID).Order("updated_at DESC").Find(&out).Error
	if err != nil {
		return nil, apperr.Internal("failed to list conversations", err)
	}
	return out, nil
}

func (a *Assistant) Messages(ctx context.Context, p auth.Principal, conversationID uuid.UUID) ([]models.AIMessage, error) {
	if err := p.Require(auth.AIUsers...); err != nil {
		return nil, err
	}
	gdb := a.DB.WithContext(ctx)
	var conv models.AIConversation
	err := gdb.Select("id").Where("id = ? AND user_id = ?", conversationID, p.UserID).First(&conv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("conversation not found")
	}
	if err != nil {
		return nil, apperr.Internal("failed to load conversation", err)
	}

	var out []models.AIMessage
	if err := gdb.Where("conversation_id = ?", conv.ID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, apperr.Internal("failed to load messages", err)
	}
	return out, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}
