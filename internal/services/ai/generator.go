package ai

import (
	"context"
	"errors"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

var (
	ErrRateLimited   = errors.New("ai: rate limited")
	ErrMisconfigured = errors.New("ai: misconfigured")
)

// Replies shown in place of a generated answer.
const (
	FallbackRateLimited   = "I'm receiving too many requests right now. Please wait a few seconds and try again."
	FallbackMisconfigured = "AI chat is not properly configured. Please check your API key."
	FallbackGeneric       = "I'm having trouble generating a response right now. Please try again later."
)

// Turn is one prior message of a conversation.
type Turn struct {
	Role    models.AIRole
	Content string
}

// Generator produces a reply to prompt given the prior turns and an optional
// context block. Failures should wrap ErrRateLimited or ErrMisconfigured
// when they are of that kind.
type Generator interface {
	Generate(ctx context.Context, prompt string, history []Turn, contextText string) (string, error)
}

// Unconfigured is the Generator used when no API key is set.
type Unconfigured struct{}

func (Unconfigured) Generate(context.Context, string, []Turn, string) (string, error) {
	return "", ErrMisconfigured
}

func fallbackFor(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return FallbackRateLimited
	case errors.Is(err, ErrMisconfigured):
		return FallbackMisconfigured
	default:
		return FallbackGeneric
	}
}
