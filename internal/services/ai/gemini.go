package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/config"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

// Gemini generates replies through the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, cfg config.AIConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMisconfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, history []Turn, contextText string) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, t := range history {
		role := genai.Role(genai.RoleUser)
		if t.Role == models.AIRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Content, role))
	}

	chat, err := g.client.Chats.Create(ctx, g.model, nil, contents)
	if err != nil {
		return "", classify(err)
	}
	resp, err := chat.SendMessage(ctx, genai.Part{Text: BuildPrompt(prompt, contextText)})
	if err != nil {
		return "", classify(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("ai: empty response")
	}
	return text, nil
}

// BuildPrompt prefixes the question with the context block when there is one.
func BuildPrompt(prompt, contextText string) string {
	if contextText == "" {
		return prompt
	}
	return "Context: " + contextText + "\n\nUser Question: " + prompt
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, apiErr.Message)
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrMisconfigured, apiErr.Message)
		}
	}
	if strings.Contains(err.Error(), "API key") {
		return fmt.Errorf("%w: %v", ErrMisconfigured, err)
	}
	return err
}
