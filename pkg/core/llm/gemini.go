package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"statement_insight/pkg/models"
)

// DefaultGeminiModel is used when neither the provider nor the options name a model.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiProvider implements the Provider interface for Google's Gemini models.
type GeminiProvider struct {
	Model string // e.g. "gemini-2.5-flash"
}

// Ensure interface compliance
var _ Provider = (*GeminiProvider)(nil)

// GenerateResponse sends a single-turn generateContent request.
func (p *GeminiProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	return p.generate(ctx, genai.Text(prompt), systemPrompt, options)
}

// GenerateChat sends the whole conversation; assistant turns map to the "model" role.
func (p *GeminiProvider) GenerateChat(ctx context.Context, history []models.ChatMessage, systemPrompt string, options map[string]interface{}) (string, error) {
	contents := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := genai.RoleUser
		if m.Role == models.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return p.generate(ctx, contents, systemPrompt, options)
}

func (p *GeminiProvider) generate(ctx context.Context, contents []*genai.Content, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey, err := resolveAPIKey(options, p.APIKeyEnvVars()...)
	if err != nil {
		return "", err
	}

	model := modelOption(options, p.Model)
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	config := &genai.GenerateContentConfig{}
	if t, ok := temperatureOption(options); ok {
		config.Temperature = genai.Ptr(t)
	}
	if systemPrompt != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: systemPrompt},
			},
		}
	}

	result, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (p *GeminiProvider) APIKeyEnvVars() []string {
	return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
}

func (p *GeminiProvider) AdaptInstructions(raw string) string {
	return raw
}
