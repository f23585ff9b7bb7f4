package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"statement_insight/pkg/models"
)

const maxTokens = 2048

// OpenAICompatibleProvider talks to OpenAI and to vendors exposing the same
// chat-completions API (DeepSeek, DashScope/Qwen).
type OpenAICompatibleProvider struct {
	Name    string   // provider name used in errors
	BaseURL string   // empty for api.openai.com
	Model   string   // default model
	EnvKeys []string // environment variables holding the API key, in order
	Style   string   // instruction prefix applied by AdaptInstructions
}

var _ Provider = (*OpenAICompatibleProvider)(nil)

func NewOpenAIProvider() *OpenAICompatibleProvider {
	return &OpenAICompatibleProvider{
		Name:    "openai",
		Model:   openai.GPT4oMini,
		EnvKeys: []string{"OPENAI_API_KEY"},
	}
}

func NewDeepSeekProvider() *OpenAICompatibleProvider {
	return &OpenAICompatibleProvider{
		Name:    "deepseek",
		BaseURL: "https://api.deepseek.com/v1",
		Model:   "deepseek-chat",
		EnvKeys: []string{"DEEPSEEK_API_KEY"},
	}
}

// NewQwenProvider uses DashScope's OpenAI-compatible endpoint.
func NewQwenProvider() *OpenAICompatibleProvider {
	return &OpenAICompatibleProvider{
		Name:    "qwen",
		BaseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1",
		Model:   "qwen-max",
		EnvKeys: []string{"DASHSCOPE_API_KEY", "QWEN_API_KEY"},
	}
}

func (p *OpenAICompatibleProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	return p.GenerateChat(ctx, []models.ChatMessage{{Role: models.RoleUser, Content: prompt}}, systemPrompt, options)
}

func (p *OpenAICompatibleProvider) GenerateChat(ctx context.Context, history []models.ChatMessage, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey, err := resolveAPIKey(options, p.EnvKeys...)
	if err != nil {
		return "", err
	}

	cfg := openai.DefaultConfig(apiKey)
	if p.BaseURL != "" {
		cfg.BaseURL = p.BaseURL
	}
	client := openai.NewClientWithConfig(cfg)

	req := openai.ChatCompletionRequest{
		Model:     modelOption(options, p.Model),
		Messages:  toOpenAIMessages(history, systemPrompt),
		MaxTokens: maxTokens,
	}
	if t, ok := temperatureOption(options); ok {
		req.Temperature = t
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%s chat completion failed: %w", p.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

func (p *OpenAICompatibleProvider) APIKeyEnvVars() []string {
	return p.EnvKeys
}

func (p *OpenAICompatibleProvider) AdaptInstructions(raw string) string {
	if p.Style == "" {
		return raw
	}
	return p.Style + raw
}

func toOpenAIMessages(history []models.ChatMessage, systemPrompt string) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	for _, m := range history {
		role := openai.ChatMessageRoleUser
		if m.Role == models.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return msgs
}
