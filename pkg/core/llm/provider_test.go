package llm

import (
	"errors"
	"fmt"
	"testing"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"statement_insight/pkg/models"
)

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("INSIGHT_TEST_KEY_A", "")
	t.Setenv("INSIGHT_TEST_KEY_B", "from-env")

	key, err := resolveAPIKey(map[string]interface{}{"api_key": "from-options"}, "INSIGHT_TEST_KEY_B")
	if err != nil || key != "from-options" {
		t.Fatalf("options key: got %q, %v", key, err)
	}

	key, err = resolveAPIKey(nil, "INSIGHT_TEST_KEY_A", "INSIGHT_TEST_KEY_B")
	if err != nil || key != "from-env" {
		t.Fatalf("env fallback: got %q, %v", key, err)
	}

	_, err = resolveAPIKey(map[string]interface{}{"api_key": ""}, "INSIGHT_TEST_KEY_A")
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestOptionHelpers(t *testing.T) {
	if got := modelOption(map[string]interface{}{"model": "m1"}, "fallback"); got != "m1" {
		t.Errorf("modelOption = %q", got)
	}
	if got := modelOption(nil, "fallback"); got != "fallback" {
		t.Errorf("modelOption fallback = %q", got)
	}
	if v, ok := temperatureOption(map[string]interface{}{"temperature": 0.3}); !ok || v != float32(0.3) {
		t.Errorf("temperatureOption = %v, %v", v, ok)
	}
	if _, ok := temperatureOption(map[string]interface{}{"temperature": "hot"}); ok {
		t.Error("non-numeric temperature should be ignored")
	}
}

func TestToOpenAIMessages(t *testing.T) {
	history := []models.ChatMessage{
		{Role: models.RoleUser, Content: "q1"},
		{Role: models.RoleAssistant, Content: "a1"},
		{Role: models.RoleUser, Content: "q2"},
	}
	msgs := toOpenAIMessages(history, "sys")
	if len(msgs) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(msgs))
	}
	wantRoles := []string{
		openai.ChatMessageRoleSystem,
		openai.ChatMessageRoleUser,
		openai.ChatMessageRoleAssistant,
		openai.ChatMessageRoleUser,
	}
	for i, want := range wantRoles {
		if msgs[i].Role != want {
			t.Errorf("msg %d role = %s, want %s", i, msgs[i].Role, want)
		}
	}

	if got := toOpenAIMessages(history, ""); len(got) != 3 {
		t.Errorf("empty system prompt should be omitted, got %d messages", len(got))
	}
}

func TestIsAPIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("dial tcp: timeout"), false},
		{"genai value", fmt.Errorf("wrap: %w", genai.APIError{Code: 400, Message: "API key not valid"}), true},
		{"openai", fmt.Errorf("wrap: %w", &openai.APIError{HTTPStatusCode: 401, Message: "bad key"}), true},
	}
	for _, tc := range cases {
		if got := IsAPIError(tc.err); got != tc.want {
			t.Errorf("%s: IsAPIError = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestProvidersRejectMissingKeyBeforeCalling(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	t.Setenv("DEEPSEEK_API_KEY", "")

	providers := map[string]Provider{
		"gemini":   &GeminiProvider{},
		"deepseek": NewDeepSeekProvider(),
	}
	for name, p := range providers {
		_, err := p.GenerateResponse(t.Context(), "hello", "", nil)
		if !errors.Is(err, ErrMissingAPIKey) {
			t.Errorf("%s: expected ErrMissingAPIKey, got %v", name, err)
		}
	}
}

func TestAdaptInstructions(t *testing.T) {
	p := NewQwenProvider()
	if got := p.AdaptInstructions("x"); got != "x" {
		t.Errorf("no style: got %q", got)
	}
	p.Style = "Be concise. "
	if got := p.AdaptInstructions("x"); got != "Be concise. x" {
		t.Errorf("style: got %q", got)
	}
}

func TestHasEnvCredentials(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if HasEnvCredentials(NewDeepSeekProvider()) {
		t.Error("deepseek has no key in the environment")
	}
	if HasEnvCredentials(&GeminiProvider{}) {
		t.Error("gemini has no key in the environment")
	}

	t.Setenv("DEEPSEEK_API_KEY", "sk-deepseek")
	if !HasEnvCredentials(NewDeepSeekProvider()) {
		t.Error("DEEPSEEK_API_KEY should satisfy the deepseek provider")
	}
	if HasEnvCredentials(&GeminiProvider{}) {
		t.Error("another vendor's key must not satisfy gemini")
	}
}
