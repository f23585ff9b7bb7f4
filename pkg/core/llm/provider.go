package llm

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"

	"statement_insight/pkg/models"
)

// Provider is the interface for all LLM providers.
//
// Recognized options: "api_key" (string, overrides the provider's env var),
// "model" (string), "temperature" (float64).
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// GenerateChat continues a conversation; history ends with the newest user message.
	GenerateChat(ctx context.Context, history []models.ChatMessage, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into model-specific formats
	AdaptInstructions(rawInstructions string) string
}

// ErrMissingAPIKey is returned when neither the options nor the environment provide a key.
var ErrMissingAPIKey = errors.New("api key not provided")

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("model returned an empty response")

// KeySource is implemented by providers that read their key from the environment.
type KeySource interface {
	APIKeyEnvVars() []string
}

// HasEnvCredentials reports whether one of p's key variables is set.
// Providers that do not expose their variables are assumed to manage their own credentials.
func HasEnvCredentials(p Provider) bool {
	ks, ok := p.(KeySource)
	if !ok {
		return true
	}
	for _, name := range ks.APIKeyEnvVars() {
		if os.Getenv(name) != "" {
			return true
		}
	}
	return false
}

// resolveAPIKey prefers options["api_key"], then the listed environment variables.
func resolveAPIKey(options map[string]interface{}, envVars ...string) (string, error) {
	if val, ok := options["api_key"].(string); ok && val != "" {
		return val, nil
	}
	for _, name := range envVars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: set one of %v", ErrMissingAPIKey, envVars)
}

func modelOption(options map[string]interface{}, fallback string) string {
	if val, ok := options["model"].(string); ok && val != "" {
		return val
	}
	return fallback
}

func temperatureOption(options map[string]interface{}) (float32, bool) {
	switch v := options["temperature"].(type) {
	case float64:
		return float32(v), true
	case float32:
		return v, true
	}
	return 0, false
}

// IsAPIError reports whether err came back from a provider API (rejected key,
// quota, bad request) rather than from the network or this process.
func IsAPIError(err error) bool {
	if err == nil {
		return false
	}
	var gv genai.APIError
	if errors.As(err, &gv) {
		return true
	}
	var gp *genai.APIError
	if errors.As(err, &gp) {
		return true
	}
	var oe *openai.APIError
	if errors.As(err, &oe) {
		return true
	}
	var re *openai.RequestError
	return errors.As(err, &re)
}
