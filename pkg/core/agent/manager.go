package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v2"

	"statement_insight/pkg/core/llm"
	"statement_insight/pkg/models"
)

type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Agents         map[string]AgentConfig `yaml:"agents"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Model       string `yaml:"model"`    // Optional model override
	Description string `yaml:"description"`
}

// Agent types used by the insight service.
const (
	AgentNarrator = "narrator"
	AgentChat     = "chat"
)

// ProviderGemini is the default provider name.
const ProviderGemini = "gemini"

// OptionAPIKeys carries per-provider keys (map[string]string, provider name to key).
// The manager forwards only the entry for the resolved provider, as "api_key";
// a bare "api_key" passed by the caller is never forwarded.
const OptionAPIKeys = "api_keys"

// DefaultConfig routes every agent to Gemini.
func DefaultConfig() Config {
	return Config{ActiveProvider: ProviderGemini, Agents: map[string]AgentConfig{}}
}

// LoadConfig reads the provider routing file (config/models.yaml).
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read agent config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse agent config %s: %w", path, err)
	}
	if cfg.Agents == nil {
		cfg.Agents = map[string]AgentConfig{}
	}
	return cfg, nil
}

type Manager struct {
	mu        sync.RWMutex
	config    Config
	providers map[string]llm.Provider
	logger    *slog.Logger
}

func NewManager(config Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config: config,
		logger: logger.With("component", "agent"),
		providers: map[string]llm.Provider{
			ProviderGemini: &llm.GeminiProvider{Model: llm.DefaultGeminiModel},
			"openai":       llm.NewOpenAIProvider(),
			"deepseek":     llm.NewDeepSeekProvider(),
			"qwen":         llm.NewQwenProvider(),
		},
	}
}

// Register adds or replaces a provider under name.
func (m *Manager) Register(name string, p llm.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.providers[name] = p
}

// Available lists registered provider names in sorted order.
func (m *Manager) Available() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for k := range m.providers {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) GetProvider(agentType string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providerLocked(agentType)
}

// ResolveProvider returns the name of the provider that serves agentType.
func (m *Manager) ResolveProvider(agentType string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolveLocked(agentType)
}

func (m *Manager) resolveLocked(agentType string) string {
	// 1. Check for agent-specific override
	if agentConfig, ok := m.config.Agents[agentType]; ok && agentConfig.Provider != "" {
		if _, ok := m.providers[agentConfig.Provider]; ok {
			return agentConfig.Provider
		}
	}

	// 2. Use global active provider
	if _, ok := m.providers[m.config.ActiveProvider]; ok {
		return m.config.ActiveProvider
	}

	// 3. Fallback
	return ProviderGemini
}

func (m *Manager) providerLocked(agentType string) llm.Provider {
	return m.providers[m.resolveLocked(agentType)]
}

// HasCredentials reports whether the provider serving agentType has a key,
// either in keys (by provider name) or in its own environment variables.
func (m *Manager) HasCredentials(agentType string, keys map[string]string) bool {
	m.mu.RLock()
	name := m.resolveLocked(agentType)
	p := m.providers[name]
	m.mu.RUnlock()

	if p == nil {
		return false
	}
	if keys[name] != "" {
		return true
	}
	return llm.HasEnvCredentials(p)
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.providers[name]
}

// withAgentOptions copies options for the resolved provider: the provider's own
// key from OptionAPIKeys, and the agent's model override.
func (m *Manager) withAgentOptions(agentType string, options map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(options)+1)
	for k, v := range options {
		if k == "api_key" || k == OptionAPIKeys {
			continue
		}
		out[k] = v
	}
	if keys, ok := options[OptionAPIKeys].(map[string]string); ok {
		if key := keys[m.resolveLocked(agentType)]; key != "" {
			out["api_key"] = key
		}
	}
	if ac, ok := m.config.Agents[agentType]; ok && ac.Model != "" {
		if _, set := out["model"]; !set {
			out["model"] = ac.Model
		}
	}
	return out
}

// ExecutePrompt handles instruction adaptation before sending to the model
func (m *Manager) ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	m.mu.RLock()
	provider := m.providerLocked(agentType)
	opts := m.withAgentOptions(agentType, options)
	active := m.config.ActiveProvider
	m.mu.RUnlock()

	if provider == nil {
		return "", fmt.Errorf("no provider configured for agent %s", agentType)
	}
	m.logger.Debug("execute prompt", "agent", agentType, "active_provider", active, "provider", fmt.Sprintf("%T", provider))

	adaptedSystemPrompt := provider.AdaptInstructions(rawSystemPrompt)
	return provider.GenerateResponse(ctx, rawPrompt, adaptedSystemPrompt, opts)
}

// ExecuteChat sends a full transcript to the agent's provider.
func (m *Manager) ExecuteChat(ctx context.Context, agentType string, history []models.ChatMessage, rawSystemPrompt string, options map[string]interface{}) (string, error) {
	m.mu.RLock()
	provider := m.providerLocked(agentType)
	opts := m.withAgentOptions(agentType, options)
	m.mu.RUnlock()

	if provider == nil {
		return "", fmt.Errorf("no provider configured for agent %s", agentType)
	}
	m.logger.Debug("execute chat", "agent", agentType, "turns", len(history))

	return provider.GenerateChat(ctx, history, provider.AdaptInstructions(rawSystemPrompt), opts)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	m.logger.Info("global provider switched", "provider", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.ActiveProvider
}
