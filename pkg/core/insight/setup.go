package insight

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"statement_insight/pkg/core/agent"
	"statement_insight/pkg/core/calc"
	"statement_insight/pkg/core/config"
	"statement_insight/pkg/core/prompt"
)

// Setup builds the agent manager, prompt registry and service from process config.
// A missing models file or prompt directory falls back to built-in defaults.
func Setup(cfg *config.Config, logger *slog.Logger) (*Service, *agent.Manager, error) {
	agentCfg, err := agent.LoadConfig(cfg.ModelsFile)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Warn("models file not found, using defaults", "path", cfg.ModelsFile)
		agentCfg = agent.DefaultConfig()
	case err != nil:
		return nil, nil, err
	}
	agents := agent.NewManager(agentCfg, logger)

	prompts := prompt.NewRegistry()
	if err := prompt.LoadDefaults(prompts); err != nil {
		return nil, nil, fmt.Errorf("load built-in prompts: %w", err)
	}
	promptDir := resolveResources(cfg.PromptDir)
	if err := prompt.LoadFromDirectory(prompts, promptDir); err != nil {
		logger.Debug("no prompt overrides loaded", "dir", promptDir, "error", err)
	} else {
		logger.Info("prompt library loaded", "dir", promptDir, "count", prompts.Count())
	}

	svc := NewService(Options{
		Agents:   agents,
		Prompts:  prompts,
		Cache:    calc.NewCache(cfg.CacheEntries),
		Patterns: cfg.Patterns(),
		Logger:   logger,
	})
	return svc, agents, nil
}

// resolveResources tries the working directory, then the executable's directory.
func resolveResources(dir string) string {
	if _, err := os.Stat(dir); err == nil || filepath.IsAbs(dir) {
		return dir
	}
	exePath, err := os.Executable()
	if err != nil {
		return dir
	}
	return filepath.Join(filepath.Dir(exePath), dir)
}
