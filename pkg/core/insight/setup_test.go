package insight

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"statement_insight/pkg/core/config"
)

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	models := filepath.Join(dir, "models.yaml")
	if err := os.WriteFile(models, []byte("active_provider: qwen\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	override := filepath.Join(dir, "prompts", "insight")
	if err := os.MkdirAll(override, 0o755); err != nil {
		t.Fatal(err)
	}
	custom := "{\n  id: insight.narrative\n  system_prompt: Be brief.\n  user_prompt_template: \"{{.Payload}}\"\n}\n"
	if err := os.WriteFile(filepath.Join(override, "narrative.hjson"), []byte(custom), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{ModelsFile: models, PromptDir: dir, Locale: "vi", CacheEntries: 4}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, agents, err := Setup(cfg, logger)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if agents.GetActiveProvider() != "qwen" {
		t.Errorf("active provider = %s", agents.GetActiveProvider())
	}
	if svc.Patterns().Locale != "vi" {
		t.Errorf("locale = %s", svc.Patterns().Locale)
	}
	pt, err := svc.prompts.GetPrompt("insight.narrative")
	if err != nil || pt.SystemPrompt != "Be brief." {
		t.Errorf("override not applied: %+v, %v", pt, err)
	}
	if _, err := svc.prompts.GetPrompt("insight.chat"); err != nil {
		t.Errorf("defaults should remain: %v", err)
	}
}

func TestSetupMissingFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{ModelsFile: filepath.Join(dir, "none.yaml"), PromptDir: filepath.Join(dir, "none"), Locale: "en"}
	svc, agents, err := Setup(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if agents.GetActiveProvider() != "gemini" {
		t.Errorf("active provider = %s", agents.GetActiveProvider())
	}
	if svc.prompts.Count() != 4 {
		t.Errorf("expected the 4 built-in prompts, got %d", svc.prompts.Count())
	}
}
