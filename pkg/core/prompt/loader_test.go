package prompt

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatalf("LoadDefaults: %v", err)
	}

	for _, id := range []string{PromptIDs.Narrative, PromptIDs.Chat, "insight.narrative_vi", "insight.chat_vi"} {
		if _, err := r.GetPrompt(id); err != nil {
			t.Errorf("expected default prompt %s: %v", id, err)
		}
	}
	if got := len(r.ListByCategory("insight")); got != 4 {
		t.Errorf("expected 4 prompts in category insight, got %d", got)
	}
}

func TestRenderNarrative(t *testing.T) {
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatal(err)
	}
	pt, err := r.Lookup(PromptIDs.Narrative, "en")
	if err != nil {
		t.Fatal(err)
	}

	ctx := NewContext().Set("Payload", "| a | b |")
	user, err := RenderUserPrompt(pt, ctx)
	if err != nil {
		t.Fatalf("RenderUserPrompt: %v", err)
	}
	if !strings.Contains(user, "| a | b |") {
		t.Errorf("payload not rendered into user prompt: %q", user)
	}

	sys, err := RenderSystemPrompt(pt, ctx)
	if err != nil {
		t.Fatalf("RenderSystemPrompt: %v", err)
	}
	if !strings.Contains(sys, "3-4 paragraphs") {
		t.Errorf("unexpected system prompt: %q", sys)
	}
}

func TestRender_MissingVariable(t *testing.T) {
	pt := &PromptTemplate{ID: "t", UserPromptTmpl: "{{.Payload}}"}
	if _, err := RenderUserPrompt(pt, NewContext()); err == nil {
		t.Error("expected an error for a missing template variable")
	}
}

func TestLookup_LocaleFallback(t *testing.T) {
	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatal(err)
	}

	pt, err := r.Lookup(PromptIDs.Chat, "vi")
	if err != nil || pt.ID != "insight.chat_vi" {
		t.Errorf("expected vietnamese chat prompt, got %v, %v", pt, err)
	}
	pt, err = r.Lookup(PromptIDs.Chat, "de")
	if err != nil || pt.ID != PromptIDs.Chat {
		t.Errorf("expected fallback to base prompt, got %v, %v", pt, err)
	}
	if _, err := r.Lookup("missing", "en"); err == nil {
		t.Error("expected an error for an unknown prompt")
	}
}

func TestLoadFromDirectory_Overrides(t *testing.T) {
	dir := t.TempDir()
	promptDir := filepath.Join(dir, "prompts", "insight")
	if err := os.MkdirAll(promptDir, 0755); err != nil {
		t.Fatal(err)
	}
	override := `{
  # comments are allowed
  system_prompt: Be brief.
  user_prompt_template: "{{.Payload}}"
}`
	if err := os.WriteFile(filepath.Join(promptDir, "narrative.hjson"), []byte(override), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(promptDir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	r := NewRegistry()
	if err := LoadDefaults(r); err != nil {
		t.Fatal(err)
	}
	before := r.Count()
	if err := LoadFromDirectory(r, dir); err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}
	if r.Count() != before {
		t.Errorf("override should replace, not add: %d -> %d", before, r.Count())
	}

	pt, err := r.GetPrompt(PromptIDs.Narrative)
	if err != nil {
		t.Fatal(err)
	}
	if pt.SystemPrompt != "Be brief." {
		t.Errorf("expected override system prompt, got %q", pt.SystemPrompt)
	}
	if pt.Category != "insight" {
		t.Errorf("expected category from folder, got %q", pt.Category)
	}
}

func TestLoadFromDirectory_Missing(t *testing.T) {
	if err := LoadFromDirectory(NewRegistry(), t.TempDir()); err == nil {
		t.Error("expected an error when the prompts directory is absent")
	}
}

func TestRegistry_RejectsEmptyID(t *testing.T) {
	if err := NewRegistry().Register(&PromptTemplate{}); err == nil {
		t.Error("expected an error for an empty ID")
	}
}
