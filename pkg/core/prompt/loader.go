package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	hjson "github.com/hjson/hjson-go/v4"
)

//go:embed defaults
var defaultPrompts embed.FS

// LoadDefaults registers the prompts embedded in the binary.
func LoadDefaults(r *Registry) error {
	if err := loadPrompts(r, defaultPrompts, "defaults"); err != nil {
		return fmt.Errorf("failed to load default prompts: %w", err)
	}
	return nil
}

// LoadFromDirectory loads prompts from a directory structure, overriding
// defaults with the same ID.
// Expected structure:
//
//	baseDir/
//	  prompts/
//	    insight/
//	      narrative.hjson
//	      chat.hjson
func LoadFromDirectory(r *Registry, baseDir string) error {
	promptDir := filepath.Join(baseDir, "prompts")
	if _, err := os.Stat(promptDir); os.IsNotExist(err) {
		return fmt.Errorf("prompts directory not found: %s", promptDir)
	}
	if err := loadPrompts(r, os.DirFS(promptDir), "."); err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}
	return nil
}

// loadPrompts recursively loads all .hjson and .json files under root
func loadPrompts(r *Registry, fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		ext := path.Ext(p)
		if d.IsDir() || (ext != ".hjson" && ext != ".json") {
			return nil
		}

		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		// Hjson is a superset of JSON, so one decoder covers both formats.
		var pt PromptTemplate
		if err := hjson.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", p, err)
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if pt.ID == "" {
			pt.ID = generateIDFromPath(rel)
		}
		if pt.Category == "" {
			pt.Category = detectCategory(rel)
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

// generateIDFromPath creates a prompt ID from the relative file path
// e.g., "insight/narrative.hjson" -> "insight.narrative"
func generateIDFromPath(rel string) string {
	rel = strings.TrimSuffix(rel, path.Ext(rel))
	return strings.ReplaceAll(rel, "/", ".")
}

// detectCategory extracts the category from the folder structure
func detectCategory(rel string) string {
	parts := strings.Split(rel, "/")
	if len(parts) > 1 {
		return parts[0]
	}
	return "default"
}

// RenderSystemPrompt executes the system prompt template with the given context
func RenderSystemPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	return render(pt.ID+".system", pt.SystemPrompt, ctx)
}

// RenderUserPrompt executes the user prompt template with the given context
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	return render(pt.ID+".user", pt.UserPromptTmpl, ctx)
}

func render(name, tmplText string, ctx *PromptExecutionContext) (string, error) {
	if tmplText == "" {
		return "", nil
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
