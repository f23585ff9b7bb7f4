// Package config loads process settings from the environment (after an
// optional .env file) and builds the structured logger.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"statement_insight/pkg/core/calc"
)

// EnvPrefix prefixes every variable, e.g. INSIGHT_PORT.
const EnvPrefix = "INSIGHT"

// Config holds the settings shared by the API server and the CLI.
type Config struct {
	Port         int           `envconfig:"PORT" default:"8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"120s"` // covers one blocking LLM call
	ModelsFile   string        `envconfig:"MODELS_FILE" default:"config/models.yaml"`
	PromptDir    string        `envconfig:"PROMPT_DIR" default:"resources"`
	Locale       string        `envconfig:"LOCALE" default:"en"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"json"`
	MaxUploadMB  int64         `envconfig:"MAX_UPLOAD_MB" default:"10"`
	CacheEntries int           `envconfig:"CACHE_ENTRIES" default:"64"`
	// Falls back to the unprefixed GEMINI_API_KEY.
	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
}

// Load reads .env files (missing files are ignored) and then the environment.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the services cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if _, err := calc.PatternsForLocale(c.Locale); err != nil {
		return err
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Patterns returns the label patterns for the configured locale.
func (c *Config) Patterns() calc.Patterns {
	p, err := calc.PatternsForLocale(c.Locale)
	if err != nil {
		return calc.EnglishPatterns
	}
	return p
}

// MaxUploadBytes is the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

// ParseLevel maps debug/info/warn/error onto slog levels.
func ParseLevel(level string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
	return l, nil
}

// NewLogger builds a JSON or text slog logger writing to w.
func NewLogger(level, format string, w io.Writer) *slog.Logger {
	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h).With("service", "statement_insight")
}
