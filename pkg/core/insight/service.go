// Package insight ties the derivation engine to the language model: it runs an
// analysis for an uploaded statement, asks for a narrative review and answers
// follow-up questions against the same figures.
package insight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strings"

	"statement_insight/pkg/core/agent"
	"statement_insight/pkg/core/calc"
	"statement_insight/pkg/core/llm"
	"statement_insight/pkg/core/narrative"
	"statement_insight/pkg/core/prompt"
	"statement_insight/pkg/core/sheet"
	"statement_insight/pkg/core/utils"
	"statement_insight/pkg/models"
)

var (
	// ErrMissingAPIKey is returned before any model call when no key was supplied.
	ErrMissingAPIKey = errors.New("an API key is required")
	// ErrEmptyMessage is returned for a blank chat message.
	ErrEmptyMessage = errors.New("message must not be empty")
)

// Analysis is the derived view of one statement.
type Analysis struct {
	Table     *models.FinancialTable
	Liquidity models.LiquidityRatios
	Patterns  calc.Patterns
	Warnings  []string
	// Payload is the markdown handed to the model for narrative and chat.
	Payload string
}

// ShortTermAssetsGrowth is the growth of the short-term assets row, if present.
func (a *Analysis) ShortTermAssetsGrowth() (float64, bool) {
	return calc.ShortTermAssetsGrowth(a.Table, a.Patterns)
}

// Reply is text for display. Failed marks a provider error rendered as text.
type Reply struct {
	Text   string
	Failed bool
}

// ModelRunner is the part of agent.Manager the service needs.
type ModelRunner interface {
	ExecutePrompt(ctx context.Context, agentType string, rawPrompt string, rawSystemPrompt string, options map[string]interface{}) (string, error)
	ExecuteChat(ctx context.Context, agentType string, history []models.ChatMessage, rawSystemPrompt string, options map[string]interface{}) (string, error)
	ResolveProvider(agentType string) string
	HasCredentials(agentType string, keys map[string]string) bool
}

var _ ModelRunner = (*agent.Manager)(nil)

// Service runs analyses and model requests for uploaded statements.
type Service struct {
	agents   ModelRunner
	prompts  *prompt.Registry
	cache    *calc.Cache
	patterns calc.Patterns
	logger   *slog.Logger

	Sessions *SessionStore
}

// Options configures NewService.
type Options struct {
	Agents   ModelRunner
	Prompts  *prompt.Registry
	Cache    *calc.Cache   // optional
	Patterns calc.Patterns // zero value selects English
	Logger   *slog.Logger  // optional
}

// NewService creates a service with an empty session store.
func NewService(opts Options) *Service {
	if opts.Cache == nil {
		opts.Cache = calc.NewCache(calc.DefaultCacheEntries)
	}
	if opts.Patterns == (calc.Patterns{}) {
		opts.Patterns = calc.EnglishPatterns
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		agents:   opts.Agents,
		prompts:  opts.Prompts,
		cache:    opts.Cache,
		patterns: opts.Patterns,
		logger:   opts.Logger.With("component", "insight"),
		Sessions: NewSessionStore(),
	}
}

// Patterns returns the active label patterns.
func (s *Service) Patterns() calc.Patterns {
	return s.patterns
}

// Labels returns display headings matching the active locale.
func (s *Service) Labels() narrative.Labels {
	return narrative.LabelsFor(s.patterns)
}

// Analyze derives the table and liquidity ratios and builds the model payload.
// A missing total-assets row fails the whole analysis.
func (s *Service) Analyze(rows []models.FinancialRow) (*Analysis, error) {
	table, err := s.cache.Derive(rows, s.patterns)
	if err != nil {
		return nil, fmt.Errorf("derive table: %w", err)
	}

	ratios := calc.ComputeLiquidityRatios(table, s.patterns)
	a := &Analysis{
		Table:     table,
		Liquidity: ratios,
		Patterns:  s.patterns,
		Warnings:  liquidityWarnings(ratios, s.patterns),
		Payload:   narrative.BuildPayload(table, ratios, s.patterns),
	}
	s.logger.Debug("analysis complete", "rows", len(table.Rows), "anchor", table.AnchorIndex, "liquidity", ratios.Available())
	return a, nil
}

// AnalyzeUpload reads an .xlsx upload, analyzes it and opens a session.
func (s *Service) AnalyzeUpload(r io.Reader, source string) (*Session, error) {
	rows, err := sheet.ReadStatement(r)
	if err != nil {
		return nil, err
	}
	a, err := s.Analyze(rows)
	if err != nil {
		return nil, err
	}
	sess := s.Sessions.Create(source, a)
	s.logger.Info("session created", "session", sess.ID, "source", source, "rows", len(rows), "warnings", len(a.Warnings))
	return sess, nil
}

func liquidityWarnings(r models.LiquidityRatios, p calc.Patterns) []string {
	if !r.Available() {
		return []string{fmt.Sprintf("%q or %q row not found: current ratio unavailable", p.ShortTermAssets, p.ShortTermLiabilities)}
	}
	var out []string
	for _, v := range []*float64{r.Prior, r.Current} {
		if math.IsInf(*v, 0) || math.IsNaN(*v) {
			out = append(out, "short-term liabilities are zero: current ratio is not finite")
			break
		}
	}
	return out
}

// modelOptions checks that the provider serving agentType has a key and builds
// the request options. geminiKey (from the request or GEMINI_API_KEY) is offered
// to the gemini provider only; other providers read their own variables.
func (s *Service) modelOptions(agentType, geminiKey string) (map[string]interface{}, error) {
	keys := map[string]string{}
	if k := strings.TrimSpace(geminiKey); k != "" {
		keys[agent.ProviderGemini] = k
	}
	if !s.agents.HasCredentials(agentType, keys) {
		return nil, fmt.Errorf("%w for provider %s", ErrMissingAPIKey, s.agents.ResolveProvider(agentType))
	}
	return map[string]interface{}{agent.OptionAPIKeys: keys}, nil
}

// Narrate asks the narrator agent for a review of the analysis. Provider
// failures come back as a Failed reply, not an error.
func (s *Service) Narrate(ctx context.Context, apiKey string, a *Analysis) (Reply, error) {
	opts, err := s.modelOptions(agent.AgentNarrator, apiKey)
	if err != nil {
		return Reply{}, err
	}
	pt, err := s.prompts.Lookup(prompt.PromptIDs.Narrative, a.Patterns.Locale)
	if err != nil {
		return Reply{}, err
	}
	pctx := prompt.NewContext().Set("Payload", a.Payload)
	sys, err := prompt.RenderSystemPrompt(pt, pctx)
	if err != nil {
		return Reply{}, err
	}
	user, err := prompt.RenderUserPrompt(pt, pctx)
	if err != nil {
		return Reply{}, err
	}

	out, err := s.agents.ExecutePrompt(ctx, agent.AgentNarrator, user, sys, opts)
	if err != nil {
		s.logger.Warn("narrative request failed", "error", err)
		return Reply{Text: FailureText(err, a.Patterns.Locale), Failed: true}, nil
	}
	return Reply{Text: utils.CleanMarkdown(out)}, nil
}

// NarrateSession runs Narrate and remembers the text on the session.
func (s *Service) NarrateSession(ctx context.Context, sess *Session, apiKey string) (Reply, error) {
	reply, err := s.Narrate(ctx, apiKey, sess.Analysis)
	if err != nil {
		return Reply{}, err
	}
	sess.setNarrative(reply.Text)
	return reply, nil
}

// Chat appends the user message, sends the full transcript with the derived
// table to the chat agent, and appends the reply (or the failure text).
// Turns on one session are serialized.
func (s *Service) Chat(ctx context.Context, sess *Session, apiKey, message string) (Reply, error) {
	opts, err := s.modelOptions(agent.AgentChat, apiKey)
	if err != nil {
		return Reply{}, err
	}
	if strings.TrimSpace(message) == "" {
		return Reply{}, ErrEmptyMessage
	}
	a := sess.Analysis
	pt, err := s.prompts.Lookup(prompt.PromptIDs.Chat, a.Patterns.Locale)
	if err != nil {
		return Reply{}, err
	}
	sys, err := prompt.RenderSystemPrompt(pt, prompt.NewContext().Set("Payload", a.Payload))
	if err != nil {
		return Reply{}, err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.transcript = append(sess.transcript, models.ChatMessage{Role: models.RoleUser, Content: message})
	history := make([]models.ChatMessage, len(sess.transcript))
	copy(history, sess.transcript)

	reply := Reply{}
	out, err := s.agents.ExecuteChat(ctx, agent.AgentChat, history, sys, opts)
	if err != nil {
		s.logger.Warn("chat request failed", "session", sess.ID, "error", err)
		reply = Reply{Text: FailureText(err, a.Patterns.Locale), Failed: true}
	} else {
		reply.Text = utils.CleanMarkdown(out)
	}
	sess.transcript = append(sess.transcript, models.ChatMessage{Role: models.RoleAssistant, Content: reply.Text})
	return reply, nil
}

// FailureText turns a provider error into the message shown to the user.
func FailureText(err error, locale string) string {
	vi := locale == calc.VietnamesePatterns.Locale
	switch {
	case errors.Is(err, llm.ErrMissingAPIKey), llm.IsAPIError(err):
		if vi {
			return fmt.Sprintf("Lỗi gọi API: Vui lòng kiểm tra Khóa API hoặc giới hạn sử dụng. Chi tiết lỗi: %v", err)
		}
		return fmt.Sprintf("Model API call failed: check the API key or usage limits. Details: %v", err)
	default:
		if vi {
			return fmt.Sprintf("Đã xảy ra lỗi không xác định: %v", err)
		}
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
}

// IsStructural reports whether err is a problem with the uploaded data itself
// (as opposed to a processing failure).
func IsStructural(err error) bool {
	var cc *sheet.ColumnCountError
	return errors.Is(err, calc.ErrMissingAnchor) ||
		errors.Is(err, sheet.ErrEmptySheet) ||
		errors.As(err, &cc)
}

// DescribeError prefixes err for display.
func DescribeError(err error) string {
	if IsStructural(err) {
		return "Data structure error: " + err.Error()
	}
	return "Processing error: " + err.Error()
}
