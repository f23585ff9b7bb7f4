// Package analysis exposes statement upload, narrative, chat and export over HTTP.
package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"statement_insight/pkg/core/insight"
	"statement_insight/pkg/core/sheet"
	"statement_insight/pkg/core/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Handler holds dependencies for the analysis endpoints.
type Handler struct {
	svc       *insight.Service
	logger    *slog.Logger
	validate  *validator.Validate
	maxUpload int64
	geminiKey string
}

type Options struct {
	MaxUploadBytes int64
	// DefaultGeminiKey is used when a request carries no api_key. Request and
	// default keys are Gemini keys; other providers use their own env variables.
	DefaultGeminiKey string
}

func NewHandler(svc *insight.Service, logger *slog.Logger, opts Options) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		svc:       svc,
		logger:    logger.With("component", "api.analysis"),
		validate:  validator.New(),
		maxUpload: opts.MaxUploadBytes,
		geminiKey: opts.DefaultGeminiKey,
	}
}

// Routes returns the router mounted at /api/analysis.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", wrap(h.logger, h.handleUpload))
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", wrap(h.logger, h.handleGet))
		r.Post("/narrative", wrap(h.logger, h.handleNarrative))
		r.Post("/chat", wrap(h.logger, h.handleChat))
		r.Get("/export", wrap(h.logger, h.handleExport))
	})
	return r
}

// POST /api/analysis (multipart field "file")
func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return tooLarge
		}
		if strings.Contains(err.Error(), "request body too large") {
			return &http.MaxBytesError{Limit: h.maxUpload}
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return fmt.Errorf("%w: multipart field \"file\" is required", errBadRequest)
	}
	defer file.Close()

	start := time.Now()
	sess, err := h.svc.AnalyzeUpload(file, filepath.Base(header.Filename))
	analyzeDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		if insight.IsStructural(err) {
			uploadsTotal.WithLabelValues("structural").Inc()
		} else {
			uploadsTotal.WithLabelValues("error").Inc()
		}
		return err
	}
	uploadsTotal.WithLabelValues("ok").Inc()
	activeSessions.Set(float64(h.svc.Sessions.Len()))

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, newAnalysisResponse(sess))
	return nil
}

// GET /api/analysis/{id}
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.session(r)
	if err != nil {
		return err
	}
	render.JSON(w, r, newAnalysisResponse(sess))
	return nil
}

// POST /api/analysis/{id}/narrative {"api_key": "..."}
func (h *Handler) handleNarrative(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.session(r)
	if err != nil {
		return err
	}
	var req NarrativeRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	reply, err := h.svc.NarrateSession(r.Context(), sess, h.apiKey(req.APIKey))
	if err != nil {
		return err
	}
	modelRequestsTotal.WithLabelValues("narrative", resultLabel(reply.Failed)).Inc()

	render.JSON(w, r, NarrativeResponse{Text: reply.Text, HTML: h.html(reply.Text), Failed: reply.Failed})
	return nil
}

// POST /api/analysis/{id}/chat {"api_key": "...", "message": "..."}
func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.session(r)
	if err != nil {
		return err
	}
	var req ChatRequest
	if err := h.decode(r, &req); err != nil {
		return err
	}

	reply, err := h.svc.Chat(r.Context(), sess, h.apiKey(req.APIKey), req.Message)
	if err != nil {
		return err
	}
	modelRequestsTotal.WithLabelValues("chat", resultLabel(reply.Failed)).Inc()

	render.JSON(w, r, ChatResponse{
		Reply:      reply.Text,
		HTML:       h.html(reply.Text),
		Failed:     reply.Failed,
		Transcript: sess.Transcript(),
	})
	return nil
}

// GET /api/analysis/{id}/export
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) error {
	sess, err := h.session(r)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := sheet.Export(sess.Analysis.Table, h.svc.Labels(), &buf); err != nil {
		return err
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(sess.Source)))
	_, err = buf.WriteTo(w)
	return err
}

func (h *Handler) session(r *http.Request) (*insight.Session, error) {
	id := chi.URLParam(r, "id")
	sess, ok := h.svc.Sessions.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errSessionNotFound, id)
	}
	return sess, nil
}

func (h *Handler) decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return h.validate.Struct(v)
}

func (h *Handler) apiKey(fromRequest string) string {
	if k := strings.TrimSpace(fromRequest); k != "" {
		return k
	}
	return h.geminiKey
}

// html renders a reply for display, or "" when rendering fails.
func (h *Handler) html(text string) string {
	out, err := utils.RenderHTML(text)
	if err != nil {
		h.logger.Warn("markdown render failed", "error", err)
		return ""
	}
	return out
}

func exportName(source string) string {
	base := strings.TrimSuffix(source, filepath.Ext(source))
	if base == "" || base == "." {
		base = "statement"
	}
	return base + "_analysis.xlsx"
}
