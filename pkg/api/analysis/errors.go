package analysis

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"statement_insight/pkg/core/insight"
	"statement_insight/pkg/core/sheet"
)

var (
	errSessionNotFound = errors.New("analysis session not found")
	errBadRequest      = errors.New("bad request")
)

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Render implements render.Renderer.
func (p *Problem) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, p.Status)
	return nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps handler errors to status codes in one place.
func wrap(logger *slog.Logger, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}
		p := problemFor(err)
		if p.Status >= http.StatusInternalServerError {
			logger.Error("request failed", "path", r.URL.Path, "error", err)
		} else {
			logger.Info("request rejected", "path", r.URL.Path, "status", p.Status, "error", err)
		}
		_ = render.Render(w, r, p)
	}
}

func problemFor(err error) *Problem {
	var (
		maxBytes *http.MaxBytesError
		invalid  validator.ValidationErrors
	)
	switch {
	case insight.IsStructural(err):
		return &Problem{Type: "about:blank", Title: "Unprocessable statement", Status: http.StatusUnprocessableEntity, Detail: insight.DescribeError(err)}
	case errors.Is(err, sheet.ErrUnreadable):
		return &Problem{Type: "about:blank", Title: "Bad upload", Status: http.StatusBadRequest, Detail: insight.DescribeError(err)}
	case errors.As(err, &maxBytes):
		return &Problem{Type: "about:blank", Title: "Upload too large", Status: http.StatusRequestEntityTooLarge, Detail: err.Error()}
	case errors.Is(err, errSessionNotFound):
		return &Problem{Type: "about:blank", Title: "Not found", Status: http.StatusNotFound, Detail: err.Error()}
	case errors.Is(err, insight.ErrMissingAPIKey),
		errors.Is(err, insight.ErrEmptyMessage),
		errors.Is(err, errBadRequest),
		errors.As(err, &invalid):
		return &Problem{Type: "about:blank", Title: "Bad request", Status: http.StatusBadRequest, Detail: err.Error()}
	default:
		return &Problem{Type: "about:blank", Title: "Internal error", Status: http.StatusInternalServerError, Detail: insight.DescribeError(err)}
	}
}
