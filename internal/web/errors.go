package web

// errors.go turns errors into responses. The technical error is logged with
// the request ID; the client gets the mapped user message as JSON for API
// routes and as an HTML alert otherwise.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvrules/internal/logging"
	"github.com/JonMunkholm/csvrules/internal/rules"
	"github.com/JonMunkholm/csvrules/internal/service"
	"github.com/JonMunkholm/csvrules/internal/web/templates"
)

// ErrorResponse is the JSON body of API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
	Column  string `json:"column,omitempty"`
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := service.MapError(err)

	logging.FromContext(r.Context()).Warn("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if wantsJSON(r) {
		resp := ErrorResponse{
			Error:   userMsg.Message,
			Message: userMsg.Message,
			Action:  userMsg.Action,
			Code:    userMsg.Code,
		}
		var rowErr *rules.RowError
		if errors.As(err, &rowErr) {
			resp.Line = rowErr.Line
			resp.Column = rowErr.Header
		}
		writeJSON(w, r, status, resp)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_ = templates.ErrorAlert(userMsg).Render(r.Context(), w)
}

// statusFor picks the HTTP status for an error from the service or engine.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	var rowErr *rules.RowError
	switch {
	case errors.Is(err, service.ErrUnknownParser):
		return http.StatusNotFound
	case errors.Is(err, service.ErrFileTooLarge), errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrNoFile), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrTooManyParses):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	case errors.Is(err, rules.ErrNoHeader), errors.Is(err, service.ErrRowLimit), errors.As(err, &rowErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// wantsJSON reports whether the client should get a JSON error body.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
