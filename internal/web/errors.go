package web

// errors.go provides unified error response handling for the web layer.
//
// Every error is logged with its technical detail and the request ID, then
// mapped through core.MapError to the message, action and code the operator
// sees. API routes get JSON; pages get the error alert component.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/devicebulk/internal/batch"
	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/logging"
	"github.com/JonMunkholm/devicebulk/internal/schema"
	"github.com/JonMunkholm/devicebulk/internal/table"
	"github.com/JonMunkholm/devicebulk/internal/web/templates"
)

// ErrorResponse represents the JSON structure for API error responses.
// Includes both machine-readable (Code) and human-readable (Message, Action) fields.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Action  string       `json:"action,omitempty"`
	Code    string       `json:"code"`
	Details []string     `json:"details,omitempty"`
	Result  *core.Result `json:"result,omitempty"` // Partial outcome of a batch that failed mid-write
}

// statusFor picks the HTTP status for an error returned by the service.
func statusFor(err error) int {
	var (
		vErr  *core.ValidationError
		sErr  *settingsError
		mbErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrBatchBusy):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.As(err, &mbErr):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &vErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &sErr),
		errors.Is(err, errNoFile),
		errors.Is(err, batch.ErrUnsupportedFormat),
		errors.Is(err, batch.ErrEmptyBatch),
		errors.Is(err, batch.ErrDuplicateHeader):
		return http.StatusBadRequest
	case errors.Is(err, table.ErrTableNotFound), errors.Is(err, core.ErrAuditUnavailable):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrAmbiguousRelation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the operator-facing response.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	s.respondBatchError(w, r, err, statusCode, nil)
}

// respondBatchError is respondError carrying the partial result of a batch.
func (s *Server) respondBatchError(w http.ResponseWriter, r *http.Request, err error, statusCode int, res *core.Result) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}

	if !wantsJSON(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(statusCode)
		var body templ.Component = templates.ErrorAlert(userMsg.Message, userMsg.Action, userMsg.Code)
		if res != nil {
			body = templates.Concat(body, templates.BatchResult(res))
		}
		page := templates.Layout("Error", body)
		if err := page.Render(r.Context(), w); err != nil {
			logging.FromContext(r.Context()).Error("render error page", "error", err)
		}
		return
	}

	resp := ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
		Result:  res,
	}
	var sErr *settingsError
	if errors.As(err, &sErr) {
		resp.Details = sErr.details
	}
	writeJSONStatus(w, r, statusCode, resp)
}

// wantsJSON checks if the client prefers JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
