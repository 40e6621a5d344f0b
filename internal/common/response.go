package common

import (
	"encoding/json"
	"errors"
	"habit_tracker/internal/platform/logger"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/samber/oops"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
	Stack   string `json:"stack,omitempty"` // Non-production 5xx only
}

// DetailedError is implemented by errors that carry client-safe details,
// e.g. the field list of a validation failure.
type DetailedError interface {
	error
	Details() any
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// ErrorResponder is the single place where errors become HTTP responses.
// Every handler and middleware funnels failures through Respond so the
// status mapping and the message policy are uniform across routes.
type ErrorResponder struct {
	Logger *slog.Logger
	// ExposeInternals adds the error text and stack trace to 5xx bodies.
	// Only enabled for the dev stage.
	ExposeInternals bool
}

func NewErrorResponder(log *slog.Logger, exposeInternals bool) *ErrorResponder {
	if log == nil {
		log = slog.Default()
	}
	return &ErrorResponder{Logger: log, ExposeInternals: exposeInternals}
}

func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatusFromError(err)
	resp := ErrorResponse{Error: PublicMessage(err)}

	var detailed DetailedError
	if errors.As(err, &detailed) && status < http.StatusInternalServerError {
		resp.Details = detailed.Details()
	}

	if status >= http.StatusInternalServerError {
		logger.LogError(e.Logger.With(
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
		), "request failed", err)

		if e.ExposeInternals {
			resp.Details = err.Error()
			if oopsErr, ok := oops.AsOops(err); ok {
				resp.Stack = oopsErr.Stacktrace()
			}
		}
	}

	RespondWithJSON(w, status, resp)
}
