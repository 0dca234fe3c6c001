package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"cohort-portal-service/internal/domain"
	"cohort-portal-service/internal/session"
)

const maxBodyBytes = 1 << 20

// Messages shown for failures that carry no user-facing text of their own.
const (
	msgSignInFailed = "Sign-in failed. Please try again."
	msgInternal     = "Something went wrong. Please try again."
)

type errorBody struct {
	Error    string              `json:"error"`
	Fields   []domain.FieldError `json:"fields,omitempty"`
	Redirect string              `json:"redirect,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a JSON body into out; malformed input is a validation error.
func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return domain.NewValidationError(domain.FieldError{Field: "body", Message: "request body must be valid JSON"})
	}
	return nil
}

// statusFor maps the error taxonomy to a status and a user-visible body.
func statusFor(err error) (int, errorBody) {
	var (
		verr *domain.ValidationError
		perr *domain.PreconditionError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorBody{Error: "invalid input", Fields: verr.Fields}
	case errors.Is(err, domain.ErrAlreadyMember):
		return http.StatusConflict, errorBody{Error: domain.ErrAlreadyMember.Error()}
	case errors.As(err, &perr):
		return http.StatusConflict, errorBody{Error: perr.Reason}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, errorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrAuth):
		return http.StatusUnauthorized, errorBody{Error: msgSignInFailed}
	case errors.Is(err, domain.ErrLookup):
		return http.StatusUnauthorized, errorBody{Error: session.NoticeLookupFailed}
	default:
		return http.StatusInternalServerError, errorBody{Error: msgInternal}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	fields := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Warn("request rejected", fields...)
	}
	writeJSON(w, status, body)
}
