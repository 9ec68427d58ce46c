package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/mcoot/scoresnap/internal/model"
	"github.com/mcoot/scoresnap/internal/services/auth"
	"github.com/mcoot/scoresnap/internal/vision"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeValidationFailed   = "VALIDATION_FAILED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUsernameTaken      = "USERNAME_TAKEN"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeBowlerNotFound     = "BOWLER_NOT_FOUND"
	CodeInvalidBowlerName  = "INVALID_BOWLER_NAME"
	CodeInvalidAlias       = "INVALID_ALIAS"
	CodeSessionNotFound    = "SESSION_NOT_FOUND"
	CodeUploadNotFound     = "UPLOAD_NOT_FOUND"
	CodeUploadProcessed    = "UPLOAD_PROCESSED"
	CodeInvalidScoreboard  = "INVALID_SCOREBOARD"
	CodeEmptyScoreboard    = "EMPTY_SCOREBOARD"
	CodeUnsupportedImage   = "UNSUPPORTED_IMAGE"
	CodeVisionUnavailable  = "VISION_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// Status returns the HTTP status an error maps to
func Status(err error) int {
	return toHTTPError(err).status
}

func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, describe(ve)}}
	}

	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrUsernameTaken):
		return &httpError{http.StatusConflict, APIError{CodeUsernameTaken, "Username is already taken"}}
	case errors.Is(err, model.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidToken):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired token"}}
	case errors.Is(err, auth.ErrInvalidUsername), errors.Is(err, auth.ErrWeakPassword):
		return &httpError{http.StatusBadRequest, APIError{CodeValidationFailed, err.Error()}}

	case errors.Is(err, model.ErrBowlerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeBowlerNotFound, "Bowler not found"}}
	case errors.Is(err, model.ErrInvalidBowlerName):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidBowlerName, "Bowler name must not be empty"}}
	case errors.Is(err, model.ErrInvalidAlias), errors.Is(err, model.ErrInvalidAliasSource):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidAlias, err.Error()}}

	case errors.Is(err, model.ErrSessionNotFound), errors.Is(err, model.ErrNotSessionOwner):
		return &httpError{http.StatusNotFound, APIError{CodeSessionNotFound, "Session not found"}}

	case errors.Is(err, model.ErrUploadNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUploadNotFound, "Upload not found"}}
	case errors.Is(err, model.ErrUploadProcessed):
		return &httpError{http.StatusConflict, APIError{CodeUploadProcessed, "Upload has already been processed"}}
	case errors.Is(err, model.ErrEmptyScoreboard):
		return &httpError{http.StatusBadRequest, APIError{CodeEmptyScoreboard, "Scoreboard contains no bowlers"}}
	case errors.Is(err, model.ErrInvalidScoreboard):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidScoreboard, err.Error()}}

	case errors.Is(err, vision.ErrUnsupportedImage), errors.Is(err, vision.ErrEmptyImage):
		return &httpError{http.StatusUnsupportedMediaType, APIError{CodeUnsupportedImage, err.Error()}}
	case errors.Is(err, model.ErrVisionUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeVisionUnavailable, "Image uploads are not enabled"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// describe renders validation failures as "field: rule" pairs
func describe(ve validator.ValidationErrors) string {
	parts := make([]string, 0, len(ve))
	for _, fe := range ve {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Namespace(), rule))
	}
	return "invalid fields: " + strings.Join(parts, ", ")
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewRateLimitedError creates a too many requests error
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many uploads, slow down"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
