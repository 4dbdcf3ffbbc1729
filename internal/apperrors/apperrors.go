// Package apperrors defines the typed error set surfaced by the metrics
// pipeline. Fetch-level errors abort the whole load for a window and are
// never retried internally; the uniqueness conflict is internal to the
// store and always recovered by re-reading.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
)

// Category identifies the error kind for handling and logging.
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryConfiguration  Category = "configuration"
	CategoryAuthentication Category = "authentication"
	CategoryRateLimit      Category = "rate_limit"
	CategoryGitHubAPI      Category = "github_api"
	CategoryConflict       Category = "conflict"
	CategoryNotFound       Category = "not_found"
	CategoryInternal       Category = "internal"
)

// AppError wraps an errbuilder error with a category and HTTP status.
type AppError struct {
	*errbuilder.ErrBuilder
	Category   Category  `json:"category"`
	HTTPStatus int       `json:"http_status"`
	Timestamp  time.Time `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Category, e.ErrBuilder.Msg)
}

func (e *AppError) Unwrap() error {
	return e.ErrBuilder.Unwrap()
}

func newAppError(builder *errbuilder.ErrBuilder, category Category, httpStatus int) *AppError {
	return &AppError{
		ErrBuilder: builder,
		Category:   category,
		HTTPStatus: httpStatus,
		Timestamp:  time.Now(),
	}
}

// NewValidationError reports invalid caller input, e.g. a sprint window
// whose end date is not after its start date.
func NewValidationError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(message)

	return newAppError(builder, CategoryValidation, http.StatusBadRequest)
}

// NewConfigurationError reports missing org or credentials. Fatal for the
// request, not retryable.
func NewConfigurationError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(message)

	return newAppError(builder, CategoryConfiguration, http.StatusInternalServerError)
}

// NewAuthenticationError reports credentials rejected by the source API.
func NewAuthenticationError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnauthenticated).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryAuthentication, http.StatusBadGateway)
}

// NewRateLimitError reports an exhausted source-API quota. The reset hint
// is carried in the details so the caller can back off.
func NewRateLimitError(resetAt string) *AppError {
	errorMap := errbuilder.ErrorMap{}
	errorMap.Set("rate_limit_reset", errors.New(resetAt))

	builder := errbuilder.New().
		WithCode(errbuilder.CodeResourceExhausted).
		WithMsg("GitHub API rate limit exceeded").
		WithDetails(errbuilder.NewErrDetails(errorMap))

	return newAppError(builder, CategoryRateLimit, http.StatusServiceUnavailable)
}

// NewGitHubAPIError is the catch-all for transport and parse failures,
// including timeouts and malformed responses.
func NewGitHubAPIError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeUnavailable).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryGitHubAPI, http.StatusBadGateway)
}

// NewConflictError reports a storage uniqueness violation. Internal only:
// the loader recovers it by re-reading the winner's record.
func NewConflictError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeAlreadyExists).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryConflict, http.StatusConflict)
}

// NewNotFoundError reports a missing resource on a point lookup.
func NewNotFoundError(message string) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeNotFound).
		WithMsg(message)

	return newAppError(builder, CategoryNotFound, http.StatusNotFound)
}

// NewInternalError wraps unexpected failures.
func NewInternalError(message string, cause error) *AppError {
	builder := errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(message)

	if cause != nil {
		builder = builder.WithCause(cause)
	}

	return newAppError(builder, CategoryInternal, http.StatusInternalServerError)
}

// CategoryOf extracts the category from any error, defaulting to internal.
func CategoryOf(err error) Category {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Category
	}
	return CategoryInternal
}

// IsConflict reports whether err is a storage uniqueness conflict.
func IsConflict(err error) bool {
	return CategoryOf(err) == CategoryConflict
}

// HTTPStatusOf maps any error to the status the handlers should return.
func HTTPStatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}
