package errors

import (
	stdErrors "errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// Code is the stable, client-facing error identifier.
type Code string

const (
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeStateConflict Code = "STATE_CONFLICT"
	CodeIdempotency   Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit     Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal      Code = "INTERNAL_ERROR"
	CodeDependency    Code = "DEPENDENCY_ERROR"
)

// Metadata drives how a code is rendered over HTTP. When DetailsAllowed is
// false the error's own message and details never reach the client.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

const (
	retryable   = true
	showDetails = true
)

var metadataByCode = map[Code]Metadata{
	CodeValidation:    {http.StatusBadRequest, !retryable, "validation failed", showDetails},
	CodeUnauthorized:  {http.StatusUnauthorized, !retryable, "authentication required", !showDetails},
	CodeForbidden:     {http.StatusForbidden, !retryable, "access denied", !showDetails},
	CodeNotFound:      {http.StatusNotFound, !retryable, "resource not found", !showDetails},
	CodeConflict:      {http.StatusConflict, !retryable, "conflict detected", !showDetails},
	CodeStateConflict: {http.StatusUnprocessableEntity, !retryable, "state transition disallowed", showDetails},
	CodeIdempotency:   {http.StatusConflict, retryable, "idempotency key reused", showDetails},
	CodeRateLimit:     {http.StatusTooManyRequests, retryable, "rate limit exceeded", showDetails},
	CodeInternal:      {http.StatusInternalServerError, retryable, "internal server error", !showDetails},
	CodeDependency:    {http.StatusServiceUnavailable, retryable, "dependency unavailable", showDetails},
}

// MetadataFor falls back to CodeInternal for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error carries a Code, a message safe to show when the code allows it,
// optional structured details and the underlying cause.
type Error struct {
	code       Code
	message    string
	details    any
	cause      error
	retryAfter time.Duration
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Wrap attaches code and message to err. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

// Classify returns err unchanged when it already carries a Code and wraps it
// with code otherwise. Use it at boundaries that must not downgrade a typed
// error from a lower layer.
func Classify(err error, code Code, message string) error {
	if err == nil {
		return nil
	}
	if As(err) != nil {
		return err
	}
	return Wrap(code, err, message)
}

// CodeOf reports the Code carried by err, or "" when err is untyped.
func CodeOf(err error) Code {
	if typed := As(err); typed != nil {
		return typed.code
	}
	return ""
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

// WithRetryAfter records how long the caller must wait before retrying. When
// no details were set it also exposes the wait as retry_after_seconds.
func (e *Error) WithRetryAfter(d time.Duration) *Error {
	if e == nil {
		return nil
	}
	e.retryAfter = max(d, 0)
	if e.details == nil {
		e.details = map[string]any{"retry_after_seconds": RetryAfterSeconds(e.retryAfter)}
	}
	return e
}

func (e *Error) RetryAfter() time.Duration {
	if e == nil {
		return 0
	}
	return e.retryAfter
}

// RetryAfterSeconds rounds a wait up to whole seconds, the unit of the
// Retry-After header.
func RetryAfterSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
