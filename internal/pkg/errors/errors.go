package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

type AppError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	StatusCode int                    `json:"-"`
	Retryable  bool                   `json:"retryable,omitempty"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any AppError carrying the same code, so copies produced by
// WithDetails/WithMessage still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func New(code, message string, statusCode int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Details:    make(map[string]interface{}),
	}
}

func (e *AppError) clone() *AppError {
	c := *e
	c.Details = make(map[string]interface{}, len(e.Details))
	for k, v := range e.Details {
		c.Details[k] = v
	}
	return &c
}

// WithDetails returns a copy of e with details merged in.
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	c := e.clone()
	for k, v := range details {
		c.Details[k] = v
	}
	return c
}

// WithMessage returns a copy of e with a more specific message.
func (e *AppError) WithMessage(format string, args ...interface{}) *AppError {
	c := e.clone()
	c.Message = fmt.Sprintf(format, args...)
	return c
}

// As extracts the AppError from an error chain.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	appErr, ok := As(err)
	return ok && appErr.StatusCode == status
}

func IsNotFound(err error) bool {
	return hasStatus(err, http.StatusNotFound)
}

func IsValidation(err error) bool {
	return hasStatus(err, http.StatusBadRequest)
}

func IsUpstream(err error) bool {
	return hasStatus(err, http.StatusServiceUnavailable)
}

func IsConflict(err error) bool {
	return hasStatus(err, http.StatusConflict)
}
