package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"crmqc/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context, keeping the code of a
// wrapped AppError or of a recognised domain error.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Code:    GetCode(err),
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the code of the outermost AppError, the domain code of
// a core error, or INTERNAL_ERROR.
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	if code, ok := domainCode(err); ok {
		return code
	}
	return CodeInternalError
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"

	CodeMalformedInput       = "MALFORMED_INPUT"
	CodeIndexOutOfRange      = "INDEX_OUT_OF_RANGE"
	CodeInvalidParams        = "INVALID_PARAMS"
	CodeEmptySelection       = "EMPTY_SELECTION"
	CodeInvalidSelection     = "INVALID_SELECTION"
	CodeUnknownElement       = "UNKNOWN_ELEMENT"
	CodeNoActiveReference    = "NO_ACTIVE_REFERENCE"
	CodeNotLoaded            = "NOT_LOADED"
	CodeNavigationClosed     = "NAVIGATION_CLOSED"
	CodeIncompleteProcessing = "INCOMPLETE_PROCESSING"
	CodeSessionMismatch      = "SESSION_MISMATCH"
)

var domainCodes = []struct {
	sentinel error
	code     string
}{
	{core.ErrMalformedInput, CodeMalformedInput},
	{core.ErrIndexOutOfRange, CodeIndexOutOfRange},
	{core.ErrInvalidParams, CodeInvalidParams},
	{core.ErrEmptySelection, CodeEmptySelection},
	{core.ErrInvalidSelection, CodeInvalidSelection},
	{core.ErrUnknownElement, CodeUnknownElement},
	{core.ErrNoActiveReference, CodeNoActiveReference},
	{core.ErrNotLoaded, CodeNotLoaded},
	{core.ErrNavigationClosed, CodeNavigationClosed},
	{core.ErrIncompleteProcessing, CodeIncompleteProcessing},
}

func domainCode(err error) (string, bool) {
	for _, dc := range domainCodes {
		if stderrors.Is(err, dc.sentinel) {
			return dc.code, true
		}
	}
	return "", false
}

// FromDomain converts a core error into an AppError carrying its code.
// Errors that are already AppErrors are returned unchanged.
func FromDomain(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	code, ok := domainCode(err)
	if !ok {
		code = CodeInternalError
	}
	return &AppError{Code: code, Message: err.Error()}
}

// HTTPStatus maps an error code to the status a host should answer with
func HTTPStatus(code string) int {
	switch code {
	case CodeMalformedInput, CodeInvalidParams, CodeInvalidInput, CodeValidationError,
		CodeEmptySelection, CodeInvalidSelection:
		return http.StatusBadRequest
	case CodeIndexOutOfRange, CodeNotFound:
		return http.StatusNotFound
	case CodeUnknownElement:
		return http.StatusUnprocessableEntity
	case CodeNoActiveReference, CodeNotLoaded, CodeNavigationClosed, CodeIncompleteProcessing,
		CodeSessionMismatch:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}
