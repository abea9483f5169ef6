package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is the closed set of failure classes the scheduling core can surface.
// Every caller switches on these instead of matching error strings.
type Code string

const (
	CodeValidation        Code = "validation"
	CodeNotFound          Code = "not_found"
	CodeForbidden         Code = "forbidden"
	CodeInvalidTransition Code = "invalid_transition"
	CodeSlotUnavailable   Code = "slot_unavailable"
	CodeInvalidTimezone   Code = "invalid_timezone"
	CodeInvalidDate       Code = "invalid_date"
)

// Error is a classified failure. State carries the persisted status on
// invalid_transition so the caller can resync.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	State   string `json:"state,omitempty"`
}

func (e *Error) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s: %s (current state %s)", e.Code, e.Message, e.State)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a state change not permitted from state.
func InvalidTransition(state string, format string, args ...any) *Error {
	return &Error{Code: CodeInvalidTransition, Message: fmt.Sprintf(format, args...), State: state}
}

// SlotUnavailable reports an approval that lost the race to a concurrent
// booking. Distinct from validation so clients can re-offer slots.
func SlotUnavailable(format string, args ...any) *Error {
	return &Error{Code: CodeSlotUnavailable, Message: fmt.Sprintf(format, args...)}
}

func InvalidTimezone(zone string) *Error {
	return &Error{Code: CodeInvalidTimezone, Message: fmt.Sprintf("unknown IANA timezone %q", zone)}
}

func InvalidDate(value string) *Error {
	return &Error{Code: CodeInvalidDate, Message: fmt.Sprintf("unparsable date or time %q", value)}
}

// CodeOf extracts the classification from an error chain. The second return
// is false for unclassified (transient/internal) errors.
func CodeOf(err error) (Code, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code, true
	}
	return "", false
}

// IsCode reports whether err is classified as code.
func IsCode(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}

// HTTPStatus maps every code to a response status. Unclassified errors are
// treated as internal.
func HTTPStatus(err error) int {
	code, ok := CodeOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch code {
	case CodeValidation, CodeInvalidTimezone, CodeInvalidDate:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeSlotUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
