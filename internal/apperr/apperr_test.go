package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestCodeOfUnwrapsChains(t *testing.T) {
	base := Forbidden("actor %s does not own request", "deit-1")
	wrapped := fmt.Errorf("sessionrequests: approve: %w", base)

	code, ok := CodeOf(wrapped)
	if !ok || code != CodeForbidden {
		t.Fatalf("expected forbidden, got %q ok=%v", code, ok)
	}
	if !IsCode(wrapped, CodeForbidden) {
		t.Fatal("IsCode should match through wrapping")
	}
	if IsCode(wrapped, CodeValidation) {
		t.Fatal("IsCode matched the wrong code")
	}
}

func TestInvalidTransitionCarriesState(t *testing.T) {
	err := InvalidTransition("APPROVED", "request already decided")
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatal("expected *Error")
	}
	if appErr.State != "APPROVED" {
		t.Fatalf("expected state APPROVED, got %q", appErr.State)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{Validation("start after end"), http.StatusBadRequest},
		{InvalidDate("20-01-2025"), http.StatusBadRequest},
		{InvalidTimezone("Mars/Olympus"), http.StatusBadRequest},
		{NotFound("no such request"), http.StatusNotFound},
		{Forbidden("not yours"), http.StatusForbidden},
		{InvalidTransition("REJECTED", "terminal"), http.StatusConflict},
		{SlotUnavailable("slot taken"), http.StatusConflict},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.err); got != tt.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
