package notify

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/nourishhq/dietitian-platform/internal/sessionrequests"
)

type recordingSender struct {
	sent []EmailMessage
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func TestRequestDecidedApprovedConsultation(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, nil)

	slot := time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	svc.RequestDecided(context.Background(), &sessionrequests.Request{
		ID:          "req-1",
		RequestType: sessionrequests.TypeConsultation,
		ClientEmail: "client@example.com",
		Status:      sessionrequests.StatusApproved,
		RequestedAt: &slot,
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To != "client@example.com" {
		t.Errorf("unexpected recipient %q", msg.To)
	}
	if !strings.Contains(msg.Subject, "approved") {
		t.Errorf("unexpected subject %q", msg.Subject)
	}
	if !strings.Contains(msg.Body, "Monday, January 6") {
		t.Errorf("body missing slot time: %q", msg.Body)
	}
}

func TestRequestDecidedRejectedMealPlan(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, nil)

	svc.RequestDecided(context.Background(), &sessionrequests.Request{
		ID:           "req-2",
		RequestType:  sessionrequests.TypeMealPlan,
		ClientEmail:  "client@example.com",
		Status:       sessionrequests.StatusRejected,
		MealPlanType: "WEIGHT_LOSS",
	})

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.sent))
	}
	if !strings.Contains(sender.sent[0].Subject, "meal plan") {
		t.Errorf("unexpected subject %q", sender.sent[0].Subject)
	}
}

func TestRequestDecidedIgnoresNonTerminalStatus(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, nil)

	svc.RequestDecided(context.Background(), &sessionrequests.Request{
		ID:          "req-3",
		RequestType: sessionrequests.TypeConsultation,
		ClientEmail: "client@example.com",
		Status:      sessionrequests.StatusPending,
	})

	if len(sender.sent) != 0 {
		t.Fatalf("expected no email for a pending request, got %d", len(sender.sent))
	}
}

func TestNewSendGridSenderNilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{FromEmail: "noreply@example.com"}, nil)
	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSenderDefaultFromName(t *testing.T) {
	sender := NewSendGridSender(SendGridConfig{APIKey: "key", FromEmail: "noreply@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.fromName != "NourishHQ" {
		t.Errorf("unexpected default from name %q", sender.fromName)
	}
}
