package notify

import (
	"context"
	"fmt"

	"github.com/nourishhq/dietitian-platform/internal/sessionrequests"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Service sends decision notifications to clients. Delivery is best effort:
// a failed send is logged and never unwinds a committed transition.
type Service struct {
	email  EmailSender
	logger *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{email: email, logger: logger}
}

// RequestDecided emails the client when their session request reaches a
// terminal state.
func (s *Service) RequestDecided(ctx context.Context, req *sessionrequests.Request) {
	if s.email == nil {
		return
	}

	var subject, body string
	switch req.Status {
	case sessionrequests.StatusApproved:
		subject = fmt.Sprintf("Your %s request was approved", requestLabel(req.RequestType))
		body = approvedBody(req)
	case sessionrequests.StatusRejected:
		subject = fmt.Sprintf("Your %s request was declined", requestLabel(req.RequestType))
		body = fmt.Sprintf(`Hi,

Unfortunately your %s request could not be accepted. Please check the open
slots and submit a new request, or reply to this email to reach the team.

— NourishHQ`, requestLabel(req.RequestType))
	default:
		return
	}

	msg := EmailMessage{To: req.ClientEmail, Subject: subject, Body: body}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("decision email failed", "error", err, "request_id", req.ID, "to", req.ClientEmail)
		return
	}
	s.logger.Info("decision email sent", "request_id", req.ID, "status", req.Status)
}

func approvedBody(req *sessionrequests.Request) string {
	switch req.RequestType {
	case sessionrequests.TypeMealPlan:
		return fmt.Sprintf(`Hi,

Your %s meal plan is confirmed. Your dietitian will share the plan with you
shortly.

— NourishHQ`, req.MealPlanType)
	default:
		when := "the requested time"
		if req.RequestedAt != nil {
			when = req.RequestedAt.Format("Monday, January 2 at 3:04 PM MST")
		}
		return fmt.Sprintf(`Hi,

Your session is confirmed for %s.

— NourishHQ`, when)
	}
}

func requestLabel(t sessionrequests.RequestType) string {
	switch t {
	case sessionrequests.TypeConsultation:
		return "consultation"
	case sessionrequests.TypeMealPlan:
		return "meal plan"
	case sessionrequests.TypeReschedule:
		return "reschedule"
	default:
		return "session"
	}
}

var _ sessionrequests.Notifier = (*Service)(nil)
