package sessionrequests

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/bookings"
	"github.com/nourishhq/dietitian-platform/internal/eventtypes"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/internal/mealplans"
	"github.com/nourishhq/dietitian-platform/internal/observability/metrics"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

var tracer = otel.Tracer("nourish.internal.sessionrequests")

// EventTypeSource resolves the event type that sizes a consultation slot.
type EventTypeSource interface {
	Get(ctx context.Context, id string) (*eventtypes.EventType, error)
}

// Notifier sends decision notifications. Delivery is best effort; a send
// failure never rolls back a committed transition.
type Notifier interface {
	RequestDecided(ctx context.Context, req *Request)
}

// Publisher tells the live-update layer that the records visible to the
// request's client and dietitian changed.
type Publisher interface {
	RequestsChanged(ctx context.Context, dietitianID, clientEmail string)
}

// Service is the state machine over session requests. All approve and reject
// paths run through decide so the conditional-write guard is identical
// everywhere.
type Service struct {
	repo      *Repository
	events    EventTypeSource
	metrics   *metrics.SchedulingMetrics
	notifier  Notifier
	publisher Publisher
	logger    *logging.Logger
}

func NewService(repo *Repository, events EventTypeSource, logger *logging.Logger) *Service {
	if repo == nil {
		panic("sessionrequests: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{repo: repo, events: events, logger: logger}
}

// WithMetrics attaches transition counters.
func (s *Service) WithMetrics(m *metrics.SchedulingMetrics) *Service {
	s.metrics = m
	return s
}

// WithNotifier attaches decision notifications.
func (s *Service) WithNotifier(n Notifier) *Service {
	s.notifier = n
	return s
}

// WithPublisher attaches the live-update emitter.
func (s *Service) WithPublisher(p Publisher) *Service {
	s.publisher = p
	return s
}

// Submit creates a new request in its initial status.
func (s *Service) Submit(ctx context.Context, actor identity.Actor, req *Request) error {
	if actor.Role == identity.RoleClient {
		req.ClientEmail = actor.Email
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return err
	}
	s.logger.Info("session request created",
		"request_id", req.ID, "type", req.RequestType, "dietitian_id", req.DietitianID)
	s.emitChanged(ctx, req)
	return nil
}

// Approve moves the request to APPROVED and commits the booking or meal plan
// it implies in the same transaction. A concurrent booking of the same slot
// surfaces as slot_unavailable; a lost status race as invalid_transition.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, requestID string) (*Request, error) {
	return s.decide(ctx, actor, requestID, StatusApproved)
}

// Reject moves the request to REJECTED.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, requestID string) (*Request, error) {
	return s.decide(ctx, actor, requestID, StatusRejected)
}

// Get returns the request when the actor is party to it.
func (s *Service) Get(ctx context.Context, actor identity.Actor, requestID string) (*Request, error) {
	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !isParty(actor, req) {
		return nil, apperr.Forbidden("session request %s belongs to another client and dietitian", requestID)
	}
	return req, nil
}

// ListForActor returns the requests visible to the caller.
func (s *Service) ListForActor(ctx context.Context, actor identity.Actor) ([]Request, error) {
	if actor.Role == identity.RoleDietitian {
		return s.repo.ListForDietitian(ctx, actor.ID)
	}
	return s.repo.ListForClient(ctx, actor.Email)
}

func (s *Service) decide(ctx context.Context, actor identity.Actor, requestID string, next Status) (*Request, error) {
	event := "reject"
	if next == StatusApproved {
		event = "approve"
	}
	ctx, span := tracer.Start(ctx, "sessionrequests.decide")
	span.SetAttributes(attribute.String("request.id", requestID), attribute.String("event", event))
	defer span.End()

	req, err := s.repo.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, req, next); err != nil {
		s.logger.Warn("transition denied",
			"request_id", requestID, "actor_id", actor.ID, "event", event)
		s.observe(event, "forbidden")
		return nil, err
	}
	if !reviewable(req.Status) {
		s.observe(event, "invalid_transition")
		return nil, apperr.InvalidTransition(string(req.Status),
			"session request %s already decided", requestID)
	}

	// Once the conditional write is issued it runs to completion; caller
	// cancellation must not abort a transition mid-commit.
	commitCtx := context.WithoutCancel(ctx)

	tx, err := s.repo.begin(commitCtx)
	if err != nil {
		return nil, fmt.Errorf("sessionrequests: begin: %w", err)
	}
	defer tx.Rollback(commitCtx)

	if next == StatusApproved {
		if err := s.commitApproval(commitCtx, tx, req); err != nil {
			if apperr.IsCode(err, apperr.CodeSlotUnavailable) {
				s.observe(event, "slot_unavailable")
				if s.metrics != nil {
					s.metrics.ObserveCommitConflict()
				}
			}
			return nil, err
		}
	}

	ok, err := transitionTx(commitCtx, tx, req.ID, req.Status, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race. Report the status the winner left behind.
		tx.Rollback(commitCtx)
		current, serr := s.repo.currentStatus(commitCtx, req.ID)
		if serr != nil {
			return nil, serr
		}
		s.observe(event, "invalid_transition")
		if s.metrics != nil {
			s.metrics.ObserveCommitConflict()
		}
		return nil, apperr.InvalidTransition(string(current),
			"session request %s was decided concurrently", req.ID)
	}
	if err := tx.Commit(commitCtx); err != nil {
		return nil, fmt.Errorf("sessionrequests: commit: %w", err)
	}

	req.Status = next
	now := time.Now().UTC()
	req.DecidedAt = &now
	s.observe(event, "ok")
	s.logger.Info("session request decided",
		"request_id", req.ID, "status", next, "actor_id", actor.ID)

	if s.notifier != nil {
		s.notifier.RequestDecided(ctx, req)
	}
	s.emitChanged(ctx, req)
	return req, nil
}

// commitApproval performs the side effect an approval implies, inside the
// caller's transaction: insert or move a booking, or create a meal plan.
// The conflict re-check runs here, against committed state, because the
// slot snapshot from generation time may have gone stale.
func (s *Service) commitApproval(ctx context.Context, tx bookings.Executor, req *Request) error {
	switch req.RequestType {
	case TypeConsultation:
		start, end, err := s.slotWindow(ctx, req)
		if err != nil {
			return err
		}
		conflict, err := bookings.HasConflictWith(ctx, tx, req.DietitianID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return apperr.SlotUnavailable("slot %s is no longer available", start.Format(time.RFC3339))
		}
		booking := &bookings.Booking{
			DietitianID: req.DietitianID,
			UserID:      req.ClientEmail,
			EventTypeID: req.EventTypeID,
			StartAt:     start,
			EndAt:       end,
		}
		return bookings.InsertConfirmedTx(ctx, tx, booking)
	case TypeReschedule:
		start, end, err := s.slotWindow(ctx, req)
		if err != nil {
			return err
		}
		// The booking being moved must not block its own new window.
		conflict, err := bookings.HasConflictWithExcluding(ctx, tx, req.DietitianID, req.OriginalBookingID, start, end)
		if err != nil {
			return err
		}
		if conflict {
			return apperr.SlotUnavailable("slot %s is no longer available", start.Format(time.RFC3339))
		}
		return bookings.RescheduleTx(ctx, tx, req.OriginalBookingID, start, end)
	case TypeMealPlan:
		_, err := mealplans.InsertApprovedTx(ctx, tx,
			req.ClientEmail, req.DietitianID, req.MealPlanType, req.ID)
		return err
	default:
		return apperr.Validation("unknown request type %q", req.RequestType)
	}
}

// slotWindow resolves [requestedDate, requestedDate + duration). Reschedules
// without an event type reuse the original booking's length.
func (s *Service) slotWindow(ctx context.Context, req *Request) (time.Time, time.Time, error) {
	if req.RequestedAt == nil {
		return time.Time{}, time.Time{}, apperr.Validation("session request %s has no requested slot", req.ID)
	}
	start := *req.RequestedAt
	var duration time.Duration
	if req.EventTypeID != "" {
		et, err := s.events.Get(ctx, req.EventTypeID)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		duration = et.Duration()
	} else {
		duration = time.Hour
	}
	return start, start.Add(duration), nil
}

// authorize enforces the ownership guard: the deciding party approves
// (dietitian for consultations and reschedules, client for meal plans);
// either party may reject.
func (s *Service) authorize(actor identity.Actor, req *Request, next Status) error {
	if next == StatusRejected {
		if isParty(actor, req) {
			return nil
		}
		return apperr.Forbidden("actor does not own session request %s", req.ID)
	}
	switch req.RequestType {
	case TypeMealPlan:
		if actor.IsClient(req.ClientEmail) {
			return nil
		}
	default:
		if actor.IsDietitian(req.DietitianID) {
			return nil
		}
	}
	return apperr.Forbidden("actor may not approve session request %s", req.ID)
}

func isParty(actor identity.Actor, req *Request) bool {
	return actor.IsDietitian(req.DietitianID) || actor.IsClient(req.ClientEmail)
}

func (s *Service) observe(event, outcome string) {
	if s.metrics != nil {
		s.metrics.ObserveTransition(event, outcome)
	}
}

func (s *Service) emitChanged(ctx context.Context, req *Request) {
	if s.publisher != nil {
		s.publisher.RequestsChanged(ctx, req.DietitianID, req.ClientEmail)
	}
}
