// Package sessionrequests owns the lifecycle of a client's ask (consultation,
// meal plan, or reschedule) from creation to a terminal decision. Every
// transition goes through the compare-and-swap commit in this package so race
// safety is identical on all paths.
package sessionrequests

import (
	"encoding/json"
	"time"

	"github.com/nourishhq/dietitian-platform/internal/apperr"
)

// RequestType classifies what the client is asking for.
type RequestType string

const (
	TypeConsultation RequestType = "CONSULTATION"
	TypeMealPlan     RequestType = "MEAL_PLAN"
	TypeReschedule   RequestType = "RESCHEDULE_REQUEST"
)

// Status is the lifecycle state. APPROVED and REJECTED are terminal.
type Status string

const (
	StatusPending             Status = "PENDING"
	StatusApproved            Status = "APPROVED"
	StatusRejected            Status = "REJECTED"
	StatusRescheduleRequested Status = "RESCHEDULE_REQUESTED"
)

// Terminal reports whether no further transition is permitted from s.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Request is the transactional unit of the scheduling core. RequestedAt is
// the candidate slot start instant for CONSULTATION and RESCHEDULE_REQUEST.
// PaymentData is stored opaquely and never interpreted here.
type Request struct {
	ID                string          `json:"id"`
	RequestType       RequestType     `json:"requestType"`
	ClientEmail       string          `json:"clientEmail"`
	DietitianID       string          `json:"dietitianId"`
	Status            Status          `json:"status"`
	EventTypeID       string          `json:"eventTypeId,omitempty"`
	MealPlanType      string          `json:"mealPlanType,omitempty"`
	RequestedAt       *time.Time      `json:"requestedDate,omitempty"`
	OriginalBookingID string          `json:"originalBookingId,omitempty"`
	PaymentData       json.RawMessage `json:"paymentData,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
	DecidedAt         *time.Time      `json:"decidedAt,omitempty"`
}

// Validate checks the fields required by the request type.
func (r *Request) Validate() error {
	if r.ClientEmail == "" {
		return apperr.Validation("clientEmail is required")
	}
	if r.DietitianID == "" {
		return apperr.Validation("dietitianId is required")
	}
	switch r.RequestType {
	case TypeConsultation:
		if r.EventTypeID == "" {
			return apperr.Validation("eventTypeId is required for a consultation request")
		}
		if r.RequestedAt == nil {
			return apperr.Validation("requestedDate is required for a consultation request")
		}
	case TypeMealPlan:
		if r.MealPlanType == "" {
			return apperr.Validation("mealPlanType is required for a meal plan request")
		}
	case TypeReschedule:
		if r.OriginalBookingID == "" {
			return apperr.Validation("originalBookingId is required for a reschedule request")
		}
		if r.RequestedAt == nil {
			return apperr.Validation("requestedDate is required for a reschedule request")
		}
	default:
		return apperr.Validation("unknown request type %q", r.RequestType)
	}
	return nil
}

// initialStatus is the state a new request enters. Reschedules land directly
// in RESCHEDULE_REQUESTED; the transition table treats it like PENDING.
func (r *Request) initialStatus() Status {
	if r.RequestType == TypeReschedule {
		return StatusRescheduleRequested
	}
	return StatusPending
}

// reviewable reports whether an approve or reject may be attempted from s.
func reviewable(s Status) bool {
	return s == StatusPending || s == StatusRescheduleRequested
}
