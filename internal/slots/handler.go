package slots

import (
	"context"
	"net/http"
	"time"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/eventtypes"
	"github.com/nourishhq/dietitian-platform/internal/observability/metrics"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// EventTypeSource resolves the event type whose duration sizes the slots.
type EventTypeSource interface {
	Get(ctx context.Context, id string) (*eventtypes.EventType, error)
}

// Handler exposes slot generation over HTTP.
type Handler struct {
	generator   *Generator
	eventTypes  EventTypeSource
	defaultZone string
	metrics     *metrics.SchedulingMetrics
	logger      *logging.Logger
}

func NewHandler(generator *Generator, eventTypes EventTypeSource, defaultZone string, m *metrics.SchedulingMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		generator:   generator,
		eventTypes:  eventTypes,
		defaultZone: defaultZone,
		metrics:     m,
		logger:      logger,
	}
}

// ListOpenSlots handles GET /slots. Query params: dietitianId, from, to,
// eventTypeId, zone (optional, the practitioner's configured zone).
func (h *Handler) ListOpenSlots(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dietitianID := q.Get("dietitianId")
	if dietitianID == "" {
		respond.Error(w, apperr.Validation("dietitianId is required"))
		return
	}
	eventTypeID := q.Get("eventTypeId")
	if eventTypeID == "" {
		respond.Error(w, apperr.Validation("eventTypeId is required"))
		return
	}
	zone := q.Get("zone")
	if zone == "" {
		zone = h.defaultZone
	}

	et, err := h.eventTypes.Get(r.Context(), eventTypeID)
	if err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to load event type", "error", err, "event_type_id", eventTypeID)
		}
		respond.Error(w, err)
		return
	}
	if !et.Active {
		respond.Error(w, apperr.Validation("event type %s is not bookable", et.ID))
		return
	}

	started := time.Now()
	result, err := h.generator.Generate(r.Context(), Request{
		DietitianID: dietitianID,
		From:        q.Get("from"),
		To:          q.Get("to"),
		EventType:   *et,
		Zone:        zone,
	})
	if err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("slot generation failed", "error", err, "dietitian_id", dietitianID)
		}
		respond.Error(w, err)
		return
	}
	h.metrics.ObserveGeneration(len(result), time.Since(started).Seconds())

	if result == nil {
		result = []Slot{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"slots": result})
}
