package eventtypes

import (
	"encoding/json"
	"net/http"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the event type catalog.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// ListEventTypes handles GET /event-types.
func (h *Handler) ListEventTypes(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list event types", "error", err)
		respond.Error(w, err)
		return
	}
	if list == nil {
		list = []EventType{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"eventTypes": list})
}

// UpsertEventType handles PUT /event-types. Dietitians manage the catalog.
func (h *Handler) UpsertEventType(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage event types"))
		return
	}

	var et EventType
	if err := json.NewDecoder(r.Body).Decode(&et); err != nil {
		respond.Error(w, apperr.Validation("invalid request body"))
		return
	}
	if err := h.store.Upsert(r.Context(), &et); err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to upsert event type", "error", err, "actor_id", actor.ID)
		}
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, et)
}
