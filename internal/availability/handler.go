package availability

import (
	"encoding/json"
	"net/http"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the weekly schedule endpoints.
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

// ListSchedules handles GET /availability. Dietitians read their own rules.
func (h *Handler) ListSchedules(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage availability"))
		return
	}

	rules, err := h.store.List(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("failed to list schedules", "error", err, "dietitian_id", actor.ID)
		respond.Error(w, err)
		return
	}
	disabled, err := h.store.AllDisabled(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("failed to read toggle state", "error", err, "dietitian_id", actor.ID)
		respond.Error(w, err)
		return
	}
	if rules == nil {
		rules = []Schedule{}
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"schedules":   rules,
		"allDisabled": disabled,
	})
}

// UpsertSchedule handles PUT /availability.
func (h *Handler) UpsertSchedule(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage availability"))
		return
	}

	var rule Schedule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		respond.Error(w, apperr.Validation("invalid request body"))
		return
	}
	// The rule is always owned by the caller, whatever the body claims.
	rule.DietitianID = actor.ID

	if err := h.store.Upsert(r.Context(), &rule); err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to upsert schedule", "error", err, "dietitian_id", actor.ID)
		}
		respond.Error(w, err)
		return
	}

	h.logger.Info("schedule upserted", "dietitian_id", actor.ID, "rule_id", rule.ID, "day", rule.DayOfWeek)
	respond.JSON(w, http.StatusOK, rule)
}

type toggleRequest struct {
	Active bool `json:"active"`
}

// ToggleAll handles POST /availability/toggle, the bulk enable/disable.
func (h *Handler) ToggleAll(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage availability"))
		return
	}

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.Validation("invalid request body"))
		return
	}

	n, err := h.store.SetAllActive(r.Context(), actor.ID, req.Active)
	if err != nil {
		h.logger.Error("failed to toggle schedules", "error", err, "dietitian_id", actor.ID)
		respond.Error(w, err)
		return
	}

	h.logger.Info("schedules toggled", "dietitian_id", actor.ID, "active", req.Active, "rows", n)
	respond.JSON(w, http.StatusOK, map[string]any{"active": req.Active, "updated": n})
}
