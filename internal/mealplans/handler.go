package mealplans

import (
	"net/http"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the meal plan read endpoints.
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

// ListMealPlans handles GET /meal-plans. Clients read their own plans.
func (h *Handler) ListMealPlans(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	plans, err := h.store.ListForClient(r.Context(), actor.Email)
	if err != nil {
		h.logger.Error("failed to list meal plans", "error", err, "actor_id", actor.ID)
		respond.Error(w, err)
		return
	}
	if plans == nil {
		plans = []MealPlan{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"mealPlans": plans})
}
