package outofoffice

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the out-of-office endpoints.
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

// ListPeriods handles GET /out-of-office.
func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage out-of-office periods"))
		return
	}

	periods, err := h.store.List(r.Context(), actor.ID)
	if err != nil {
		h.logger.Error("failed to list periods", "error", err, "dietitian_id", actor.ID)
		respond.Error(w, err)
		return
	}
	if periods == nil {
		periods = []Period{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"periods": periods})
}

// CreatePeriod handles POST /out-of-office.
func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage out-of-office periods"))
		return
	}

	var p Period
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		respond.Error(w, apperr.Validation("invalid request body"))
		return
	}
	p.DietitianID = actor.ID

	if err := h.store.Create(r.Context(), &p); err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to create period", "error", err, "dietitian_id", actor.ID)
		}
		respond.Error(w, err)
		return
	}

	h.logger.Info("out-of-office period created",
		"dietitian_id", actor.ID, "period_id", p.ID, "start", p.StartDate, "end", p.EndDate)
	respond.JSON(w, http.StatusCreated, p)
}

// DeletePeriod handles DELETE /out-of-office/{periodID}.
func (h *Handler) DeletePeriod(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok || actor.Role != identity.RoleDietitian {
		respond.Error(w, apperr.Forbidden("only dietitians manage out-of-office periods"))
		return
	}

	id := chi.URLParam(r, "periodID")
	if err := h.store.Delete(r.Context(), actor.ID, id); err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to delete period", "error", err, "dietitian_id", actor.ID, "period_id", id)
		}
		respond.Error(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
