package bookings

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the booking read and cancel endpoints. Bookings are
// created by request approval, never directly.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListBookings handles GET /bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	var list []Booking
	var err error
	if actor.Role == identity.RoleDietitian {
		list, err = h.repo.ListForDietitian(r.Context(), actor.ID)
	} else {
		list, err = h.repo.ListForUser(r.Context(), actor.Email)
	}
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err, "actor_id", actor.ID)
		respond.Error(w, err)
		return
	}
	if list == nil {
		list = []Booking{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"bookings": list})
}

// CancelBooking handles DELETE /bookings/{bookingID}.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	id := chi.URLParam(r, "bookingID")
	if err := h.repo.CancelOwned(r.Context(), actor.Email, id); err != nil {
		respond.Error(w, err)
		return
	}
	h.logger.Info("booking cancelled", "booking_id", id, "actor_id", actor.ID)
	respond.JSON(w, http.StatusOK, map[string]any{"cancelled": id})
}
