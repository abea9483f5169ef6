package sessionrequests

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/apperr"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Handler exposes the session request endpoints.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// ListRequests handles GET /requests. Clients see their own asks; dietitians
// see requests addressed to them.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	reqs, err := h.svc.ListForActor(r.Context(), actor)
	if err != nil {
		h.logger.Error("failed to list session requests", "error", err, "actor_id", actor.ID)
		respond.Error(w, err)
		return
	}
	if reqs == nil {
		reqs = []Request{}
	}
	respond.JSON(w, http.StatusOK, map[string]any{"requests": reqs})
}

// GetRequest handles GET /requests/{requestID}.
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	req, err := h.svc.Get(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, req)
}

// CreateRequest handles POST /requests.
func (h *Handler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, apperr.Validation("invalid request body"))
		return
	}

	if err := h.svc.Submit(r.Context(), actor, &req); err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("failed to create session request", "error", err, "actor_id", actor.ID)
		}
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, req)
}

// ApproveRequest handles POST /requests/{requestID}/approve.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Approve)
}

// RejectRequest handles POST /requests/{requestID}/reject.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.svc.Reject)
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, actor identity.Actor, id string) (*Request, error)) {
	actor, ok := identity.ActorFromContext(r.Context())
	if !ok {
		respond.Error(w, apperr.Forbidden("authentication required"))
		return
	}

	req, err := fn(r.Context(), actor, chi.URLParam(r, "requestID"))
	if err != nil {
		if _, classified := apperr.CodeOf(err); !classified {
			h.logger.Error("transition failed", "error", err, "actor_id", actor.ID)
		}
		respond.Error(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, req)
}
