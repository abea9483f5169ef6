// Package router wires every endpoint onto a chi mux.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nourishhq/dietitian-platform/internal/api/respond"
	"github.com/nourishhq/dietitian-platform/internal/availability"
	"github.com/nourishhq/dietitian-platform/internal/bookings"
	"github.com/nourishhq/dietitian-platform/internal/eventtypes"
	httpmiddleware "github.com/nourishhq/dietitian-platform/internal/http/middleware"
	"github.com/nourishhq/dietitian-platform/internal/identity"
	"github.com/nourishhq/dietitian-platform/internal/mealplans"
	"github.com/nourishhq/dietitian-platform/internal/outofoffice"
	"github.com/nourishhq/dietitian-platform/internal/realtime"
	"github.com/nourishhq/dietitian-platform/internal/sessionrequests"
	"github.com/nourishhq/dietitian-platform/internal/slots"
	"github.com/nourishhq/dietitian-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger *logging.Logger

	AuthSecret string

	AvailabilityHandler *availability.Handler
	OutOfOfficeHandler  *outofoffice.Handler
	EventTypesHandler   *eventtypes.Handler
	SlotsHandler        *slots.Handler
	RequestsHandler     *sessionrequests.Handler
	BookingsHandler     *bookings.Handler
	MealPlansHandler    *mealplans.Handler
	Hub                 *realtime.Hub

	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSecond > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Everything else requires a resolved actor.
	r.Group(func(authed chi.Router) {
		authed.Use(identity.RequireActor(cfg.AuthSecret))

		if cfg.SlotsHandler != nil {
			authed.Get("/slots", cfg.SlotsHandler.ListOpenSlots)
		}
		if cfg.AvailabilityHandler != nil {
			authed.Route("/availability", func(av chi.Router) {
				av.Get("/", cfg.AvailabilityHandler.ListSchedules)
				av.Put("/", cfg.AvailabilityHandler.UpsertSchedule)
				av.Post("/toggle", cfg.AvailabilityHandler.ToggleAll)
			})
		}
		if cfg.OutOfOfficeHandler != nil {
			authed.Route("/out-of-office", func(ooo chi.Router) {
				ooo.Get("/", cfg.OutOfOfficeHandler.ListPeriods)
				ooo.Post("/", cfg.OutOfOfficeHandler.CreatePeriod)
				ooo.Delete("/{periodID}", cfg.OutOfOfficeHandler.DeletePeriod)
			})
		}
		if cfg.EventTypesHandler != nil {
			authed.Route("/event-types", func(et chi.Router) {
				et.Get("/", cfg.EventTypesHandler.ListEventTypes)
				et.Put("/", cfg.EventTypesHandler.UpsertEventType)
			})
		}
		if cfg.RequestsHandler != nil {
			authed.Route("/requests", func(req chi.Router) {
				req.Get("/", cfg.RequestsHandler.ListRequests)
				req.Post("/", cfg.RequestsHandler.CreateRequest)
				req.Get("/{requestID}", cfg.RequestsHandler.GetRequest)
				req.Post("/{requestID}/approve", cfg.RequestsHandler.ApproveRequest)
				req.Post("/{requestID}/reject", cfg.RequestsHandler.RejectRequest)
			})
		}
		if cfg.BookingsHandler != nil {
			authed.Route("/bookings", func(bk chi.Router) {
				bk.Get("/", cfg.BookingsHandler.ListBookings)
				bk.Delete("/{bookingID}", cfg.BookingsHandler.CancelBooking)
			})
		}
		if cfg.MealPlansHandler != nil {
			authed.Get("/meal-plans", cfg.MealPlansHandler.ListMealPlans)
		}
		if cfg.Hub != nil {
			authed.Get("/ws", cfg.Hub.ServeWS)
		}
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
