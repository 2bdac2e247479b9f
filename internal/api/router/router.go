// Package router wires the HTTP surface: the dashboard REST API, the
// WebSocket bridge, metrics, and the static dashboard assets.
package router

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aqar-tech/realestate-ai-platform/internal/dashboard"
	"github.com/aqar-tech/realestate-ai-platform/internal/http/handlers"
	httpmiddleware "github.com/aqar-tech/realestate-ai-platform/internal/http/middleware"
	"github.com/aqar-tech/realestate-ai-platform/pkg/logging"
)

// Config holds the handlers and settings the router composes. Nil handlers
// skip their routes, so partial wiring in tests stays cheap.
type Config struct {
	Logger *logging.Logger

	Health    *handlers.HealthHandler
	Business  *handlers.BusinessHandler
	Listings  *handlers.ListingsHandler
	Schedule  *handlers.ScheduleHandler
	Stats     *handlers.StatsHandler
	Export    *handlers.ExportHandler
	Dashboard *dashboard.Handler

	// AdminJWTSecret guards the mutating API routes. Empty leaves them
	// open, which is only sensible in development.
	AdminJWTSecret     string
	CORSAllowedOrigins []string
	PublicDir          string
	EnableRequestLogs  bool
}

// New builds the chi router for the platform.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Compress(5))

	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.EnableRequestLogs {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public surface: liveness, metrics, and the dashboard socket.
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Get("/health", cfg.Health.Get)
		}
		public.Handle("/metrics", promhttp.Handler())
		if cfg.Dashboard != nil {
			public.Get("/ws", cfg.Dashboard.HandleWebSocket)
		}
	})

	r.Route("/api", func(api chi.Router) {
		// Reads stay open so the dashboard can render before login.
		if cfg.Business != nil {
			api.Get("/business", cfg.Business.Get)
		}
		if cfg.Listings != nil {
			api.Get("/properties", cfg.Listings.List)
			api.Get("/properties/search", cfg.Listings.Search)
			api.Get("/properties/types", cfg.Listings.Types)
			api.Get("/properties/locations", cfg.Listings.Locations)
			api.Get("/properties/{id}", cfg.Listings.Get)
		}
		if cfg.Schedule != nil {
			api.Get("/appointments", cfg.Schedule.ListAppointments)
			api.Get("/inquiries", cfg.Schedule.ListInquiries)
		}
		if cfg.Stats != nil {
			api.Get("/stats", cfg.Stats.Get)
		}

		// Mutations and exports require the admin token when one is set.
		api.Group(func(admin chi.Router) {
			if cfg.AdminJWTSecret != "" {
				admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			}
			if cfg.Business != nil {
				admin.Put("/business", cfg.Business.Update)
			}
			if cfg.Listings != nil {
				admin.Post("/properties", cfg.Listings.Create)
				admin.Put("/properties/{id}", cfg.Listings.Update)
				admin.Delete("/properties/{id}", cfg.Listings.Delete)
			}
			if cfg.Schedule != nil {
				admin.Post("/appointments", cfg.Schedule.CreateAppointment)
				admin.Patch("/appointments/{id}/status", cfg.Schedule.UpdateAppointmentStatus)
				admin.Post("/inquiries", cfg.Schedule.CreateInquiry)
				admin.Patch("/inquiries/{id}/status", cfg.Schedule.UpdateInquiryStatus)
			}
			if cfg.Export != nil {
				admin.Get("/export/messages", cfg.Export.Messages)
				admin.Get("/export/meetings", cfg.Export.Meetings)
				admin.Get("/export/sales", cfg.Export.SalesContacts)
			}
		})
	})

	if cfg.PublicDir != "" {
		if _, err := os.Stat(cfg.PublicDir); err == nil {
			r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
		}
	}

	return r
}
