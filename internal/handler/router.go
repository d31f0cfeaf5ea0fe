package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/repair-commons/repaircafe/internal/service"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Registrations *RegistrationHandler
	Checkin       *CheckinHandler
	Items         *ItemHandler
	Volunteers    *VolunteerHandler
	Reports       *ReportHandler
}

// NewRouter builds the chi router with the full middleware stack and all
// API routes.
func NewRouter(auth *service.AuthService, h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(RequestLogger)
	r.Use(CORS)
	r.Use(SessionAuth(auth))

	r.Get("/health", HealthCheck)
	r.Get("/auth/verify", h.Auth.Verify)

	r.Route("/api", func(r chi.Router) {
		// Sign-in flow.
		r.Post("/auth/magic-link", h.Auth.RequestMagicLink)
		r.Post("/auth/sign-out", h.Auth.SignOut)
		r.Get("/auth/me", h.Auth.Me)

		// Public event listing and registration.
		r.Get("/events", h.Events.ListPublished)
		r.Get("/events/{id}", h.Events.Get)
		r.Get("/venues", h.Events.ListVenues)

		r.Post("/registrations", h.Registrations.Create)
		r.Route("/registrations/{id}", func(r chi.Router) {
			r.Get("/", h.Registrations.Get)
			r.Delete("/", h.Registrations.Cancel)
			r.Put("/items", h.Registrations.UpdateItems)
			r.Get("/qr", h.Registrations.QRImage)
		})

		// Volunteer sign-up forms.
		r.Post("/fixers", h.Volunteers.RegisterFixer)
		r.Post("/helpers", h.Volunteers.RegisterHelper)
		r.Get("/skills", h.Volunteers.ListSkills)

		// Signed-in self service.
		r.Group(func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/preferences", h.Volunteers.GetPreferences)
			r.Patch("/preferences", h.Volunteers.UpdatePreferences)
			r.Get("/items/{itemID}/comments", h.Items.Comments)
			r.Post("/items/{itemID}/comments", h.Items.AddComment)
		})

		// Repair floor, for fixers and admins.
		r.Group(func(r chi.Router) {
			r.Use(RequireFixer)
			r.Get("/fixers/me", h.Volunteers.Profile)
			r.Put("/fixers/me", h.Volunteers.UpdateProfile)
			r.Get("/events/{eventID}/queue", h.Items.Queue)
			r.Post("/events/{eventID}/items/{itemID}/claim", h.Items.Claim)
			r.Post("/events/{eventID}/items/{itemID}/outcome", h.Items.Outcome)
			r.Patch("/events/{eventID}/items/{itemID}/status", h.Items.UpdateStatus)
		})

		// Admin console.
		r.Route("/admin", func(r chi.Router) {
			r.Use(RequireAdmin)

			r.Get("/events", h.Events.ListAll)
			r.Post("/events", h.Events.Create)
			r.Patch("/events/{id}", h.Events.Update)
			r.Delete("/events/{id}", h.Events.Delete)

			r.Get("/events/{eventID}/checkin", h.Checkin.Lookup)
			r.Get("/events/{eventID}/checkin/search", h.Checkin.Search)
			r.Post("/events/{eventID}/checkin/{registrationID}", h.Checkin.Confirm)

			r.Get("/events/{eventID}/stats", h.Reports.Stats)
			r.Get("/events/{eventID}/report", h.Reports.Get)
			r.Get("/events/{eventID}/report.csv", h.Reports.ExportCSV)

			r.Get("/fixers", h.Volunteers.ListFixers)
			r.Patch("/fixers/{id}/status", h.Volunteers.SetFixerStatus)
			r.Get("/helpers", h.Volunteers.ListHelpers)
			r.Patch("/helpers/{id}/status", h.Volunteers.SetHelperStatus)
		})
	})

	return r
}
