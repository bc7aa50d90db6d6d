package routes

import (
	"github.com/AnshRaj112/recuerdos-backend/internal/handlers"
	"github.com/go-chi/chi/v5"
)

// Route describes one registered endpoint, used for the startup log.
type Route struct {
	Method string
	Path   string
}

// Registered lists every route SetupRoutes mounts.
var Registered = []Route{
	{"GET", "/health"},
	{"GET", "/api/health"},
	{"GET", "/api/recuerdos"},
	{"POST", "/api/recuerdos"},
	{"GET", "/api/recuerdos/search"},
	{"GET", "/api/recuerdos/map"},
	{"GET", "/api/recuerdos/{id}"},
	{"PUT", "/api/recuerdos/{id}"},
	{"DELETE", "/api/recuerdos/{id}"},
	{"GET", "/api/stats"},
	{"GET", "/api/calendar"},
	{"GET", "/api/calendar/year"},
	{"POST", "/api/upload"},
}

func SetupRoutes(r chi.Router, h *handlers.RecuerdoHandler, up *handlers.UploadHandler) {
	// Health check (no store access)
	r.Get("/health", handlers.Health)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.APIHealth)

		// Recuerdos CRUD; static segments are registered before /{id}
		r.Route("/recuerdos", func(r chi.Router) {
			r.Get("/", h.GetRecuerdos)
			r.Post("/", h.CreateRecuerdo)
			r.Get("/search", h.SearchRecuerdos)
			r.Get("/map", h.GetMapMarkers)
			r.Get("/{id}", h.GetRecuerdo)
			r.Put("/{id}", h.UpdateRecuerdo)
			r.Delete("/{id}", h.DeleteRecuerdo)
		})

		// Dashboard aggregates
		r.Get("/stats", h.GetStats)
		r.Get("/calendar", h.GetMonthCalendar)
		r.Get("/calendar/year", h.GetYearCalendar)

		// File upload routes
		r.Post("/upload", up.UploadFile)
	})
}
