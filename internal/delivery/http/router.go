package http

import (
	"log/slog"
	"net/http"

	"happymemories/internal/delivery/http/controllers"
	"happymemories/internal/delivery/http/middleware"
	"happymemories/internal/domain"
	"happymemories/internal/metrics"

	httpSwagger "github.com/swaggo/http-swagger"
)

// RouterConfig carries everything NewRouter needs besides the controllers.
type RouterConfig struct {
	Verifier       domain.TokenVerifier
	Logger         *slog.Logger
	HTTPMetrics    *metrics.HTTP
	MetricsHandler http.Handler
	AllowedOrigins []string
}

// NewRouter initializes the HTTP router with all application routes and wraps it
// with request id, logging and CORS middleware.
func NewRouter(eventController *controllers.EventController, attendeeController *controllers.AttendeeController, cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(cfg.Verifier, cfg.Logger)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, cfg.HTTPMetrics.Instrument(pattern, h))
	}

	// Events
	handle("GET /events", eventController.ListEvents)
	handle("GET /events/{id}", eventController.GetEvent)
	handle("POST /events", auth(eventController.CreateEvent))
	handle("PUT /events/{id}", auth(eventController.UpdateEvent))
	handle("DELETE /events/{id}", auth(eventController.DeleteEvent))

	// RSVPs
	handle("POST /events/{id}/rsvp", auth(attendeeController.SetRsvp))
	handle("DELETE /events/rsvp/{id}", auth(attendeeController.DeleteRsvp))
	handle("GET /rsvps", auth(attendeeController.ListMyRsvps))

	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return middleware.RequestID(middleware.LoggingMiddleware(cfg.Logger, middleware.CORS(cfg.AllowedOrigins, mux)))
}
