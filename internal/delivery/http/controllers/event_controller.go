package controllers

import (
	"log/slog"
	"net/http"

	"happymemories/internal/delivery/http/helpers"
	"happymemories/internal/delivery/http/middleware"
	"happymemories/internal/domain"
)

// EventRequest is the request body for POST /events and PUT /events/{id}.
// Dates are "YYYY-MM-DDTHH:MM" or RFC 3339. Field rules are enforced by the service.
type EventRequest struct {
	Category  string `json:"category" example:"Party"`
	Title     string `json:"title" example:"Summer picnic"`
	Details   string `json:"details" example:"Bring snacks and a blanket."`
	Location  string `json:"location" example:"Central Park"`
	StartDate string `json:"start_date" example:"2026-07-01T12:00"`
	EndDate   string `json:"end_date" example:"2026-07-01T18:00"`
	Image     string `json:"image" example:"https://example.com/picnic.jpg"`
}

func (r EventRequest) toInput() domain.EventInput {
	return domain.EventInput{
		Category:  r.Category,
		Title:     r.Title,
		Details:   r.Details,
		Location:  r.Location,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Image:     r.Image,
	}
}

// EventSuccessResponse is the success envelope for a single event.
type EventSuccessResponse struct {
	Data  *domain.Event     `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// EventListingSuccessResponse is the success envelope for GET /events.
type EventListingSuccessResponse struct {
	Data  *domain.EventListing `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// EventDetailsSuccessResponse is the success envelope for GET /events/{id}.
type EventDetailsSuccessResponse struct {
	Data  *domain.EventDetails `json:"data"`
	Error *helpers.APIError    `json:"error"`
}

// DeleteEventResponse reports how many RSVPs were removed along with the event.
type DeleteEventResponse struct {
	EventID      string `json:"event_id"`
	RsvpsDeleted int64  `json:"rsvps_deleted"`
}

// DeleteEventSuccessResponse is the success envelope for DELETE /events/{id}.
type DeleteEventSuccessResponse struct {
	Data  DeleteEventResponse `json:"data"`
	Error *helpers.APIError   `json:"error"`
}

type EventController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewEventController(logger *slog.Logger, svc domain.EventService) *EventController {
	return &EventController{
		Logger:  logger,
		Service: svc,
	}
}

// writeError logs server-side failures and writes the mapped error response.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	if status, _ := helpers.ErrorStatus(err); status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed",
			"path", r.URL.Path, "method", r.Method,
			"request_id", middleware.RequestIDFromContext(r.Context()), "err", err)
	}
	helpers.WriteServiceError(w, err)
}

// ListEvents godoc
// @Summary List events
// @Description Returns every event ordered by start date, plus the distinct categories in use.
// @Tags events
// @Produce json
// @Success 200 {object} controllers.EventListingSuccessResponse
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events [get]
func (c *EventController) ListEvents(w http.ResponseWriter, r *http.Request) {
	listing, err := c.Service.ListEvents(r.Context())
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, listing)
}

// GetEvent godoc
// @Summary Get an event
// @Description Returns the event and the number of attendees who answered Yes.
// @Tags events
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controllers.EventDetailsSuccessResponse
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events/{id} [get]
func (c *EventController) GetEvent(w http.ResponseWriter, r *http.Request) {
	details, err := c.Service.GetEvent(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, details)
}

// CreateEvent godoc
// @Summary Create an event
// @Description Creates an event hosted by the authenticated user. The start date must be in the future.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body EventRequest true "Event data"
// @Success 201 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 422 {object} helpers.APIResponse "error.code: temporal_error"
// @Failure 503 {object} helpers.APIResponse "error.code: unavailable"
// @Router /events [post]
func (c *EventController) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	event, err := c.Service.CreateEvent(r.Context(), actorID, req.toInput())
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, event)
}

// UpdateEvent godoc
// @Summary Update an event
// @Description Replaces the event fields. Only the host may update; the host never changes.
// @Tags events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param event body EventRequest true "Event data"
// @Success 200 {object} controllers.EventSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/{id} [put]
func (c *EventController) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req EventRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	event, err := c.Service.UpdateEvent(r.Context(), actorID, r.PathValue("id"), req.toInput())
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, event)
}

// DeleteEvent godoc
// @Summary Delete an event
// @Description Deletes the event together with every RSVP for it. Only the host may delete.
// @Tags events
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Success 200 {object} controllers.DeleteEventSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{id} [delete]
func (c *EventController) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("id")
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	removed, err := c.Service.DeleteEventCascade(r.Context(), actorID, eventID)
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, DeleteEventResponse{EventID: eventID, RsvpsDeleted: removed})
}
