package controllers

import (
	"log/slog"
	"net/http"

	"happymemories/internal/delivery/http/helpers"
	"happymemories/internal/delivery/http/middleware"
	"happymemories/internal/domain"
)

// SetRsvpRequest is the request body for POST /events/{id}/rsvp.
type SetRsvpRequest struct {
	Status string `json:"status" example:"Yes"`
}

// Validate implements helpers.Validator.
func (r *SetRsvpRequest) Validate() []string {
	if r.Status == "" {
		return []string{"status is required"}
	}
	return nil
}

// RsvpSuccessResponse is the success envelope for a single RSVP.
type RsvpSuccessResponse struct {
	Data  *domain.Rsvp      `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// RsvpListSuccessResponse is the success envelope for GET /rsvps.
type RsvpListSuccessResponse struct {
	Data  []*domain.RsvpWithEvent `json:"data"`
	Error *helpers.APIError       `json:"error"`
}

type AttendeeController struct {
	Logger  *slog.Logger
	Service domain.EventService
}

func NewAttendeeController(logger *slog.Logger, svc domain.EventService) *AttendeeController {
	return &AttendeeController{
		Logger:  logger,
		Service: svc,
	}
}

// SetRsvp godoc
// @Summary Answer an event
// @Description Creates the caller's RSVP for the event or changes its status. Hosts cannot RSVP to their own events.
// @Tags rsvps
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Event ID"
// @Param rsvp body SetRsvpRequest true "Yes, No or Maybe"
// @Success 201 {object} controllers.RsvpSuccessResponse "RSVP created"
// @Success 200 {object} controllers.RsvpSuccessResponse "RSVP updated"
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request or validation_error"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict"
// @Router /events/{id}/rsvp [post]
func (c *AttendeeController) SetRsvp(w http.ResponseWriter, r *http.Request) {
	var req SetRsvpRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	rsvp, outcome, err := c.Service.SetRsvp(r.Context(), actorID, r.PathValue("id"), domain.RsvpStatus(req.Status))
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	status := http.StatusOK
	if outcome == domain.UpsertCreated {
		status = http.StatusCreated
	}
	helpers.WriteJSONSuccess(w, status, rsvp)
}

// DeleteRsvp godoc
// @Summary Withdraw an RSVP
// @Description Deletes one of the caller's RSVPs.
// @Tags rsvps
// @Security BearerAuth
// @Param id path string true "RSVP ID"
// @Success 204 "RSVP deleted"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Router /events/rsvp/{id} [delete]
func (c *AttendeeController) DeleteRsvp(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	if err := c.Service.DeleteRsvp(r.Context(), actorID, r.PathValue("id")); err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMyRsvps godoc
// @Summary List my RSVPs
// @Description Returns the caller's RSVPs, most recently changed first, each with its event.
// @Tags rsvps
// @Produce json
// @Security BearerAuth
// @Success 200 {object} controllers.RsvpListSuccessResponse
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Router /rsvps [get]
func (c *AttendeeController) ListMyRsvps(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.ActorIDFromContext(r.Context())
	rsvps, err := c.Service.ListAttendeeRsvps(r.Context(), actorID)
	if err != nil {
		writeError(c.Logger, w, r, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, rsvps)
}
