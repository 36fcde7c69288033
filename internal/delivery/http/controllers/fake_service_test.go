package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"happymemories/internal/delivery/http/helpers"
	"happymemories/internal/delivery/http/middleware"
	"happymemories/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err error

	listing  *domain.EventListing
	details  *domain.EventDetails
	event    *domain.Event
	removed  int64
	rsvp     *domain.Rsvp
	outcome  domain.UpsertOutcome
	attended []*domain.RsvpWithEvent

	lastActorID string
	lastEventID string
	lastRsvpID  string
	lastInput   domain.EventInput
	lastStatus  domain.RsvpStatus
}

func (f *fakeEventService) ListEvents(_ context.Context) (*domain.EventListing, error) {
	return f.listing, f.err
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string) (*domain.EventDetails, error) {
	f.lastEventID = eventID
	return f.details, f.err
}

func (f *fakeEventService) CreateEvent(_ context.Context, actorID string, input domain.EventInput) (*domain.Event, error) {
	f.lastActorID, f.lastInput = actorID, input
	return f.event, f.err
}

func (f *fakeEventService) UpdateEvent(_ context.Context, actorID, eventID string, input domain.EventInput) (*domain.Event, error) {
	f.lastActorID, f.lastEventID, f.lastInput = actorID, eventID, input
	return f.event, f.err
}

func (f *fakeEventService) DeleteEventCascade(_ context.Context, actorID, eventID string) (int64, error) {
	f.lastActorID, f.lastEventID = actorID, eventID
	return f.removed, f.err
}

func (f *fakeEventService) SetRsvp(_ context.Context, actorID, eventID string, status domain.RsvpStatus) (*domain.Rsvp, domain.UpsertOutcome, error) {
	f.lastActorID, f.lastEventID, f.lastStatus = actorID, eventID, status
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.rsvp, f.outcome, nil
}

func (f *fakeEventService) DeleteRsvp(_ context.Context, actorID, rsvpID string) error {
	f.lastActorID, f.lastRsvpID = actorID, rsvpID
	return f.err
}

func (f *fakeEventService) ListAttendeeRsvps(_ context.Context, actorID string) ([]*domain.RsvpWithEvent, error) {
	f.lastActorID = actorID
	return f.attended, f.err
}

// serve routes a single request through a ServeMux so that path values are populated.
func serve(t *testing.T, pattern string, handler http.HandlerFunc, method, target, body, actorID string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if actorID != "" {
		req = req.WithContext(middleware.WithActorID(req.Context(), actorID))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data any) *helpers.APIError {
	t.Helper()
	var resp struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if data != nil && resp.Error == nil {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp.Error
}
