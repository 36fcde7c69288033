// Package metrics exposes Prometheus counters for the event and RSVP service.
// A nil *Recorder is valid and records nothing.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"happymemories/internal/domain"
)

const namespace = "happymemories"

type Recorder struct {
	rsvpUpserts    *prometheus.CounterVec
	cascadeDeletes *prometheus.CounterVec
	rsvpsCascaded  prometheus.Counter
	operationErrs  *prometheus.CounterVec
}

// NewRecorder registers the service counters on reg. Pass prometheus.DefaultRegisterer
// to serve them from promhttp.Handler.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		rsvpUpserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvp_upserts_total",
			Help:      "RSVP upserts by outcome.",
		}, []string{"outcome"}),
		cascadeDeletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_cascade_deletes_total",
			Help:      "Event cascade deletes by result.",
		}, []string{"result"}),
		rsvpsCascaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rsvps_cascade_deleted_total",
			Help:      "RSVPs removed as part of an event cascade delete.",
		}),
		operationErrs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Failed service operations by operation and error kind.",
		}, []string{"op", "kind"}),
	}
	reg.MustRegister(r.rsvpUpserts, r.cascadeDeletes, r.rsvpsCascaded, r.operationErrs)
	return r
}

func (r *Recorder) RsvpUpserted(outcome domain.UpsertOutcome) {
	if r == nil {
		return
	}
	r.rsvpUpserts.WithLabelValues(outcome.String()).Inc()
}

// CascadeDeleted records a finished cascade. partial marks a cascade whose event delete failed
// after some RSVPs were already removed.
func (r *Recorder) CascadeDeleted(rsvps int64, partial bool) {
	if r == nil {
		return
	}
	result := "ok"
	if partial {
		result = "partial"
	}
	r.cascadeDeletes.WithLabelValues(result).Inc()
	if rsvps > 0 {
		r.rsvpsCascaded.Add(float64(rsvps))
	}
}

func (r *Recorder) OperationFailed(op string, err error) {
	if r == nil || err == nil {
		return
	}
	r.operationErrs.WithLabelValues(op, Kind(err)).Inc()
}

// Kind names the domain error class of err for use as a label value.
func Kind(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrTemporal):
		return "temporal"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "unavailable"
	}
	return "internal"
}
