package observability

import (
	"time"

	"github.com/hernanbl/gandolfo-recordatorios/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Reservation outcomes recorded by IncrReservation.
const (
	OutcomeStarted   = "started"
	OutcomeBooked    = "booked"
	OutcomeFailed    = "failed"
	OutcomeDeclined  = "declined"
	OutcomeCancelled = "cancelled"
	OutcomeReset     = "reset"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	messagesTotal      *prometheus.CounterVec
	stepTransitions    *prometheus.CounterVec
	reservations       *prometheus.CounterVec
	availabilityChecks *prometheus.CounterVec
	confirmationEmails *prometheus.CounterVec
	requestsTotal      *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		messagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_chat_messages_total",
				Help: "Chat messages processed, by route.",
			},
			[]string{"route"},
		),
		stepTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_chat_step_transitions_total",
				Help: "Reservation step transitions, by destination step.",
			},
			[]string{"step"},
		),
		reservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_chat_reservations_total",
				Help: "Reservation conversations, by outcome.",
			},
			[]string{"outcome"},
		),
		availabilityChecks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_chat_availability_checks_total",
				Help: "Availability checks, by result.",
			},
			[]string{"result"},
		),
		confirmationEmails: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_chat_confirmation_emails_total",
				Help: "Confirmation e-mails, by result.",
			},
			[]string{"result"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_requests_total",
				Help: "Total requests processed.",
			},
			[]string{"status"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrMessage counts a chat message handled by route.
func (m *Metrics) IncrMessage(route string) {
	m.messagesTotal.WithLabelValues(route).Inc()
}

// IncrStep counts a transition into step.
func (m *Metrics) IncrStep(step string) {
	m.stepTransitions.WithLabelValues(step).Inc()
}

// IncrReservation counts a reservation outcome (see Outcome constants).
func (m *Metrics) IncrReservation(outcome string) {
	m.reservations.WithLabelValues(outcome).Inc()
}

// IncrAvailabilityCheck counts an availability check result.
func (m *Metrics) IncrAvailabilityCheck(result string) {
	m.availabilityChecks.WithLabelValues(result).Inc()
}

// IncrConfirmationEmail counts a confirmation e-mail result.
func (m *Metrics) IncrConfirmationEmail(result string) {
	m.confirmationEmails.WithLabelValues(result).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// GetChatSnapshot returns a snapshot of chat metrics suitable for the
// GET /v1/metrics/chat endpoint.
func (m *Metrics) GetChatSnapshot() *domain.ChatMetrics {
	var totalMessages float64
	for _, route := range []string{"reservation_step", "reservation_start", "availability", "general"} {
		totalMessages += getCounterValue(m.messagesTotal, route)
	}

	booked := getCounterValue(m.reservations, OutcomeBooked)
	failed := getCounterValue(m.reservations, OutcomeFailed)
	hits := getCounterValue(m.cacheHits, "session")
	misses := getCounterValue(m.cacheMisses, "session")

	bookingRate := float64(0)
	if booked+failed > 0 {
		bookingRate = booked / (booked + failed)
	}
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	var checks float64
	for _, result := range []string{"available", "unavailable", "error", "no_date"} {
		checks += getCounterValue(m.availabilityChecks, result)
	}

	return &domain.ChatMetrics{
		TotalMessages:        int64(totalMessages),
		ReservationsStarted:  int64(getCounterValue(m.reservations, OutcomeStarted)),
		ReservationsBooked:   int64(booked),
		ReservationsFailed:   int64(failed),
		ReservationsDeclined: int64(getCounterValue(m.reservations, OutcomeDeclined)),
		AvailabilityChecks:   int64(checks),
		EmailsSent:           int64(getCounterValue(m.confirmationEmails, "sent")),
		EmailsFailed:         int64(getCounterValue(m.confirmationEmails, "failed")),
		ExternalErrors:       int64(getCounterValue(m.externalErrors, "reservas")),
		BookingSuccessRate:   bookingRate,
		SessionCacheHitRate:  hitRate,
		Period:               "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
