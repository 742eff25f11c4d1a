package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// ChatMetrics is returned by GET /v1/metrics/chat.
type ChatMetrics struct {
	TotalMessages        int64   `json:"totalMessages"`
	ReservationsStarted  int64   `json:"reservationsStarted"`
	ReservationsBooked   int64   `json:"reservationsBooked"`
	ReservationsFailed   int64   `json:"reservationsFailed"`
	ReservationsDeclined int64   `json:"reservationsDeclined"`
	AvailabilityChecks   int64   `json:"availabilityChecks"`
	EmailsSent           int64   `json:"emailsSent"`
	EmailsFailed         int64   `json:"emailsFailed"`
	ExternalErrors       int64   `json:"externalErrors"`
	BookingSuccessRate   float64 `json:"bookingSuccessRate"`
	SessionCacheHitRate  float64 `json:"sessionCacheHitRate"`
	Period               string  `json:"period"`
}
