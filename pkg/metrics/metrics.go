package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Métricas del canal de push
	ConnectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_connection_state",
			Help: "Current push channel state (0=disconnected, 1=connecting, 2=connected)",
		},
	)

	ReconnectAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_reconnect_attempts_total",
			Help: "Total number of reconnection attempts",
		},
	)

	ReconnectExhausted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_reconnect_exhausted_total",
			Help: "Times the reconnection policy gave up after reaching its ceiling",
		},
	)

	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_push_frames_received_total",
			Help: "Total number of push frames received",
		},
	)

	FramesDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_push_frames_dropped_total",
			Help: "Total number of push frames dropped",
		},
		[]string{"reason"},
	)

	// Métricas del almacén de notificaciones
	NotificationsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_notifications_received_total",
			Help: "Total number of notifications inserted into the store",
		},
		[]string{"type"},
	)

	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_unread_notifications",
			Help: "Current number of unread notifications",
		},
	)

	StoreSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_notifications_total",
			Help: "Current number of notifications held in the store",
		},
	)

	// Métricas del gateway REST
	RESTRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_rest_requests_total",
			Help: "Total number of REST gateway requests",
		},
		[]string{"operation", "status"},
	)

	RESTLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "agent_rest_latency_seconds",
			Help:    "Latency of REST gateway requests",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
		[]string{"operation"},
	)

	// Métricas de la señal sonora
	CuePlayed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_cue_played_total",
			Help: "Total number of audible cues played",
		},
	)

	CueThrottled = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "agent_cue_throttled_total",
			Help: "Total number of audible cues suppressed by the rate limiter",
		},
	)

	// Métricas del archivo local
	ArchiveOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "agent_archive_operations_total",
			Help: "Total number of local archive operations",
		},
		[]string{"operation", "status"},
	)

	// Métricas del ciclo de vida de la aplicación
	StartupTime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_startup_timestamp_seconds",
			Help: "Timestamp when the agent started",
		},
	)

	Uptime = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "agent_uptime_seconds",
			Help: "Time elapsed since the agent started",
		},
	)
)

// SetConnectionState traduce el estado del canal a la métrica numérica
func SetConnectionState(state string) {
	switch state {
	case "connected":
		ConnectionState.Set(2)
	case "connecting":
		ConnectionState.Set(1)
	default:
		ConnectionState.Set(0)
	}
}

// RecordLatency registra el tiempo transcurrido desde el inicio
func RecordLatency(histogram *prometheus.HistogramVec, labels prometheus.Labels, start time.Time) {
	duration := time.Since(start).Seconds()
	histogram.With(labels).Observe(duration)
}

// SetupMetrics inicializa las métricas cuando arranca el agente
func SetupMetrics() {
	StartupTime.Set(float64(time.Now().Unix()))

	go updateUptime()
}

// updateUptime actualiza periódicamente la métrica de tiempo de actividad
func updateUptime() {
	startTime := time.Now()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		Uptime.Set(time.Since(startTime).Seconds())
	}
}
