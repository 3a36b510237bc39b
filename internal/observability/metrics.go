// internal/observability/metrics.go

package observability

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"surveillance-core/internal/escalation"
	"surveillance-core/internal/suspicion"
)

// Metrics: метрики сервиса. Все методы допускают nil-приёмник.
type Metrics struct {
	registry *prometheus.Registry

	ticksTotal         prometheus.Counter
	tickDuration       prometheus.Histogram
	observationsTotal  *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	zoneHeat           *prometheus.GaugeVec
	zoneTier           *prometheus.GaugeVec
	snapshotErrors     prometheus.Counter
	httpRequestsTotal  *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// NewMetrics создаёт метрики в собственном реестре.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surveillance_ticks_total",
			Help: "Total ticks run through the engine.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "surveillance_tick_duration_seconds",
			Help:    "Histogram of engine tick durations.",
			Buckets: prometheus.DefBuckets,
		}),
		observationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_observations_total",
			Help: "Witness observations by source.",
		}, []string{"source"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "surveillance_notifications_total",
			Help: "Escalation notifications by kind.",
		}, []string{"kind"}),
		zoneHeat: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "surveillance_zone_heat",
			Help: "Current total heat per zone.",
		}, []string{"zone"}),
		zoneTier: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "surveillance_zone_tier",
			Help: "Current heat tier per zone (0 calm, 1 tracking, 2 crackdown).",
		}, []string{"zone"}),
		snapshotErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "surveillance_snapshot_errors_total",
			Help: "Failed snapshot saves.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.registry.MustRegister(
		m.ticksTotal,
		m.tickDuration,
		m.observationsTotal,
		m.notificationsTotal,
		m.zoneHeat,
		m.zoneTier,
		m.snapshotErrors,
		m.httpRequestsTotal,
		m.httpDuration,
	)
	return m
}

// Handler отдаёт метрики в формате Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Tick учитывает один шаг движка.
func (m *Metrics) Tick(duration time.Duration, observations []suspicion.WitnessObservation, notifications []escalation.Notification, heat []suspicion.ZoneHeatComputation) {
	if m == nil {
		return
	}
	m.ticksTotal.Inc()
	m.tickDuration.Observe(duration.Seconds())
	for _, o := range observations {
		m.observationsTotal.WithLabelValues(string(o.Source)).Inc()
	}
	for _, n := range notifications {
		m.notificationsTotal.WithLabelValues(string(n.Kind)).Inc()
	}
	for _, h := range heat {
		m.SetZoneHeat(h)
	}
}

// SetZoneHeat обновляет жар и уровень зоны.
func (m *Metrics) SetZoneHeat(h suspicion.ZoneHeatComputation) {
	if m == nil {
		return
	}
	m.zoneHeat.WithLabelValues(h.ZoneID).Set(h.TotalHeat)
	m.zoneTier.WithLabelValues(h.ZoneID).Set(float64(h.Tier.Rank()))
}

// ResetZones сбрасывает метрики зон.
func (m *Metrics) ResetZones() {
	if m == nil {
		return
	}
	m.zoneHeat.Reset()
	m.zoneTier.Reset()
}

func (m *Metrics) SnapshotFailed() {
	if m == nil {
		return
	}
	m.snapshotErrors.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// Hijack нужен для WebSocket.
func (s *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := s.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("hijack not supported")
	}
	s.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

// Middleware считает запросы по шаблону маршрута mux.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		if m == nil {
			return
		}
		route := "unknown"
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
