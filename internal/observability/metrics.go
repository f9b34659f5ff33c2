// Package observability exposes Prometheus metrics for the house loop and its HTTP API.
package observability

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/August1314/nicehouse/internal/device"
	"github.com/August1314/nicehouse/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	alarmsTotal       *prometheus.CounterVec
	alarmsDropped     *prometheus.CounterVec
	deviceToggles     *prometheus.CounterVec
	sinkErrors        *prometheus.CounterVec
	roomTemperature   *prometheus.GaugeVec
	roomPM25          *prometheus.GaugeVec
	totalPower        prometheus.Gauge
	totalEnergy       prometheus.Gauge
}

// NewMetrics registers every collector on reg. A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		gatherer: reg,
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total count of HTTP requests processed by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request durations by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		alarmsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nicehouse_alarms_total",
			Help: "Alarms raised by type and level.",
		}, []string{"type", "level"}),
		alarmsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nicehouse_alarms_dropped_total",
			Help: "Alarms not delivered to notifiers because the queue was full.",
		}, []string{"type"}),
		deviceToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nicehouse_device_toggles_total",
			Help: "Device power changes by device type and resulting state.",
		}, []string{"device_type", "state"}),
		sinkErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "nicehouse_sink_errors_total",
			Help: "Failed writes to external sinks.",
		}, []string{"sink"}),
		roomTemperature: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nicehouse_room_temperature_celsius",
			Help: "Latest room temperature.",
		}, []string{"room"}),
		roomPM25: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "nicehouse_room_pm25",
			Help: "Latest room PM2.5 concentration (ug/m3).",
		}, []string{"room"}),
		totalPower: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nicehouse_total_power_watts",
			Help: "Sum of current power over all devices.",
		}),
		totalEnergy: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "nicehouse_total_energy_kwh",
			Help: "Sum of accumulated consumption over all devices.",
		}),
	}

	reg.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.alarmsTotal,
		m.alarmsDropped,
		m.deviceToggles,
		m.sinkErrors,
		m.roomTemperature,
		m.roomPM25,
		m.totalPower,
		m.totalEnergy,
	)

	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		duration := time.Since(start).Seconds()
		if m != nil {
			m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
			m.httpDuration.WithLabelValues(route).Observe(duration)
		}
	})
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Name notifier label
func (m *Metrics) Name() string { return "metrics" }

// Notify counts ev. Satisfies notify.Notifier.
func (m *Metrics) Notify(_ context.Context, ev models.AlarmEvent) error {
	if m == nil {
		return nil
	}
	m.alarmsTotal.WithLabelValues(string(ev.Type), ev.Level).Inc()
	return nil
}

// DeviceChanged counts one power change.
func (m *Metrics) DeviceChanged(ch device.StateChange) error {
	if m == nil {
		return nil
	}
	state := "off"
	if ch.On {
		state = "on"
	}
	m.deviceToggles.WithLabelValues(string(ch.Device.DeviceType), state).Inc()
	return nil
}

// AlarmDropped counts an alarm the responder could not queue.
func (m *Metrics) AlarmDropped(rec models.AlarmRecord) {
	if m == nil {
		return
	}
	m.alarmsDropped.WithLabelValues(string(rec.Type)).Inc()
}

func (m *Metrics) SinkError(sink string) {
	if m == nil {
		return
	}
	m.sinkErrors.WithLabelValues(sink).Inc()
}

// ObserveSnapshot refreshes the room and energy gauges.
func (m *Metrics) ObserveSnapshot(snap models.Snapshot) {
	if m == nil {
		return
	}
	for _, room := range snap.Rooms {
		if !room.HasData {
			continue
		}
		m.roomTemperature.WithLabelValues(room.Room.RoomID).Set(room.Environment.Temperature)
		m.roomPM25.WithLabelValues(room.Room.RoomID).Set(room.Environment.PM25)
	}
	m.totalPower.Set(snap.TotalPower)
	m.totalEnergy.Set(snap.TotalEnergy)
}
