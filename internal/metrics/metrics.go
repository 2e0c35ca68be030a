package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"zone_scheduler/internal/models"
)

const metricPrefix = "zone_scheduler_"

// Metrics exposes zone state to Prometheus. It is fed as an event listener.
type Metrics struct {
	registry *prometheus.Registry

	setpoint *prometheus.GaugeVec
	clamped  *prometheus.GaugeVec
	holds    *prometheus.GaugeVec
	events   *prometheus.CounterVec

	mu      sync.Mutex
	sources map[string]models.SetpointSource
}

// New builds the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		setpoint: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "setpoint",
				Help: "Effective setpoint of a zone",
			},
			[]string{"zone", "source"},
		),
		clamped: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "setpoint_clamped",
				Help: "1 if the setpoint of a zone was limited to the safety range",
			},
			[]string{"zone"},
		),
		holds: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "hold_active",
				Help: "1 if a hold overrides the schedules of a zone",
			},
			[]string{"zone"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "events_total",
				Help: "Total zone events by type and change",
			},
			[]string{"type", "change"},
		),
		sources: make(map[string]models.SetpointSource),
	}
	m.registry.MustRegister(
		m.setpoint,
		m.clamped,
		m.holds,
		m.events,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Notify(e models.Event) {
	m.events.WithLabelValues(string(e.Type), string(e.Change)).Inc()

	switch e.Type {
	case models.EventHoldChanged:
		if e.Change == models.ChangeSet {
			m.holds.WithLabelValues(e.ZoneID).Set(1)
		} else {
			m.holds.WithLabelValues(e.ZoneID).Set(0)
		}
	case models.EventSetpointChanged:
		if e.Setpoint != nil {
			m.setSetpoint(e.ZoneID, *e.Setpoint)
		} else {
			m.clearSetpoint(e.ZoneID)
		}
	}
}

// ObserveZone sets the gauges that events only update on change, e.g. for
// holds loaded from the store at startup.
func (m *Metrics) ObserveZone(snap models.ZoneSnapshot) {
	var active float64
	if snap.Hold != nil {
		active = 1
	}
	m.holds.WithLabelValues(snap.ZoneID).Set(active)
}

func (m *Metrics) clearSetpoint(zone string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.sources[zone]; ok {
		m.setpoint.DeleteLabelValues(zone, string(prev))
		delete(m.sources, zone)
	}
	m.clamped.DeleteLabelValues(zone)
}

func (m *Metrics) setSetpoint(zone string, sp models.Setpoint) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// one series per zone: drop the one labelled with the old source
	if prev, ok := m.sources[zone]; ok && prev != sp.Source {
		m.setpoint.DeleteLabelValues(zone, string(prev))
	}
	m.sources[zone] = sp.Source
	m.setpoint.WithLabelValues(zone, string(sp.Source)).Set(sp.Temperature)

	var clamped float64
	if sp.Clamped {
		clamped = 1
	}
	m.clamped.WithLabelValues(zone).Set(clamped)
}

// Registry allows other components to add their own collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
