// control/metrics.go
// Author: momentics <momentics@gmail.com>
//
// Prometheus collectors for the server core.

package control

import (
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "hioload_httpd"

// Eviction reasons.
const (
	EvictIdle     = "idle"
	EvictHangup   = "hangup"
	EvictError    = "error"
	EvictQueue    = "queue_full"
	EvictClient   = "closed"
	EvictShutdown = "shutdown"
)

// Metrics groups every collector the server updates.
type Metrics struct {
	reg *prometheus.Registry

	LiveConns    prometheus.Gauge
	Accepted     prometheus.Counter
	BusyRejects  prometheus.Counter
	QueueDrops   prometheus.Counter
	WorkerPanics prometheus.Counter
	TimerTicks   prometheus.Counter
	Closed       *prometheus.CounterVec
	Responses    *prometheus.CounterVec
}

// NewMetrics creates collectors on a private registry. Go runtime and
// process collectors are included.
func NewMetrics() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		LiveConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "live_connections",
			Help: "Connections currently tracked by the event loop.",
		}),
		Accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "accepted_total",
			Help: "Connections accepted and registered.",
		}),
		BusyRejects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "busy_rejects_total",
			Help: "Connections refused at the live-connection ceiling.",
		}),
		QueueDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "queue_drops_total",
			Help: "Work items dropped because the queue was full.",
		}),
		WorkerPanics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "worker_panics_total",
			Help: "Work items whose processing panicked.",
		}),
		TimerTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "timer_ticks_total",
			Help: "Alarm ticks processed by the timer registry.",
		}),
		Closed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "closed_connections_total",
			Help: "Connections torn down, by reason.",
		}, []string{"reason"}),
		Responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "responses_total",
			Help: "Responses prepared, by status code.",
		}, []string{"code"}),
	}
	m.reg.MustRegister(
		m.LiveConns, m.Accepted, m.BusyRejects, m.QueueDrops,
		m.WorkerPanics, m.TimerTicks, m.Closed, m.Responses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveResponse counts one response with the given status code.
func (m *Metrics) ObserveResponse(code int) {
	m.Responses.WithLabelValues(strconv.Itoa(code)).Inc()
}

// ObserveClose counts one teardown.
func (m *Metrics) ObserveClose(reason string) {
	m.Closed.WithLabelValues(reason).Inc()
}

// GaugeFunc registers a gauge sampled from fn at collection time.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: name, Help: help,
	}, fn)
	if err := m.reg.Register(g); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// CounterFunc registers a counter sampled from fn at collection time.
func (m *Metrics) CounterFunc(name, help string, fn func() float64) error {
	c := prometheus.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Name: name, Help: help,
	}, fn)
	if err := m.reg.Register(c); err != nil {
		return fmt.Errorf("register %s: %w", name, err)
	}
	return nil
}

// WriteTextfile writes the text exposition of every collector to path.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.reg); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
