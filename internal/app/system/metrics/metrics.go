// internal/app/system/metrics/metrics.go

// Package metrics provides Prometheus-based metrics for board operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the Prometheus collectors for the task update engine and
// the realtime hub. A nil *Recorder is a no-op, so tests can pass nil.
type Recorder struct {
	mutationsTotal  *prometheus.CounterVec
	conflictsTotal  prometheus.Counter
	broadcastsTotal *prometheus.CounterVec
	wsConnections   prometheus.Gauge
}

// NewRecorder registers the board collectors with the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		mutationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_task_mutations_total",
				Help: "Total number of committed task mutations by action and outcome",
			},
			[]string{"action", "forced"},
		),
		conflictsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "board_version_conflicts_total",
				Help: "Total number of update attempts rejected by the version gate",
			},
		),
		broadcastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "board_broadcast_events_total",
				Help: "Total number of events fanned out to room subscribers",
			},
			[]string{"event"},
		),
		wsConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "board_websocket_connections",
				Help: "Currently connected websocket clients",
			},
		),
	}
}

// Mutation records a committed create/update/delete.
func (r *Recorder) Mutation(action string, forced bool) {
	if r == nil {
		return
	}
	f := "false"
	if forced {
		f = "true"
	}
	r.mutationsTotal.WithLabelValues(action, f).Inc()
}

// Conflict records a version-gate rejection.
func (r *Recorder) Conflict() {
	if r == nil {
		return
	}
	r.conflictsTotal.Inc()
}

// Broadcast records one fan-out delivery batch for an event type.
func (r *Recorder) Broadcast(event string) {
	if r == nil {
		return
	}
	r.broadcastsTotal.WithLabelValues(event).Inc()
}

// ConnOpened / ConnClosed track the live websocket connection gauge.
func (r *Recorder) ConnOpened() {
	if r == nil {
		return
	}
	r.wsConnections.Inc()
}

func (r *Recorder) ConnClosed() {
	if r == nil {
		return
	}
	r.wsConnections.Dec()
}
