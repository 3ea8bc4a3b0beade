// Package metrics holds the Prometheus collectors of the clock.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "wallclock"

const (
	LabelMode     = "mode"
	LabelEndpoint = "endpoint"
	LabelAction   = "action"
	LabelResult   = "result"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

var Frames = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "frames_total",
		Help:      "Frames presented, by what they showed",
		Namespace: Namespace,
	},
	[]string{LabelMode},
)

var FrameSeconds = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:      "frame_seconds",
		Help:      "Time to render and present a frame",
		Namespace: Namespace,
		Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	},
)

var StripesWritten = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "stripes_written_total",
		Help:      "Framebuffer stripes written to the device",
		Namespace: Namespace,
	},
)

var StripesSkipped = promauto.NewCounter(
	prometheus.CounterOpts{
		Name:      "stripes_skipped_total",
		Help:      "Framebuffer stripes left alone because they did not change",
		Namespace: Namespace,
	},
)

var Updates = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "updates_total",
		Help:      "Accepted changes to what is shown, by API endpoint",
		Namespace: Namespace,
	},
	[]string{LabelEndpoint},
)

var ScheduleRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "schedule_runs_total",
		Help:      "Scheduled actions run",
		Namespace: Namespace,
	},
	[]string{LabelAction},
)

var TemperaturePolls = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      "temperature_polls_total",
		Help:      "Prometheus temperature queries",
		Namespace: Namespace,
	},
	[]string{LabelResult},
)

var TemperatureReadings = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      "temperature_readings",
		Help:      "Locations with a temperature reading in the last poll",
		Namespace: Namespace,
	},
)

// ObserveFlush records a framebuffer flush.
func ObserveFlush(written, total int) {
	StripesWritten.Add(float64(written))
	StripesSkipped.Add(float64(total - written))
}
