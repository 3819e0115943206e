package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder aggregates the prometheus collectors for the detection engine.
// A nil *Recorder is a no-op, so callers can leave metrics unwired.
type Recorder struct {
	changes          *prometheus.CounterVec
	trackedFiles     prometheus.Gauge
	baselineFiles    prometheus.Gauge
	baselineDuration prometheus.Gauge
}

// NewRecorder creates a Recorder and registers its collectors on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_changes_total",
			Help: "Total change records emitted, by kind.",
		}, []string{"kind"}),
		trackedFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_tracked_files",
			Help: "Number of files currently tracked in the state store.",
		}),
		baselineFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_baseline_files",
			Help: "Number of files captured by the last baseline run.",
		}),
		baselineDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_baseline_duration_seconds",
			Help: "Wall time of the last baseline run.",
		}),
	}
	reg.MustRegister(r.changes, r.trackedFiles, r.baselineFiles, r.baselineDuration)
	return r
}

// ObserveChange counts one emitted change record.
func (r *Recorder) ObserveChange(kind string) {
	if r == nil {
		return
	}
	r.changes.WithLabelValues(kind).Inc()
}

// SetTracked records the current size of the state store.
func (r *Recorder) SetTracked(n int) {
	if r == nil {
		return
	}
	r.trackedFiles.Set(float64(n))
}

// ObserveBaseline records the outcome of a baseline run.
func (r *Recorder) ObserveBaseline(files int, d time.Duration) {
	if r == nil {
		return
	}
	r.baselineFiles.Set(float64(files))
	r.baselineDuration.Set(d.Seconds())
}
