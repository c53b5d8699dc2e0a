// Package metrics records how a proposal run went, for a textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "upgrade_helper"

var stepBuckets = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120}

// Recorder holds the metrics of one invocation. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	stepDuration      *prometheus.HistogramVec
	stepFailures      *prometheus.CounterVec
	summarizeAttempts *prometheus.CounterVec
	estimatedHeight   *prometheus.GaugeVec
	blockTime         *prometheus.GaugeVec
	eligibleKeys      prometheus.Gauge
}

// New creates a Recorder on its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		stepDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Time spent in each pipeline step",
			Buckets:   stepBuckets,
		}, []string{"step"}),
		stepFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_failures_total",
			Help:      "Pipeline steps that failed",
		}, []string{"step"}),
		summarizeAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "summarize_attempts_total",
			Help:      "Completion calls made to summarize release notes",
		}, []string{"model"}),
		estimatedHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "estimated_upgrade_height",
			Help:      "Estimated upgrade height",
		}, []string{"network", "kind"}),
		blockTime: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "block_time_seconds",
			Help:      "Average block time the estimate is based on",
		}, []string{"network"}),
		eligibleKeys: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "eligible_keys",
			Help:      "Signing keys holding enough balance to submit",
		}),
	}
	r.registry.MustRegister(
		r.stepDuration,
		r.stepFailures,
		r.summarizeAttempts,
		r.estimatedHeight,
		r.blockTime,
		r.eligibleKeys,
	)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveStep records the duration of step and whether it failed.
func (r *Recorder) ObserveStep(step string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.stepDuration.WithLabelValues(step).Observe(d.Seconds())
	if err != nil {
		r.stepFailures.WithLabelValues(step).Inc()
	}
}

// AddSummarizeAttempts counts completion calls made for model.
func (r *Recorder) AddSummarizeAttempts(model string, n int) {
	if r == nil || n <= 0 {
		return
	}
	r.summarizeAttempts.WithLabelValues(model).Add(float64(n))
}

// SetEstimate records an upgrade height estimate for network.
func (r *Recorder) SetEstimate(network string, predicted, rounded int64, blockTime float64) {
	if r == nil {
		return
	}
	r.estimatedHeight.WithLabelValues(network, "predicted").Set(float64(predicted))
	r.estimatedHeight.WithLabelValues(network, "rounded").Set(float64(rounded))
	r.blockTime.WithLabelValues(network).Set(blockTime)
}

// SetEligibleKeys records how many keys could sign the proposal.
func (r *Recorder) SetEligibleKeys(n int) {
	if r == nil {
		return
	}
	r.eligibleKeys.Set(float64(n))
}

// WriteToTextfile writes the metrics in the text exposition format.
func (r *Recorder) WriteToTextfile(path string) error {
	if r == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, r.registry)
}
