// Package metrics exposes Prometheus instruments for assessment runs.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"trustdebt/domain/report"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements app.RunObserver on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	failuresTotal    *prometheus.CounterVec
	runDuration      prometheus.Histogram
	totalUnits       prometheus.Histogram
	balancerPasses   prometheus.Histogram
	maxCorrelation   prometheus.Gauge
	categoriesActive prometheus.Gauge
}

// NewRecorder registers the trust-debt instruments on a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdebt_runs_total",
			Help: "Completed assessment runs by grade and balancer outcome",
		}, []string{"grade", "unresolved"}),
		failuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "trustdebt_run_failures_total",
			Help: "Failed assessment runs by error code",
		}, []string{"code"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustdebt_run_duration_seconds",
			Help:    "Duration of one assessment run",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		totalUnits: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustdebt_total_units",
			Help:    "Trust debt total per run",
			Buckets: []float64{100, 500, 1000, 1500, 3000, 6000},
		}),
		balancerPasses: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "trustdebt_balancer_passes",
			Help:    "Adjustment passes the balancer needed per run",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		}),
		maxCorrelation: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trustdebt_last_max_pairwise_correlation",
			Help: "Max pairwise correlation of the most recent run",
		}),
		categoriesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "trustdebt_last_category_count",
			Help: "Category count of the most recent run",
		}),
	}
}

// ObserveRun records a completed run.
func (r *Recorder) ObserveRun(rep *report.Report, elapsed time.Duration) {
	if rep == nil || rep.Result == nil {
		return
	}
	r.runsTotal.WithLabelValues(rep.Result.Grade, strconv.FormatBool(rep.Balance.Unresolved)).Inc()
	r.runDuration.Observe(elapsed.Seconds())
	r.totalUnits.Observe(rep.Result.TotalUnits)
	r.balancerPasses.Observe(float64(rep.Balance.Passes))
	r.maxCorrelation.Set(rep.Orthogonality.MaxPairwiseCorrelation)
	r.categoriesActive.Set(float64(len(rep.Categories)))
}

// ObserveFailure records a failed run.
func (r *Recorder) ObserveFailure(code string) {
	r.failuresTotal.WithLabelValues(code).Inc()
}

// Registry returns the registry the instruments live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
