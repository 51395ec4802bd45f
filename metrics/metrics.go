// Package metrics exposes Prometheus metrics for the dashboard and the patients API.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "patientdash"

// Recorder holds the dashboard metrics on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	fetches        prometheus.Counter
	fetchErrors    prometheus.Counter
	fetchDuration  prometheus.Histogram
	inFlight       prometheus.Gauge
	staleResponses prometheus.Counter
	renders        prometheus.Counter
	bars           prometheus.Gauge
	ingested       prometheus.Counter
	served         *prometheus.CounterVec
}

func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetches_total",
			Help:      "Patient fetches issued by the dashboard.",
		}),
		fetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Patient fetches that failed.",
		}),
		fetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Latency of patient fetches.",
			Buckets:   prometheus.DefBuckets,
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fetches_in_flight",
			Help:      "Patient fetches currently outstanding.",
		}),
		staleResponses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer request was issued.",
		}),
		renders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Chart renders.",
		}),
		bars: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chart_bars",
			Help:      "Bars in the displayed chart.",
		}),
		ingested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Patient records stored through the ingest endpoint.",
		}),
		served: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_served_total",
			Help:      "Patient records returned by the patients API, by gender filter.",
		}, []string{"gender"}),
	}
	r.registry.MustRegister(
		r.fetches, r.fetchErrors, r.fetchDuration, r.inFlight,
		r.staleResponses, r.renders, r.bars, r.ingested, r.served,
	)
	return r
}

func (r *Recorder) FetchStarted() {
	r.fetches.Inc()
	r.inFlight.Inc()
}

func (r *Recorder) FetchFinished(d time.Duration, err error) {
	r.inFlight.Dec()
	r.fetchDuration.Observe(d.Seconds())
	if err != nil {
		r.fetchErrors.Inc()
	}
}

func (r *Recorder) StaleResponse() { r.staleResponses.Inc() }

func (r *Recorder) Rendered(bars int) {
	r.renders.Inc()
	r.bars.Set(float64(bars))
}

func (r *Recorder) Ingested(n int) { r.ingested.Add(float64(n)) }

func (r *Recorder) Served(gender string, n int) {
	r.served.WithLabelValues(gender).Add(float64(n))
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
