package metrics

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DeparturesComputed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bermudago_departures_computed_total",
		Help: "Next departures computed, by transport mode",
	}, []string{"mode"})
	DepartureErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bermudago_departure_errors_total",
		Help: "Failed departure computations, by reason",
	}, []string{"reason"})
	BoardRenderDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bermudago_board_render_seconds",
		Help:    "Time to compute a departure board",
		Buckets: prometheus.DefBuckets,
	})
	CommandRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bermudago_command_runs_total",
		Help: "CLI command invocations",
	}, []string{"cmd"})
	CommandErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bermudago_command_errors_total",
		Help: "CLI command failures",
	}, []string{"cmd"})
	RateLimited = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bermudago_http_rate_limited_total",
		Help: "HTTP requests rejected by the rate limiter",
	})
)

func init() {
	prometheus.MustRegister(DeparturesComputed, DepartureErrors, BoardRenderDuration, CommandRuns, CommandErrors, RateLimited)
}

// StartServer starts a metrics HTTP server on addr (e.g., ":9090").
func StartServer(addr string) {
	if addr == "" {
		addr = os.Getenv("METRICS_ADDR")
	}
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	go func() { _ = http.ListenAndServe(addr, mux) }()
}

// ObserveBoardRender records a board computation duration.
func ObserveBoardRender(start time.Time) {
	BoardRenderDuration.Observe(time.Since(start).Seconds())
}

func IncDeparture(mode string)        { DeparturesComputed.WithLabelValues(mode).Inc() }
func IncDepartureError(reason string) { DepartureErrors.WithLabelValues(reason).Inc() }
func IncCommandRun(cmd string)        { CommandRuns.WithLabelValues(cmd).Inc() }
func IncCommandError(cmd string)      { CommandErrors.WithLabelValues(cmd).Inc() }
