package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RedemptionsReceived = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redemptions_received_total",
		Help: "Redemption events received over the push channel",
	})
	RedemptionActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_actions_total",
			Help: "Outcome of in-game actions per redemption",
		}, []string{"result"}, // executed | failed | skipped
	)
	RedemptionReports = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemption_reports_total",
			Help: "Redemption status reports sent to Twitch",
		}, []string{"status"}, // fulfilled | canceled | none
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "control_requests_total",
			Help: "Total control server requests",
		}, []string{"code"},
	)
	Latency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "control_request_duration_seconds",
		Help:    "Control server request latency seconds",
		Buckets: prometheus.DefBuckets,
	})
	InFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "control_in_flight",
		Help: "In-flight control server requests",
	})
)

func init() {
	prometheus.MustRegister(RedemptionsReceived, RedemptionActions, RedemptionReports, RequestsTotal, Latency, InFlight)
}

func MetricsHandler() http.Handler { return promhttp.Handler() }

type rec struct {
	http.ResponseWriter
	code int
}

func (r *rec) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func Measure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		InFlight.Inc()
		defer InFlight.Dec()

		rr := &rec{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rr, r)

		Latency.Observe(time.Since(start).Seconds())
		RequestsTotal.WithLabelValues(strconv.Itoa(rr.code)).Inc()
	})
}
