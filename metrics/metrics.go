package metrics

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	appliancesScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boltnexus",
			Name:      "appliances_scored_total",
			Help:      "Count of health scores computed by source.",
		},
		[]string{"source"},
	)

	bookingsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boltnexus",
			Name:      "bookings_created_total",
			Help:      "Count of bookings created by service type.",
		},
		[]string{"service_type"},
	)

	paymentsVerified = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "boltnexus",
			Name:      "payments_verified_total",
			Help:      "Count of payment verifications by result.",
		},
		[]string{"result"},
	)

	jobsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "boltnexus",
			Name:      "jobs_completed_total",
			Help:      "Count of technician jobs completed.",
		},
	)

	healthScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "boltnexus",
			Name:      "health_score",
			Help:      "Distribution of computed appliance health scores.",
			Buckets:   []float64{20, 40, 60, 80, 90, 100},
		},
	)
)

// Score sources
const (
	SourceRegister   = "register"
	SourceDiagnostic = "diagnostic"
	SourceAging      = "aging"
)

// Payment verification results
const (
	ResultSuccess          = "success"
	ResultInvalidSignature = "invalid_signature"
	ResultRejected         = "rejected"
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appliancesScored, bookingsCreated, paymentsVerified, jobsCompleted, healthScore)
	})
}

// Handler serves the default registry for gin
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

// HTTPHandler is the plain net/http form of Handler
func HTTPHandler() http.Handler {
	return promhttp.Handler()
}

func ObserveScore(source string, score int) {
	appliancesScored.WithLabelValues(source).Inc()
	healthScore.Observe(float64(score))
}

func IncBookingCreated(serviceType string) {
	bookingsCreated.WithLabelValues(serviceType).Inc()
}

func IncPaymentVerified(result string) {
	paymentsVerified.WithLabelValues(result).Inc()
}

func IncJobCompleted() {
	jobsCompleted.Inc()
}
