package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 学习进度写入，operation: content|section|quiz|reset
	ProgressWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athos_progress_writes_total",
			Help: "Committed progress mutations",
		},
		[]string{"operation"},
	)

	ProgressConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athos_progress_conflicts_total",
			Help: "Progress writes that lost the optimistic version check",
		},
	)

	QuizSubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athos_quiz_submissions_total",
			Help: "Graded quiz submissions",
		},
		[]string{"passed"},
	)

	RecommendationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athos_recommendation_failures_total",
			Help: "Recommendation runs that fell back to an empty result",
		},
	)

	PathRefreshFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "athos_learning_path_refresh_failures_total",
			Help: "Best-effort learning path refreshes that failed after a progress write",
		},
	)

	EventsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athos_events_published_total",
			Help: "Learning activity events pushed to the broker",
		},
		[]string{"result"},
	)

	// scope: ip|user
	RateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "athos_rate_limited_total",
			Help: "Requests rejected by the token bucket limiter",
		},
		[]string{"scope"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(ProgressWrites)
	prometheus.MustRegister(ProgressConflicts)
	prometheus.MustRegister(QuizSubmissions)
	prometheus.MustRegister(RecommendationFailures)
	prometheus.MustRegister(PathRefreshFailures)
	prometheus.MustRegister(EventsPublished)
	prometheus.MustRegister(RateLimited)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
