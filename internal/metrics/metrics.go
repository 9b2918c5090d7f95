package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "social",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	// Actions counts successful domain operations such as "follow" or "like".
	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "actions_total",
		Help:      "Successful social actions by kind.",
	}, []string{"action"})

	FeedCacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social",
		Name:      "feed_cache_lookups_total",
		Help:      "Feed cache lookups by result (hit, miss, error).",
	}, []string{"result"})
)

// Handler returns an http.Handler for Prometheus scraping
func Handler() http.Handler {
	return promhttp.Handler()
}
