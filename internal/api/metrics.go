// SPDX-License-Identifier: MIT

package api

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meetscribe_uploads_total",
		Help: "Number of accepted meeting uploads",
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_transitions_total",
		Help: "Number of meeting lifecycle transitions by terminal outcome",
	}, []string{"outcome"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_searches_total",
		Help: "Number of in-meeting searches by primary result category",
	}, []string{"category"})

	searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meetscribe_search_duration_seconds",
		Help:    "Duration of in-meeting searches in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4.0, 8),
	})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meetscribe_exports_total",
		Help: "Number of meeting exports by result",
	}, []string{"result"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "meetscribe_http_request_duration_seconds",
		Help:    "HTTP request latencies in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "status"})
)

func recordUpload() {
	uploadsTotal.Inc()
}

func recordTransition(outcome string) {
	transitionsTotal.WithLabelValues(outcome).Inc()
}

func recordSearch(category string, duration time.Duration) {
	if category == "" {
		category = "none"
	}
	searchesTotal.WithLabelValues(category).Inc()
	searchDuration.Observe(duration.Seconds())
}

func recordExport(result string) {
	exportsTotal.WithLabelValues(result).Inc()
}

func recordHTTPRequest(method string, status int, duration time.Duration) {
	httpRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(duration.Seconds())
}
