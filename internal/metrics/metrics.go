package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestTotal counts API requests by route pattern and status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillulu_http_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	// Recomputes counts full countdown recomputations by trigger (tick, replace, start).
	Recomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillulu_countdown_recomputes_total",
			Help: "Total number of countdown recomputations",
		},
		[]string{"trigger"},
	)

	// Entries is the size of the most recent countdown.
	Entries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pillulu_countdown_entries",
			Help: "Number of upcoming doses in the last computed countdown",
		},
	)

	// Previews counts single-rule preview calls by outcome (found, none, invalid).
	Previews = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pillulu_previews_total",
			Help: "Total number of next-occurrence previews",
		},
		[]string{"outcome"},
	)
)

var initOnce sync.Once

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(RequestTotal, Recomputes, Entries, Previews)
	})
}

// RecordRequest counts one API request.
func RecordRequest(method, route string, statusCode int) {
	RequestTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
}

// RecordRecompute counts a countdown recomputation and records its size.
func RecordRecompute(trigger string, entries int) {
	Recomputes.WithLabelValues(trigger).Inc()
	Entries.Set(float64(entries))
}

// RecordPreview counts a preview by outcome.
func RecordPreview(outcome string) {
	Previews.WithLabelValues(outcome).Inc()
}
