package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routeros",
			Subsystem: "session",
			Name:      "commands_total",
			Help:      "Total commands sent over API sessions.",
		},
		[]string{"mode", "outcome"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "routeros",
			Subsystem: "session",
			Name:      "command_duration_seconds",
			Help:      "Command round-trip duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"mode", "outcome"},
	)
	replyRows = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "routeros",
			Subsystem: "session",
			Name:      "reply_rows_total",
			Help:      "Total data rows received across all commands.",
		},
	)
	forcedCloses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routeros",
			Subsystem: "session",
			Name:      "forced_closes_total",
			Help:      "Sessions torn down without a graceful close.",
		},
		[]string{"reason"},
	)
	listenerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "routeros",
			Subsystem: "listener",
			Name:      "requests_total",
			Help:      "HTTP requests served by the debug listener.",
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(commandsTotal, commandDuration, replyRows, forcedCloses, listenerRequests)
	})
}

func RecordCommand(mode, outcome string, duration time.Duration) {
	RegisterMetrics()
	commandsTotal.WithLabelValues(mode, outcome).Inc()
	commandDuration.WithLabelValues(mode, outcome).Observe(duration.Seconds())
}

func RecordReplyRows(n int) {
	RegisterMetrics()
	replyRows.Add(float64(n))
}

func RecordForcedClose(reason string) {
	RegisterMetrics()
	forcedCloses.WithLabelValues(reason).Inc()
}

func RecordListenerRequest(method, path string, status int) {
	RegisterMetrics()
	listenerRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}
