package metrics

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var activeUsers atomic.Pointer[func() int]

// TrackActiveUsers points chat_active_users at a roster size; the gauge is
// read at scrape time.
func TrackActiveUsers(size func() int) {
	activeUsers.Store(&size)
}

var (
	ChatActiveUsers = promauto.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "chat_active_users",
			Help: "Number of users currently in the roster",
		},
		func() float64 {
			if size := activeUsers.Load(); size != nil {
				return float64((*size)())
			}
			return 0
		},
	)

	ChatConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chat_websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	ChatBroadcastFrames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_broadcast_frames_total",
			Help: "Total number of frames handed to connections by event type",
		},
		[]string{"event"},
	)

	ChatBroadcastDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_broadcast_dropped_total",
			Help: "Total number of frames dropped due to slow or closed connections",
		},
		[]string{"event"},
	)

	ChatRejectedOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rejected_operations_total",
			Help: "Total number of inbound operations rejected by the presence coordinator",
		},
		[]string{"operation", "reason"},
	)

	ChatRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_rate_limited_total",
			Help: "Total number of inbound operations blocked by the per-user rate limiter",
		},
		[]string{"operation"},
	)

	ChatKickedConnections = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "chat_kicked_connections_total",
			Help: "Total number of connections closed by the backpressure policy",
		},
	)
)
