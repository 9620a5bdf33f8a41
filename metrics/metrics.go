// Package metrics defines prometheus metric types and provides convenience
// methods to add accounting to various parts of the client.
//
// When defining new operations or metrics, these are helpful values to track:
//   - things coming into or out of the system: connections, messages, chunks.
//   - the success or error status of any of the above.
//   - the distribution of result stream sizes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HandshakeCount counts version negotiation handshakes by negotiated
	// version.  Failed negotiations are counted under version "none".
	//
	// Example usage:
	//   metrics.HandshakeCount.WithLabelValues("4.4").Inc()
	HandshakeCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolt_handshake_total",
			Help: "The total number of version negotiation handshakes.",
		}, []string{"version"})

	// MessageSentCount counts request messages by message name.
	MessageSentCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolt_message_sent_total",
			Help: "The total number of request messages sent.",
		}, []string{"message"})

	// MessageReceivedCount counts server messages by message name.
	MessageReceivedCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolt_message_received_total",
			Help: "The total number of server messages received.",
		}, []string{"message"})

	// SentBytes counts serialized message payload bytes written, before
	// framing overhead.
	SentBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bolt_sent_bytes_total",
			Help: "The total number of message payload bytes sent.",
		})

	// ReceivedBytes counts reassembled message payload bytes read, after
	// framing is stripped.
	ReceivedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bolt_received_bytes_total",
			Help: "The total number of message payload bytes received.",
		})

	// ErrorCount measures the number of errors.
	//
	// Example usage:
	//   metrics.ErrorCount.WithLabelValues("deserialize").Inc()
	ErrorCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bolt_error_total",
			Help: "The total number of errors encountered.",
		}, []string{"type"})

	// RecordCountHistogram tracks the number of records delivered by each
	// pull.
	RecordCountHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "bolt_pull_record_count",
			Help: "records per pull histogram",
			Buckets: []float64{
				0, 1, 2, 3, 4, 5, 6, 8,
				10, 12.5, 16, 20, 25, 32, 40, 50, 63, 79,
				100, 125, 160, 200, 250, 320, 400, 500, 630, 790,
				1000, 1250, 1600, 2000, 2500, 3200, 4000, 5000, 6300, 7900,
				10000000,
			},
		})

	// PoolConnectionCount counts connections created by a pool.
	PoolConnectionCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bolt_pool_connection_total",
			Help: "The total number of pooled connections created.",
		})

	// PoolSize tracks the number of idle connections held by pools.
	PoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bolt_pool_idle_connections",
			Help: "Number of idle connections currently pooled.",
		})
)
