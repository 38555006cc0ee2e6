// Package metrics holds the Prometheus collectors exported on /metrics.
// Collectors register with the default registry on package init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sgu"

// Message results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// MessagesTotal counts inbound messages.
// Labels:
//   - kind: the message kind, or "unknown" when it could not be read
//   - result: ok, rejected (domain error) or error (internal failure)
var MessagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_total",
		Help:      "Total number of inbound messages by kind and result.",
	},
	[]string{"kind", "result"},
)

// MessageDuration measures routing plus handling time for one message.
var MessageDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "message_duration_seconds",
		Help:      "Time spent handling one inbound message.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"kind"},
)

var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Number of authenticated sessions currently connected.",
	},
)

// LedgerOperationsTotal counts committed ledger mutations.
// Label:
//   - op: add, remove, transfer, reserve, unreserve, delete
var LedgerOperationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_operations_total",
		Help:      "Total number of committed inventory ledger operations.",
	},
	[]string{"op"},
)
