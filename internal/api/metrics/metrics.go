// Package metrics defines and registers all custom Prometheus metrics for the
// template service. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "templates"

// ── Message metrics ───────────────────────────────────────────────────────────

// MessagesSentTotal counts send attempts by outcome.
// Labels:
//   - type: template type requested (e.g. "job_apply_invite")
//   - result: "delivered", "template_not_found", "transport_error" or "error"
var MessagesSentTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_sent_total",
		Help:      "Total number of send-by-type attempts, by template type and result.",
	},
	[]string{"type", "result"},
)

// SendDuration measures select + render + transport + usage recording.
var SendDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "send_duration_seconds",
		Help:      "Duration of a send-by-type call end-to-end.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type"},
)

// DispatchQueueDepth tracks pending async sends per dispatcher worker.
var DispatchQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dispatch_queue_depth",
		Help:      "Current number of async sends pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// ── Template metrics ──────────────────────────────────────────────────────────

// TemplateMutationsTotal counts management writes.
// Label:
//   - operation: "create", "update", "delete", "promote" or "seed"
var TemplateMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "mutations_total",
		Help:      "Total number of template management writes, by operation.",
	},
	[]string{"operation"},
)

// CacheLookupsTotal counts active-template cache lookups.
// Label:
//   - result: "hit", "miss" or "error"
var CacheLookupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of active template cache lookups, by result.",
	},
	[]string{"result"},
)
