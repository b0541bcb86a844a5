// Package metrics defines the custom Prometheus metrics of the inventory API.
// Every metric is registered on the default registry at package init through
// promauto; HTTP request metrics come from the echoprometheus middleware.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// ── Movement metrics ──────────────────────────────────────────────────────────

// MovementsPostedTotal counts movements committed to the ledger.
// Label:
//   - type: "in" or "out"
var MovementsPostedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_posted_total",
		Help:      "Total number of stock movements recorded, by direction.",
	},
	[]string{"type"},
)

// MovementsRejectedTotal counts movements that were refused.
// Label:
//   - reason: "insufficient_stock", "item_not_found", "validation" or "error"
var MovementsRejectedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "movements_rejected_total",
		Help:      "Total number of stock movements rejected, by reason.",
	},
	[]string{"reason"},
)

// MovementQuantity observes the size of each recorded movement.
var MovementQuantity = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "movement_quantity",
		Help:      "Quantity moved per recorded stock movement.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 25, 50, 100, 250, 1000},
	},
	[]string{"type"},
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// LoginsTotal counts login attempts that reached the credential check.
// Label:
//   - result: "success" or "failure"
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)
