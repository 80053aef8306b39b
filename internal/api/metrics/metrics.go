// Package metrics defines and registers all custom Prometheus metrics for
// the flood report API. It is the single source of truth for metric names,
// labels, and help strings. Metrics register with the default registry at
// package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "floodreport"

// ReportsCreatedTotal counts successfully created reports.
// Label:
//   - has_image: "true" when the report was submitted with a photo
var ReportsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reports_created_total",
		Help:      "Total number of reports created.",
	},
	[]string{"has_image"},
)

// StatusTransitionsTotal counts admin status changes by resulting status.
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Total number of report status transitions, by resulting status.",
	},
	[]string{"status"},
)

// AssetReleasesTotal counts background asset releases.
// Label:
//   - result: "ok" or "error" (release failures never fail the mutation)
var AssetReleasesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "asset_releases_total",
		Help:      "Total number of background asset release attempts, by result.",
	},
	[]string{"result"},
)

// ReleaseQueueDepth tracks pending asset releases per reaper worker.
var ReleaseQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "release_queue_depth",
		Help:      "Current number of asset releases pending in each reaper worker channel.",
	},
	[]string{"worker_id"},
)

// LoginAttemptsTotal counts login outcomes. Failures are not broken down
// further: unknown email and wrong password are indistinguishable on purpose.
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by result (success/failure).",
	},
	[]string{"result"},
)
