// Package metrics defines and registers the custom Prometheus metrics of the
// AnimalGuardian API. It is the single source of truth for metric names,
// labels and help strings.
//
// All metrics are registered with the default registry on package init via
// promauto; the /metrics endpoint exposes them next to the echoprometheus
// HTTP metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "animalguardian"

// ── Case metrics ──────────────────────────────────────────────────────────────

// CasesReportedTotal counts newly created case reports.
// Labels:
//   - urgency: "low", "medium", "high" or "urgent"
//   - channel: "api" or "ussd"
var CasesReportedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cases_reported_total",
		Help:      "Total number of case reports created, by urgency and intake channel.",
	},
	[]string{"urgency", "channel"},
)

// CaseStatusChangesTotal counts successful status updates.
// Label:
//   - status: the new case status
var CaseStatusChangesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "case_status_changes_total",
		Help:      "Total number of case status changes, by resulting status.",
	},
	[]string{"status"},
)

// CaseAssignmentsTotal counts assignment operations.
// Labels:
//   - action: "assign" or "unassign"
//   - result: "ok" or "rejected"
var CaseAssignmentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "case_assignments_total",
		Help:      "Total number of case assignment operations.",
	},
	[]string{"action", "result"},
)

// ── Email metrics ─────────────────────────────────────────────────────────────

// EmailDeliveriesTotal counts email delivery outcomes.
// Label:
//   - result: "sent", "retry", "failed" or "dropped" (queue full)
var EmailDeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "email_deliveries_total",
		Help:      "Total number of email delivery attempts, by outcome.",
	},
	[]string{"result"},
)

// EmailQueueDepth tracks the number of jobs waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index
var EmailQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "email_queue_depth",
		Help:      "Current number of email jobs pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EmailDeliveryDuration measures one delivery attempt.
// Label:
//   - result: "sent" or "error"
var EmailDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "email_delivery_duration_seconds",
		Help:      "Duration of a single email delivery attempt.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"result"},
)

// ── USSD metrics ──────────────────────────────────────────────────────────────

// UssdRequestsTotal counts USSD gateway callbacks.
// Label:
//   - outcome: "continue", "end" or "error"
var UssdRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ussd_requests_total",
		Help:      "Total number of USSD gateway requests, by response type.",
	},
	[]string{"outcome"},
)
