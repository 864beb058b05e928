// Package metrics exposes Prometheus counters for the requisition and
// routing core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RoutingDecisions counts routed applications by flow.
	RoutingDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hireflow_routing_decisions_total",
		Help: "Applications routed, labelled by flow (A=auto scheduling, B=manual review).",
	}, []string{"flow"})

	// ApprovalDecisions counts chain advances by decision.
	ApprovalDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "hireflow_approval_decisions_total",
		Help: "Approval chain decisions, labelled by decision.",
	}, []string{"decision"})

	// VersionConflicts counts optimistic writes lost to a concurrent update.
	VersionConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hireflow_version_conflicts_total",
		Help: "Compare-and-swap writes rejected because the row changed since read.",
	})

	// HiresConfirmed counts confirmed hires.
	HiresConfirmed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "hireflow_hires_confirmed_total",
		Help: "Hires confirmed against requisition seats.",
	})
)
