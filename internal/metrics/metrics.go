package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransitionsTotal counts committed status transitions per entity kind
	// and target status.
	TransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskman_status_transitions_total",
		Help: "Committed status transitions by entity and new status.",
	}, []string{"entity", "status"})

	// InstancesCreatedTotal counts process instances spawned per process id.
	InstancesCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskman_process_instances_created_total",
		Help: "Process instances created, labeled by process definition id.",
	}, []string{"process_id"})

	// DeletionsTotal counts deletion outcomes per entity kind.
	DeletionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taskman_deletions_total",
		Help: "Deletion attempts by entity and outcome (deleted, blocked).",
	}, []string{"entity", "outcome"})
)
