package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var nodeExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "workflow_node_executions_total",
	Help: "Total node executions by node.",
}, []string{"node"})
