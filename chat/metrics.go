package chat

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "dispatches_total",
		Help:      "Number of chat dispatches by mode.",
	}, []string{"mode"})

	metricChunks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "chunks_total",
		Help:      "Number of content chunks delivered to the aggregator.",
	})

	metricFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "failures_total",
		Help:      "Number of provider failures by stage.",
	}, []string{"stage"})

	metricCancellations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "cancellations_total",
		Help:      "Number of explicitly cancelled generations.",
	})

	metricIdleTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "idle_timeouts_total",
		Help:      "Number of aggregator loops terminated by the idle timeout.",
	})

	metricTitleGenerations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "teatalk",
		Subsystem: "chat",
		Name:      "title_generations_total",
		Help:      "Number of title generation attempts by status.",
	}, []string{"status"})
)
