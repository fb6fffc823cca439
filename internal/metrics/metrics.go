package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webweaver_generations_total",
			Help: "Total number of site generations by outcome",
		},
		[]string{"status"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "webweaver_generation_duration_seconds",
			Help:    "Duration of a full generation cycle in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"status"},
	)

	ArtifactsWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webweaver_artifacts_written_total",
			Help: "Total number of files written to the output workspace",
		},
		[]string{"target"},
	)

	ImageLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webweaver_image_lookups_total",
			Help: "Hero image lookups by result source",
		},
		[]string{"source"},
	)

	ToolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webweaver_tool_invocations_total",
			Help: "Agent tool invocations by tool and outcome",
		},
		[]string{"tool", "outcome"},
	)
)
