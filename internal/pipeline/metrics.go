package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_pipeline_runs_total",
		Help: "Pipeline runs by terminal status (completed, completed_degraded, failed).",
	}, []string{"status"})

	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "planforge_pipeline_run_duration_seconds",
		Help:    "Wall-clock duration of one pipeline run.",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	})

	stageRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_stage_retries_total",
		Help: "Transient-failure retries per stage.",
	}, []string{"stage"})

	stageSchemaRetries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_stage_schema_retries_total",
		Help: "Conform re-prompts after schema-invalid stage payloads.",
	}, []string{"stage"})

	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "planforge_stage_failures_total",
		Help: "Stage failures after the retry policy gave up.",
	}, []string{"stage"})
)
