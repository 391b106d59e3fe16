package generator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	iterationsRun = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planforge_generator_iterations_total",
		Help: "Total pipeline iterations executed across all plan generations.",
	})

	budgetExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planforge_generator_budget_exhausted_total",
		Help: "Generations that hit the iteration cap without reaching the quality threshold.",
	})

	conflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "planforge_generator_conflicts_total",
		Help: "Generation requests rejected because a run was already in flight for the brief.",
	})
)
