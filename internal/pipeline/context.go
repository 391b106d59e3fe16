// Package pipeline implements the plan-generation core: the stage
// sequencing state machine, the centralized retry policy, and the
// aggregator that assembles stage outputs into a plan document.
package pipeline

import (
	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// GenerationContext accumulates the state of one pipeline run. It is
// owned exclusively by a single Run invocation, created fresh for every
// iteration, and never shared across runs. No partial content carries
// over between iterations; only Feedback does.
type GenerationContext struct {
	Brief     plan.ProductBrief
	Iteration int

	// Feedback from the previous iteration's evaluation; nil on the
	// first iteration.
	Feedback *stage.Feedback

	// Outputs of completed stages, populated as the run advances.
	Research  stage.Payload
	Strategy  stage.Payload
	Scorecard *plan.EvaluationScorecard
}

// NewGenerationContext creates the accumulator for one run.
func NewGenerationContext(brief plan.ProductBrief, iteration int, feedback *stage.Feedback) *GenerationContext {
	return &GenerationContext{
		Brief:     brief,
		Iteration: iteration,
		Feedback:  feedback,
	}
}
