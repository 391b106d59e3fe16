package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// State is one phase of the pipeline state machine.
type State string

const (
	StateResearch  State = "research"
	StateStrategy  State = "strategy"
	StateEvaluate  State = "evaluate"
	StateAggregate State = "aggregate"
	StateDone      State = "done"
	StateFailed    State = "failed"
)

// Controller runs the ordered stage sequence for one brief, threading
// each stage's output into the next stage's input and invoking the
// aggregator at the end.
//
// Research and strategy failures after retries are fatal: no plan can
// exist without them, so the run transitions to Failed and surfaces a
// *RunError. An evaluation failure is non-fatal: the run proceeds to
// aggregation with an absent scorecard and a degraded status.
type Controller struct {
	adapter stage.Adapter
	retry   *RetryPolicy
	logger  *zap.Logger
}

// NewController creates a pipeline controller.
func NewController(adapter stage.Adapter, retry *RetryPolicy, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		adapter: adapter,
		retry:   retry,
		logger:  logger.Named("pipeline"),
	}
}

// Run executes one full pipeline run over a fresh generation context.
// On success the returned plan is schema-complete; on failure no plan
// is returned at all.
func (c *Controller) Run(ctx context.Context, gctx *GenerationContext) (*plan.MarketingPlan, error) {
	start := time.Now()
	log := c.logger.With(
		zap.String("brief_id", gctx.Brief.BriefID),
		zap.Int("iteration", gctx.Iteration),
	)

	// Research. Fatal on failure: every downstream section depends on
	// market input.
	log.Info("pipeline state", zap.String("state", string(StateResearch)))
	research, err := c.retry.Invoke(ctx, c.adapter, stage.Request{
		Stage:    stage.Research,
		Brief:    gctx.Brief,
		Feedback: gctx.Feedback,
	})
	if err != nil {
		return nil, c.fail(log, stage.Research, err, start)
	}
	gctx.Research = research

	// Strategy. Receives the brief plus the research payload.
	log.Info("pipeline state", zap.String("state", string(StateStrategy)))
	strategy, err := c.retry.Invoke(ctx, c.adapter, stage.Request{
		Stage:    stage.Strategy,
		Brief:    gctx.Brief,
		Research: gctx.Research,
		Feedback: gctx.Feedback,
	})
	if err != nil {
		return nil, c.fail(log, stage.Strategy, err, start)
	}
	gctx.Strategy = strategy

	// Evaluation. Non-fatal: an absent scorecard is a valid terminal
	// state, the plan just downgrades to completed_degraded.
	log.Info("pipeline state", zap.String("state", string(StateEvaluate)))
	gctx.Scorecard = c.evaluate(ctx, log, gctx)

	// Aggregation is always reachable once research and strategy
	// succeeded.
	log.Info("pipeline state", zap.String("state", string(StateAggregate)))
	p := Aggregate(gctx)

	pipelineRuns.WithLabelValues(string(p.Status)).Inc()
	pipelineDuration.Observe(time.Since(start).Seconds())
	log.Info("pipeline state",
		zap.String("state", string(StateDone)),
		zap.String("status", string(p.Status)),
		zap.Duration("duration", time.Since(start)),
	)
	return p, nil
}

// evaluate runs the evaluation stage, absorbing every failure mode
// into an absent scorecard.
func (c *Controller) evaluate(ctx context.Context, log *zap.Logger, gctx *GenerationContext) *plan.EvaluationScorecard {
	payload, err := c.retry.Invoke(ctx, c.adapter, stage.Request{
		Stage:    stage.Evaluation,
		Brief:    gctx.Brief,
		Research: gctx.Research,
		Strategy: gctx.Strategy,
	})
	if err != nil {
		stageFailures.WithLabelValues(string(stage.Evaluation)).Inc()
		log.Warn("evaluation stage failed, continuing without scorecard", zap.Error(err))
		return nil
	}

	sc, err := stage.ParseScorecard(payload)
	if err != nil {
		stageFailures.WithLabelValues(string(stage.Evaluation)).Inc()
		log.Warn("evaluation payload unusable, continuing without scorecard", zap.Error(err))
		return nil
	}
	return sc
}

// fail records a fatal stage failure and builds the run error.
func (c *Controller) fail(log *zap.Logger, s stage.Stage, err error, start time.Time) error {
	stageFailures.WithLabelValues(string(s)).Inc()
	pipelineRuns.WithLabelValues(string(StateFailed)).Inc()
	pipelineDuration.Observe(time.Since(start).Seconds())
	log.Error("pipeline state",
		zap.String("state", string(StateFailed)),
		zap.String("stage", string(s)),
		zap.Error(err),
	)
	return &RunError{Stage: s, Err: err}
}
