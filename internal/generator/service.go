// Package generator implements the iteration controller: it wraps full
// pipeline runs in a bounded auto-improve loop driven by evaluation
// feedback, and enforces the single-flight guarantee per brief.
package generator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/pipeline"
	"github.com/fyrsmithlabs/planforge/internal/plan"
	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// Options is the per-request configuration surface. Zero values fall
// back to the service defaults.
type Options struct {
	// AutoIterate enables the improvement loop.
	AutoIterate bool

	// MaxIterations caps the loop. Default: 3.
	MaxIterations int

	// QualityThreshold stops the loop once the overall score reaches
	// it. Default: 7.0.
	QualityThreshold float64

	// RetryCount is the number of extra attempts per stage after a
	// transient failure. Default: 2.
	RetryCount int

	// StageTimeout bounds one stage invocation. Default: 60s.
	StageTimeout time.Duration
}

// ApplyDefaults fills unset fields from the standard defaults.
func (o *Options) ApplyDefaults() {
	if o.MaxIterations <= 0 {
		o.MaxIterations = 3
	}
	if o.QualityThreshold <= 0 {
		o.QualityThreshold = 7.0
	}
	if o.RetryCount <= 0 {
		o.RetryCount = 2
	}
	if o.StageTimeout <= 0 {
		o.StageTimeout = 60 * time.Second
	}
}

// ConflictError reports a second generation request for a brief whose
// run is still in flight. The request is rejected, never queued behind
// or merged into the active run.
type ConflictError struct {
	BriefID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("plan generation already in flight for brief %s", e.BriefID)
}

// Result is the outcome of one Generate call: the returned plan plus
// the per-iteration observability log.
type Result struct {
	Plan       *plan.MarketingPlan
	Iterations []plan.IterationRecord
}

// Service is the public entry point for plan generation.
type Service struct {
	adapter  stage.Adapter
	defaults Options
	logger   *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewService creates a generator service. defaults apply whenever a
// request does not override them.
func NewService(adapter stage.Adapter, defaults Options, logger *zap.Logger) *Service {
	defaults.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		adapter:  adapter,
		defaults: defaults,
		logger:   logger.Named("generator"),
		inflight: make(map[string]struct{}),
	}
}

// Defaults returns a copy of the service-wide option defaults,
// suitable as a base for per-request overrides.
func (s *Service) Defaults() Options {
	return s.defaults
}

// Generate runs the full generation loop for one brief.
//
// Iteration 1 always runs. The loop stops when the evaluation is
// absent, auto-iteration is off, the score reaches the threshold, or
// the iteration budget is exhausted; in the last case the best-scored
// plan across all iterations wins, ties broken toward the earliest.
// Each iteration is an independent pipeline run over a fresh
// generation context; only evaluation feedback carries forward.
func (s *Service) Generate(ctx context.Context, brief plan.ProductBrief, opts *Options) (*Result, error) {
	if err := brief.Validate(); err != nil {
		return nil, fmt.Errorf("invalid brief: %w", err)
	}

	if brief.BriefID == "" {
		brief.BriefID = uuid.NewString()
	}

	o := s.defaults
	if opts != nil {
		o = *opts
		o.ApplyDefaults()
	}

	if err := s.acquire(brief.BriefID); err != nil {
		return nil, err
	}
	defer s.release(brief.BriefID)

	controller := s.newController(o)
	log := s.logger.With(zap.String("brief_id", brief.BriefID))

	var (
		best      *plan.MarketingPlan
		bestScore float64
		feedback  *stage.Feedback
		records   []plan.IterationRecord
	)

	for iteration := 1; iteration <= o.MaxIterations; iteration++ {
		started := time.Now().UTC()
		gctx := pipeline.NewGenerationContext(brief, iteration, feedback)
		p, err := controller.Run(ctx, gctx)
		if err != nil {
			if best != nil {
				// A later iteration failed after an earlier one
				// produced a scored plan; the caller still gets a
				// complete document.
				log.Warn("iteration failed, returning best earlier plan",
					zap.Int("iteration", iteration),
					zap.Error(err),
				)
				return &Result{Plan: best, Iterations: records}, nil
			}
			return nil, err
		}

		records = append(records, plan.IterationRecord{
			Iteration:           iteration,
			QualityScore:        p.QualityScore,
			RegeneratedSections: plan.SectionOrder(),
			StartedAt:           started,
			FinishedAt:          time.Now().UTC(),
		})
		iterationsRun.Inc()

		if p.Scorecard == nil || !o.AutoIterate {
			return &Result{Plan: p, Iterations: records}, nil
		}

		score := p.Scorecard.OverallScore
		if best == nil || score > bestScore {
			best = p
			bestScore = score
		}
		if score >= o.QualityThreshold {
			log.Info("quality threshold reached",
				zap.Int("iteration", iteration),
				zap.Float64("score", score),
			)
			return &Result{Plan: p, Iterations: records}, nil
		}
		if iteration == o.MaxIterations {
			break
		}

		log.Info("score below threshold, iterating with feedback",
			zap.Int("iteration", iteration),
			zap.Float64("score", score),
			zap.Float64("threshold", o.QualityThreshold),
		)
		feedback = &stage.Feedback{
			Weaknesses:      p.Scorecard.Weaknesses,
			Recommendations: p.Scorecard.Recommendations,
		}
	}

	// Iteration budget exhausted: a defined stop condition, not an
	// error.
	budgetExhausted.Inc()
	log.Info("iteration budget exhausted, returning best plan",
		zap.Int("max_iterations", o.MaxIterations),
		zap.Float64("best_score", bestScore),
		zap.Int("best_iteration", best.IterationCount),
	)
	return &Result{Plan: best, Iterations: records}, nil
}

// newController builds the per-call pipeline stack so per-request
// retry overrides never leak between calls.
func (s *Service) newController(o Options) *pipeline.Controller {
	retry := pipeline.NewRetryPolicy(pipeline.RetryConfig{
		MaxRetries:   o.RetryCount,
		StageTimeout: o.StageTimeout,
	}, s.logger)
	return pipeline.NewController(s.adapter, retry, s.logger)
}

// acquire claims the single-flight slot for a brief.
func (s *Service) acquire(briefID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, active := s.inflight[briefID]; active {
		conflicts.Inc()
		return &ConflictError{BriefID: briefID}
	}
	s.inflight[briefID] = struct{}{}
	return nil
}

func (s *Service) release(briefID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, briefID)
}
