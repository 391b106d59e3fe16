package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/planforge/internal/stage"
)

// RetryConfig configures retry behavior for stage invocations.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after a transient
	// failure. Default: 2.
	MaxRetries int

	// InitialBackoff is the first backoff duration. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffMultiplier grows the backoff between attempts. Default: 2.
	BackoffMultiplier float64

	// StageTimeout bounds a single stage invocation. Default: 60s.
	StageTimeout time.Duration
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:        2,
		InitialBackoff:    time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
		StageTimeout:      60 * time.Second,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = defaults.MaxRetries
	}
	if c.InitialBackoff == 0 {
		c.InitialBackoff = defaults.InitialBackoff
	}
	if c.MaxBackoff == 0 {
		c.MaxBackoff = defaults.MaxBackoff
	}
	if c.BackoffMultiplier == 0 {
		c.BackoffMultiplier = defaults.BackoffMultiplier
	}
	if c.StageTimeout == 0 {
		c.StageTimeout = defaults.StageTimeout
	}
}

// RetryPolicy is the single place stage retries happen. It wraps one
// stage invocation with bounded retries and exponential backoff for
// transient failures, validates every successful payload, and
// re-prompts exactly once with a conform instruction after a schema
// failure. Permanent failures pass through untouched.
type RetryPolicy struct {
	cfg    RetryConfig
	logger *zap.Logger
}

// NewRetryPolicy creates a retry policy.
func NewRetryPolicy(cfg RetryConfig, logger *zap.Logger) *RetryPolicy {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RetryPolicy{cfg: cfg, logger: logger.Named("retry")}
}

// Invoke runs one stage call under the full policy. The returned
// payload is always schema-valid for the requested stage.
func (p *RetryPolicy) Invoke(ctx context.Context, adapter stage.Adapter, req stage.Request) (stage.Payload, error) {
	payload, err := p.invokeTransient(ctx, adapter, req)
	if err == nil {
		return payload, nil
	}

	var schemaErr *stage.SchemaError
	if !errors.As(err, &schemaErr) {
		return nil, err
	}

	// One conform re-prompt, then give up and let the controller
	// escalate per stage criticality.
	p.logger.Warn("stage payload failed schema check, re-prompting",
		zap.String("stage", string(req.Stage)),
		zap.Strings("missing_keys", schemaErr.Missing),
	)
	stageSchemaRetries.WithLabelValues(string(req.Stage)).Inc()

	conformReq := req
	conformReq.Conform = true
	return p.invokeTransient(ctx, adapter, conformReq)
}

// invokeTransient retries transient failures with exponential backoff
// and validates the payload on success. Schema and permanent errors
// return immediately.
func (p *RetryPolicy) invokeTransient(ctx context.Context, adapter stage.Adapter, req stage.Request) (stage.Payload, error) {
	backoff := p.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			stageRetries.WithLabelValues(string(req.Stage)).Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff = time.Duration(float64(backoff) * p.cfg.BackoffMultiplier)
			if backoff > p.cfg.MaxBackoff {
				backoff = p.cfg.MaxBackoff
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, p.cfg.StageTimeout)
		payload, err := adapter.Invoke(attemptCtx, req)
		cancel()
		if err == nil {
			if verr := stage.ValidatePayload(req.Stage, payload); verr != nil {
				return nil, verr
			}
			if attempt > 0 {
				p.logger.Info("stage recovered after retries",
					zap.String("stage", string(req.Stage)),
					zap.Int("attempts", attempt+1),
				)
			}
			return payload, nil
		}

		var transient *stage.TransientError
		if !errors.As(err, &transient) {
			return nil, err
		}
		lastErr = err
		p.logger.Warn("stage transient failure",
			zap.String("stage", string(req.Stage)),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", p.cfg.MaxRetries+1),
			zap.Error(err),
		)
	}

	return nil, fmt.Errorf("stage %s failed after %d attempts: %w", req.Stage, p.cfg.MaxRetries+1, lastErr)
}
