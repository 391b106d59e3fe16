// Package stage defines the uniform adapter contract for the
// generation capabilities consumed by the pipeline: market research,
// strategy development, plan evaluation, and the standalone field
// suggestion helper.
//
// The stage set is closed. The pipeline's sequencing logic depends on
// knowing each stage's position and criticality, so new capabilities
// are added here rather than through an open registry.
package stage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/planforge/internal/plan"
)

// Stage names one generation capability.
type Stage string

const (
	Research        Stage = "research"
	Strategy        Stage = "strategy"
	Evaluation      Stage = "evaluation"
	FieldSuggestion Stage = "field_suggestion"
)

// Fatal reports whether a stage failure aborts the whole run. Research
// and strategy output is load-bearing for every downstream section; the
// evaluation stage only gates the scorecard and degrades instead.
func (s Stage) Fatal() bool {
	return s == Research || s == Strategy
}

// Payload is a stage's parsed JSON output keyed by its declared
// top-level keys. Nested content is opaque to the orchestration core.
type Payload map[string]json.RawMessage

// Text returns the payload value under key decoded as a plain string,
// falling back to the raw JSON text for structured values.
func (p Payload) Text(key string) string {
	raw, ok := p[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// Feedback carries the prior iteration's evaluation output as steering
// input for the research and strategy stages.
type Feedback struct {
	Weaknesses      []string
	Recommendations []string
}

// Request is the single call shape for all stages. Fields beyond Brief
// are populated progressively as the pipeline advances: Research output
// feeds the strategy request, both feed the evaluation request.
type Request struct {
	Stage Stage
	Brief plan.ProductBrief

	// Research and Strategy hold completed upstream payloads.
	Research Payload
	Strategy Payload

	// Feedback is set on iterations after the first.
	Feedback *Feedback

	// Conform asks the stage to strictly follow its declared output
	// shape. Set by the retry policy after a schema failure.
	Conform bool

	// Field and FieldContext apply to FieldSuggestion only.
	Field        string
	FieldContext map[string]string
}

// Adapter wraps one generation capability behind a single call shape,
// hiding transport, prompt construction, and response parsing. An
// invocation must be idempotent with respect to the same request; the
// retry policy relies on this.
//
// On failure the returned error classifies the outcome: a
// *TransientError may be retried, a *PermanentError may not, and a
// *SchemaError means the response was structurally unusable.
type Adapter interface {
	Invoke(ctx context.Context, req Request) (Payload, error)
}

// TransientError marks a failure worth retrying: network faults,
// timeouts, rate limits, server errors.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient: %s: %v", e.Reason, e.Err)
	}
	return "transient: " + e.Reason
}

func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a failure retrying cannot fix: rejected input,
// authentication failure, unknown stage.
type PermanentError struct {
	Reason string
	Err    error
}

func (e *PermanentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("permanent: %s: %v", e.Reason, e.Err)
	}
	return "permanent: " + e.Reason
}

func (e *PermanentError) Unwrap() error { return e.Err }

// SchemaError reports a malformed or structurally incomplete stage
// payload. Missing lists the absent or empty required keys; it is nil
// when the response could not be decoded at all.
type SchemaError struct {
	Stage   Stage
	Missing []string
	Reason  string
}

func (e *SchemaError) Error() string {
	if len(e.Missing) > 0 {
		return fmt.Sprintf("stage %s payload invalid: missing keys [%s]", e.Stage, strings.Join(e.Missing, ", "))
	}
	return fmt.Sprintf("stage %s payload invalid: %s", e.Stage, e.Reason)
}
